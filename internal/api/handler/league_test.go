package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallyops/designops/internal/api/handler"
)

func createLeague(t *testing.T, ctx context.Context, name string) string {
	t.Helper()

	req, w := makeChiRequest(ctx, http.MethodPost, "/api/leagues", mustJSON(t, map[string]any{"name": name}), nil)
	handler.NewLeagueHandler().Create(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return parseEnvelope(t, w)["data"].(map[string]interface{})["id"].(string)
}

// --- Create ---

func TestLeagueCreate_Success(t *testing.T) {
	ctx := asEditor(newManager(t, newStore(t)))

	req, w := makeChiRequest(ctx, http.MethodPost, "/api/leagues", []byte(`{"name":"  Major League Baseball "}`), nil)
	handler.NewLeagueHandler().Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := parseEnvelope(t, w)["data"].(map[string]interface{})
	assert.NotEmpty(t, data["id"])

	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	l := items[0].(map[string]interface{})
	assert.Equal(t, "Major League Baseball", l["name"])
	assert.Equal(t, "major-league-baseball", l["slug"])
	assert.Equal(t, true, l["active"])
	assert.NotEmpty(t, l["createdAt"])
}

func TestLeagueCreate_ValidationError(t *testing.T) {
	ctx := asEditor(newManager(t, newStore(t)))

	req, w := makeChiRequest(ctx, http.MethodPost, "/api/leagues", []byte(`{"name":"   "}`), nil)
	handler.NewLeagueHandler().Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := parseEnvelope(t, w)
	apiErr := env["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", apiErr["code"])
	details := apiErr["details"].([]interface{})
	assert.Equal(t, "name", details[0].(map[string]interface{})["field"])
}

func TestLeagueCreate_InvalidJSON(t *testing.T) {
	ctx := asEditor(newManager(t, newStore(t)))

	req, w := makeChiRequest(ctx, http.MethodPost, "/api/leagues", []byte(`{`), nil)
	handler.NewLeagueHandler().Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_JSON", errorCode(t, w))
}

func TestLeagueCreate_WriteFailureLeavesList(t *testing.T) {
	store := newStore(t)
	ctx := asEditor(newManager(t, store))
	createLeague(t, ctx, "NFL")

	store.failInserts(errUnavailable)
	req, w := makeChiRequest(ctx, http.MethodPost, "/api/leagues", []byte(`{"name":"NHL"}`), nil)
	handler.NewLeagueHandler().Create(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	apiErr := parseEnvelope(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "WRITE_FAILED", apiErr["code"])
	assert.Equal(t, "store unavailable", apiErr["message"])

	req, w = makeChiRequest(ctx, http.MethodGet, "/api/leagues", nil, nil)
	handler.NewLeagueHandler().List(w, req)
	assert.Len(t, dataItems(t, w), 1)
}

func TestLeagueCreate_NotInitialized(t *testing.T) {
	ctx := asEditor(newManager(t, nil))

	req, w := makeChiRequest(ctx, http.MethodPost, "/api/leagues", []byte(`{"name":"NFL"}`), nil)
	handler.NewLeagueHandler().Create(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "NOT_INITIALIZED", errorCode(t, w))
}

func TestLeagueCreate_NoSession(t *testing.T) {
	req, w := makeChiRequest(nil, http.MethodPost, "/api/leagues", []byte(`{"name":"NFL"}`), nil)
	handler.NewLeagueHandler().Create(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- List ---

func TestLeagueList_OrderedByName(t *testing.T) {
	ctx := asEditor(newManager(t, newStore(t)))
	for _, n := range []string{"NHL", "MLB", "NFL"} {
		createLeague(t, ctx, n)
	}

	req, w := makeChiRequest(ctx, http.MethodGet, "/api/leagues", nil, nil)
	handler.NewLeagueHandler().List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)
	assert.Nil(t, env["error"])
	assert.Equal(t, float64(3), env["meta"].(map[string]interface{})["total"])

	var names []string
	for _, it := range dataItems(t, w) {
		names = append(names, it.(map[string]interface{})["name"].(string))
	}
	assert.Equal(t, []string{"MLB", "NFL", "NHL"}, names)
}

func TestLeagueList_ReadFailureServesStaleList(t *testing.T) {
	store := newStore(t)
	ctx := asEditor(newManager(t, store))
	createLeague(t, ctx, "NFL")

	store.failLists(errUnavailable)
	req, w := makeChiRequest(ctx, http.MethodGet, "/api/leagues", nil, nil)
	handler.NewLeagueHandler().List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)
	assert.Len(t, env["data"], 1)
	apiErr := env["error"].(map[string]interface{})
	assert.Equal(t, "READ_FAILED", apiErr["code"])
	assert.Contains(t, apiErr["message"], "store unavailable")
}

func TestLeagueList_NotInitialized(t *testing.T) {
	ctx := asEditor(newManager(t, nil))

	req, w := makeChiRequest(ctx, http.MethodGet, "/api/leagues", nil, nil)
	handler.NewLeagueHandler().List(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	env := parseEnvelope(t, w)
	assert.Equal(t, []interface{}{}, env["data"])
	apiErr := env["error"].(map[string]interface{})
	assert.Equal(t, "NOT_INITIALIZED", apiErr["code"])
	assert.Equal(t, "Database not initialized", apiErr["message"])
}

// --- Update / Delete ---

func TestLeagueUpdate_RenameReslugs(t *testing.T) {
	ctx := asEditor(newManager(t, newStore(t)))
	id := createLeague(t, ctx, "NFL")

	req, w := makeChiRequest(ctx, http.MethodPatch, "/api/leagues/"+id, []byte(`{"name":"National Football League","active":false}`), map[string]string{"id": id})
	handler.NewLeagueHandler().Update(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	items := parseEnvelope(t, w)["data"].(map[string]interface{})["items"].([]interface{})
	l := items[0].(map[string]interface{})
	assert.Equal(t, "national-football-league", l["slug"])
	assert.Equal(t, false, l["active"])
}

func TestLeagueUpdate_ActiveOnlyKeepsSlug(t *testing.T) {
	ctx := asEditor(newManager(t, newStore(t)))
	id := createLeague(t, ctx, "NFL")

	req, w := makeChiRequest(ctx, http.MethodPatch, "/api/leagues/"+id, []byte(`{"active":false}`), map[string]string{"id": id})
	handler.NewLeagueHandler().Update(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	items := parseEnvelope(t, w)["data"].(map[string]interface{})["items"].([]interface{})
	assert.Equal(t, "nfl", items[0].(map[string]interface{})["slug"])
}

func TestLeagueUpdate_NotFound(t *testing.T) {
	ctx := asEditor(newManager(t, newStore(t)))

	req, w := makeChiRequest(ctx, http.MethodPatch, "/api/leagues/missing", []byte(`{"active":true}`), map[string]string{"id": "missing"})
	handler.NewLeagueHandler().Update(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	apiErr := parseEnvelope(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "NOT_FOUND", apiErr["code"])
	assert.Equal(t, "League not found", apiErr["message"])
}

func TestLeagueDelete(t *testing.T) {
	ctx := asEditor(newManager(t, newStore(t)))
	id := createLeague(t, ctx, "NFL")
	createLeague(t, ctx, "NHL")

	req, w := makeChiRequest(ctx, http.MethodDelete, "/api/leagues/"+id, nil, map[string]string{"id": id})
	handler.NewLeagueHandler().Delete(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	items := parseEnvelope(t, w)["data"].(map[string]interface{})["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "NHL", items[0].(map[string]interface{})["name"])
}
