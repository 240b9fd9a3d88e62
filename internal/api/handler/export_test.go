package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallyops/designops/internal/api/handler"
)

func TestExport_ActiveOnly(t *testing.T) {
	ctx := asEditor(newManager(t, newStore(t)))
	createLeague(t, ctx, "NFL")
	req, w := makeChiRequest(ctx, http.MethodPost, "/api/leagues", []byte(`{"name":"XFL","active":false}`), nil)
	handler.NewLeagueHandler().Create(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req, w = makeChiRequest(ctx, http.MethodGet, "/api/v1/export", nil, nil)
	handler.Export(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	data := parseEnvelope(t, w)["data"].(map[string]interface{})
	assert.Len(t, data["leagues"], 2)
	assert.Equal(t, []interface{}{}, data["teams"])
	assert.Equal(t, []interface{}{}, data["products"])

	req, w = makeChiRequest(ctx, http.MethodGet, "/api/v1/export?active=true", nil, nil)
	handler.Export(w, req)
	data = parseEnvelope(t, w)["data"].(map[string]interface{})
	leagues := data["leagues"].([]interface{})
	require.Len(t, leagues, 1)
	assert.Equal(t, "NFL", leagues[0].(map[string]interface{})["name"])
}

func TestExport_ReadFailureFailsWholeExport(t *testing.T) {
	store := newStore(t)
	ctx := asEditor(newManager(t, store))
	createLeague(t, ctx, "NFL")

	store.failLists(errUnavailable)
	req, w := makeChiRequest(ctx, http.MethodGet, "/api/v1/export", nil, nil)
	handler.Export(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := parseEnvelope(t, w)
	assert.Nil(t, env["data"])
	assert.Equal(t, "READ_FAILED", env["error"].(map[string]interface{})["code"])
}

func TestExport_NotInitialized(t *testing.T) {
	ctx := asEditor(newManager(t, nil))

	req, w := makeChiRequest(ctx, http.MethodGet, "/api/v1/export", nil, nil)
	handler.Export(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
