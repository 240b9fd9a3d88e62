package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallyops/designops/internal/api/response"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestNewMeta(t *testing.T) {
	generated := response.NewMeta("")
	_, err := uuid.Parse(generated.RequestID)
	assert.NoError(t, err)
	assert.Nil(t, generated.Total)

	ts, err := time.Parse(response.TimestampFormat, generated.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, 5*time.Second)

	assert.Equal(t, "req-7", response.NewMeta("req-7").RequestID)
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	response.Success(w, http.StatusCreated, map[string]string{"name": "NFL"}, "req-1")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	env := decode(t, w)
	assert.Equal(t, "NFL", env["data"].(map[string]interface{})["name"])
	assert.Nil(t, env["error"])
	meta := env["meta"].(map[string]interface{})
	assert.Equal(t, "req-1", meta["requestId"])
	assert.NotContains(t, meta, "total")
}

func TestSuccess_HTMLIsNotEscaped(t *testing.T) {
	w := httptest.NewRecorder()
	response.Success(w, http.StatusOK, map[string]string{"notesHtml": "<p>green & white</p>"}, "")

	assert.Contains(t, w.Body.String(), "<p>green & white</p>")
}

func TestErr(t *testing.T) {
	w := httptest.NewRecorder()
	response.Err(w, http.StatusNotFound, "NOT_FOUND", "League not found", "req-2")

	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w)
	assert.Contains(t, env, "data")
	assert.Nil(t, env["data"])
	apiErr := env["error"].(map[string]interface{})
	assert.Equal(t, "NOT_FOUND", apiErr["code"])
	assert.Equal(t, "League not found", apiErr["message"])
	assert.NotContains(t, apiErr, "details")
}

func TestErrWithDetails(t *testing.T) {
	details := []map[string]string{{"field": "colors.primary", "message": "colors.primary must be a hex color like #1A2B3C"}}

	w := httptest.NewRecorder()
	response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", details, "")

	apiErr := decode(t, w)["error"].(map[string]interface{})
	got := apiErr["details"].([]interface{})
	require.Len(t, got, 1)
	assert.Equal(t, "colors.primary", got[0].(map[string]interface{})["field"])
}

func TestSuccessList_IncludesTotal(t *testing.T) {
	w := httptest.NewRecorder()
	response.SuccessList(w, http.StatusOK, []string{"a", "b"}, 2, "")

	env := decode(t, w)
	assert.Len(t, env["data"], 2)
	assert.Nil(t, env["error"])
	assert.Equal(t, float64(2), env["meta"].(map[string]interface{})["total"])
}

func TestSuccessList_EmptyTotalIsZero(t *testing.T) {
	w := httptest.NewRecorder()
	response.SuccessList(w, http.StatusOK, []string{}, 0, "")

	meta := decode(t, w)["meta"].(map[string]interface{})
	assert.Equal(t, float64(0), meta["total"])
}

func TestStaleList_CarriesDataAndError(t *testing.T) {
	w := httptest.NewRecorder()
	response.StaleList(w, http.StatusOK, []string{"NFL"}, 1, "READ_FAILED", "loading leagues: timeout", "")

	assert.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, []interface{}{"NFL"}, env["data"])
	apiErr := env["error"].(map[string]interface{})
	assert.Equal(t, "READ_FAILED", apiErr["code"])
	assert.Equal(t, "loading leagues: timeout", apiErr["message"])
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	response.NoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}
