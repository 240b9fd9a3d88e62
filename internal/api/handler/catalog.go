package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rallyops/designops/internal/api/middleware"
	"github.com/rallyops/designops/internal/api/response"
	"github.com/rallyops/designops/internal/catalog"
	"github.com/rallyops/designops/internal/docstore"
	"github.com/rallyops/designops/internal/session"
)

const timeFormat = "2006-01-02T15:04:05Z"

// mutationResponse carries the refreshed list after a write. RefreshError
// is set when the write succeeded but the re-fetch did not.
type mutationResponse[R any] struct {
	ID           string `json:"id,omitempty"`
	Items        []R    `json:"items"`
	RefreshError string `json:"refreshError,omitempty"`
}

func convertAll[T, R any](items []T, convert func(*T) R) []R {
	out := make([]R, 0, len(items))
	for i := range items {
		out = append(out, convert(&items[i]))
	}
	return out
}

// writeList writes a repository list. A failed read still serves the
// previous items together with the error.
func writeList[T, R any](w http.ResponseWriter, items []T, err error, convert func(*T) R, requestID string) {
	out := convertAll(items, convert)
	switch {
	case err == nil:
		response.SuccessList(w, http.StatusOK, out, len(out), requestID)
	case errors.Is(err, catalog.ErrNotInitialized):
		response.StaleList(w, http.StatusServiceUnavailable, out, len(out), "NOT_INITIALIZED", catalog.NotInitializedMessage, requestID)
	default:
		slog.Error("failed to list records", "error", err)
		response.StaleList(w, http.StatusOK, out, len(out), "READ_FAILED", err.Error(), requestID)
	}
}

// writeMutation writes the list produced by the write's own refresh.
func writeMutation[T, R any](w http.ResponseWriter, status int, id string, snap catalog.Snapshot[T], convert func(*T) R, requestID string) {
	response.Success(w, status, mutationResponse[R]{
		ID:           id,
		Items:        convertAll(snap.Items, convert),
		RefreshError: snap.Err,
	}, requestID)
}

// writeMutationError maps a repository write error to a response. Write
// failures carry the store's message.
func writeMutationError(w http.ResponseWriter, err error, noun, action, requestID string) {
	switch {
	case errors.Is(err, catalog.ErrNotInitialized):
		response.Err(w, http.StatusServiceUnavailable, "NOT_INITIALIZED", catalog.NotInitializedMessage, requestID)
	case errors.Is(err, docstore.ErrNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", capitalize(noun)+" not found", requestID)
	default:
		slog.Error("failed to "+action+" "+noun, "error", err)
		response.Err(w, http.StatusInternalServerError, "WRITE_FAILED", err.Error(), requestID)
	}
}

// requireSession returns the caller's session or writes 401.
func requireSession(w http.ResponseWriter, r *http.Request) *session.Session {
	s := middleware.GetSession(r.Context())
	if s == nil {
		response.Err(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Sign in required", middleware.GetRequestID(r.Context()))
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
