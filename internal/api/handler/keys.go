package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rallyops/designops/internal/access"
	"github.com/rallyops/designops/internal/api/middleware"
	"github.com/rallyops/designops/internal/api/response"
	"github.com/rallyops/designops/internal/api/validation"
	"github.com/rallyops/designops/internal/auth"
)

type createKeyRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type keyResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Prefix    string  `json:"prefix"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"createdAt"`
	RevokedAt *string `json:"revokedAt"`
}

type createKeyResponse struct {
	keyResponse
	Key string `json:"key"`
}

func toKeyResponse(k *auth.APIKey) keyResponse {
	resp := keyResponse{
		ID:        k.ID,
		Name:      k.Name,
		Prefix:    k.Prefix,
		Role:      string(k.Role),
		CreatedAt: k.CreatedAt.UTC().Format(timeFormat),
	}
	if k.RevokedAt != nil {
		s := k.RevokedAt.UTC().Format(timeFormat)
		resp.RevokedAt = &s
	}
	return resp
}

// KeyHandler manages API keys. A nil service means no store is configured.
type KeyHandler struct {
	keys *auth.KeyService
}

// NewKeyHandler creates a new KeyHandler.
func NewKeyHandler(keys *auth.KeyService) *KeyHandler {
	return &KeyHandler{keys: keys}
}

func (h *KeyHandler) available(w http.ResponseWriter, requestID string) bool {
	if h.keys == nil {
		response.Err(w, http.StatusServiceUnavailable, "NOT_INITIALIZED", "Database not initialized", requestID)
		return false
	}
	return true
}

// List handles GET /api/keys.
func (h *KeyHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if !h.available(w, requestID) {
		return
	}

	keys, err := h.keys.List(r.Context())
	if err != nil {
		slog.Error("failed to list api keys", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list API keys", requestID)
		return
	}

	items := make([]keyResponse, 0, len(keys))
	for i := range keys {
		items = append(items, toKeyResponse(&keys[i]))
	}
	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// Create handles POST /api/keys. The raw key is in the response only.
func (h *KeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if !h.available(w, requestID) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := validation.ValidateCreateKeyRequest(validation.CreateKeyRequest{Name: req.Name, Role: req.Role})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	key, raw, err := h.keys.Issue(r.Context(), req.Name, access.Role(req.Role))
	if err != nil {
		slog.Error("failed to issue api key", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create API key", requestID)
		return
	}

	response.Success(w, http.StatusCreated, createKeyResponse{keyResponse: toKeyResponse(key), Key: raw}, requestID)
}

// Revoke handles DELETE /api/keys/{id}.
func (h *KeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if !h.available(w, requestID) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.keys.Revoke(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, auth.ErrKeyNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "API key not found", requestID)
		case errors.Is(err, auth.ErrKeyRevoked):
			response.Err(w, http.StatusConflict, "ALREADY_REVOKED", "API key is already revoked", requestID)
		default:
			slog.Error("failed to revoke api key", "error", err, "id", id)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to revoke API key", requestID)
		}
		return
	}

	response.NoContent(w)
}
