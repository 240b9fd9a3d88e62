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
	"github.com/rallyops/designops/internal/session"
)

type putAdminRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type adminResponse struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

func toAdminResponse(rec *access.Record) adminResponse {
	return adminResponse{
		UID:       rec.UID,
		Email:     rec.Email,
		Role:      string(rec.Role),
		CreatedAt: rec.CreatedAt.UTC().Format(timeFormat),
	}
}

// AdminHandler manages authorization records.
type AdminHandler struct {
	records access.Repository
	mgr     *session.Manager
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(records access.Repository, mgr *session.Manager) *AdminHandler {
	return &AdminHandler{records: records, mgr: mgr}
}

// List handles GET /api/admins.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	records, err := h.records.List(r.Context())
	if err != nil {
		h.writeError(w, err, "list", requestID)
		return
	}

	items := make([]adminResponse, 0, len(records))
	for i := range records {
		items = append(items, toAdminResponse(&records[i]))
	}
	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// Put handles PUT /api/admins/{uid}. Role changes apply at the identity's
// next sign-in.
func (h *AdminHandler) Put(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	uid := chi.URLParam(r, "uid")

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req putAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	fieldErrors := validation.ValidatePutAdminRequest(validation.PutAdminRequest{Email: req.Email, Role: req.Role})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	rec, err := h.records.Put(r.Context(), uid, req.Email, access.Role(req.Role))
	if err != nil {
		h.writeError(w, err, "save", requestID)
		return
	}

	slog.Info("admin role granted", "uid", uid, "role", rec.Role)
	response.Success(w, http.StatusOK, toAdminResponse(rec), requestID)
}

// Delete handles DELETE /api/admins/{uid}. The identity's live sessions are
// signed out. Callers cannot remove their own record.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	uid := chi.URLParam(r, "uid")

	if s := middleware.GetSession(r.Context()); s != nil && s.Identity.UID == uid {
		response.Err(w, http.StatusConflict, "CANNOT_REMOVE_SELF", "You cannot remove your own access", requestID)
		return
	}

	if err := h.records.Delete(r.Context(), uid); err != nil {
		h.writeError(w, err, "delete", requestID)
		return
	}

	ended := h.mgr.SignOut(uid)
	slog.Info("admin removed", "uid", uid, "sessionsEnded", ended)
	response.NoContent(w)
}

func (h *AdminHandler) writeError(w http.ResponseWriter, err error, action, requestID string) {
	switch {
	case errors.Is(err, access.ErrRecordNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Admin not found", requestID)
	case errors.Is(err, access.ErrNoStore):
		response.Err(w, http.StatusServiceUnavailable, "NOT_INITIALIZED", "Database not initialized", requestID)
	default:
		slog.Error("failed to "+action+" admin", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action+" admin", requestID)
	}
}
