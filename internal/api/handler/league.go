package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rallyops/designops/internal/api/middleware"
	"github.com/rallyops/designops/internal/api/response"
	"github.com/rallyops/designops/internal/api/validation"
	"github.com/rallyops/designops/internal/league"
)

type createLeagueRequest struct {
	Name   string `json:"name"`
	Active *bool  `json:"active"`
}

type updateLeagueRequest struct {
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

type leagueResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toLeagueResponse(l *league.League) leagueResponse {
	return leagueResponse{
		ID:        l.ID,
		Name:      l.Name,
		Slug:      l.Slug,
		Active:    l.Active,
		CreatedAt: l.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt: l.UpdatedAt.UTC().Format(timeFormat),
	}
}

// LeagueHandler handles league endpoints against the caller's session view.
type LeagueHandler struct{}

// NewLeagueHandler creates a new LeagueHandler.
func NewLeagueHandler() *LeagueHandler {
	return &LeagueHandler{}
}

// List handles GET /api/leagues.
func (h *LeagueHandler) List(w http.ResponseWriter, r *http.Request) {
	s := requireSession(w, r)
	if s == nil {
		return
	}

	items, err := s.Leagues().List(r.Context())
	writeList(w, items, err, toLeagueResponse, middleware.GetRequestID(r.Context()))
}

// Create handles POST /api/leagues.
func (h *LeagueHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	s := requireSession(w, r)
	if s == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createLeagueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateLeagueRequest(validation.CreateLeagueRequest{Name: req.Name})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	in := league.Input{Name: strings.TrimSpace(req.Name), Active: true}
	if req.Active != nil {
		in.Active = *req.Active
	}

	repo := s.Leagues()
	id, snap, err := repo.Create(r.Context(), in.Fields())
	if err != nil {
		writeMutationError(w, err, "league", "create", requestID)
		return
	}

	writeMutation(w, http.StatusCreated, id, snap, toLeagueResponse, requestID)
}

// Update handles PATCH /api/leagues/{id}.
func (h *LeagueHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	s := requireSession(w, r)
	if s == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateLeagueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdateLeagueRequest(validation.UpdateLeagueRequest{Name: req.Name})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	patch := league.Patch{Name: trimmed(req.Name), Active: req.Active}

	repo := s.Leagues()
	snap, err := repo.Update(r.Context(), chi.URLParam(r, "id"), patch.Fields())
	if err != nil {
		writeMutationError(w, err, "league", "update", requestID)
		return
	}

	writeMutation(w, http.StatusOK, "", snap, toLeagueResponse, requestID)
}

// Delete handles DELETE /api/leagues/{id}. Teams of the league are kept.
func (h *LeagueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	s := requireSession(w, r)
	if s == nil {
		return
	}

	repo := s.Leagues()
	snap, err := repo.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeMutationError(w, err, "league", "delete", requestID)
		return
	}

	writeMutation(w, http.StatusOK, "", snap, toLeagueResponse, requestID)
}
