package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rallyops/designops/internal/api/middleware"
	"github.com/rallyops/designops/internal/api/response"
	"github.com/rallyops/designops/internal/api/validation"
	"github.com/rallyops/designops/internal/team"
)

type colorsRequest struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

func (c colorsRequest) toColors() team.Colors {
	return team.Colors{
		Primary:   strings.TrimSpace(c.Primary),
		Secondary: strings.TrimSpace(c.Secondary),
		Accent:    strings.TrimSpace(c.Accent),
	}
}

func (c colorsRequest) toValidation() validation.Colors {
	tc := c.toColors()
	return validation.Colors{Primary: tc.Primary, Secondary: tc.Secondary, Accent: tc.Accent}
}

type createTeamRequest struct {
	LeagueID    string          `json:"leagueId"`
	Name        string          `json:"name"`
	City        string          `json:"city"`
	Colors      colorsRequest   `json:"colors"`
	Keywords    validation.Tags `json:"keywords"`
	BannedTerms validation.Tags `json:"bannedTerms"`
	Notes       string          `json:"notes"`
	Active      *bool           `json:"active"`
}

type updateTeamRequest struct {
	LeagueID    *string          `json:"leagueId"`
	Name        *string          `json:"name"`
	City        *string          `json:"city"`
	Colors      *colorsRequest   `json:"colors"`
	Keywords    *validation.Tags `json:"keywords"`
	BannedTerms *validation.Tags `json:"bannedTerms"`
	Notes       *string          `json:"notes"`
	Active      *bool            `json:"active"`
}

type teamResponse struct {
	ID          string      `json:"id"`
	LeagueID    string      `json:"leagueId"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	City        string      `json:"city"`
	Colors      team.Colors `json:"colors"`
	Keywords    []string    `json:"keywords"`
	BannedTerms []string    `json:"bannedTerms"`
	Notes       string      `json:"notes,omitempty"`
	NotesHTML   string      `json:"notesHtml,omitempty"`
	Active      bool        `json:"active"`
	CreatedAt   string      `json:"createdAt"`
	UpdatedAt   string      `json:"updatedAt"`
}

func toTeamResponse(t *team.Team) teamResponse {
	resp := teamResponse{
		ID:          t.ID,
		LeagueID:    t.LeagueID,
		Name:        t.Name,
		Slug:        t.Slug,
		City:        t.City,
		Colors:      t.Colors,
		Keywords:    nonNilStrings(t.Keywords),
		BannedTerms: nonNilStrings(t.BannedTerms),
		Notes:       t.Notes,
		Active:      t.Active,
		CreatedAt:   t.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:   t.UpdatedAt.UTC().Format(timeFormat),
	}
	if t.Notes != "" {
		html, err := team.RenderNotes(t.Notes)
		if err != nil {
			slog.Error("failed to render team notes", "error", err, "id", t.ID)
		}
		resp.NotesHTML = html
	}
	return resp
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// TeamHandler handles team endpoints against the caller's session view.
type TeamHandler struct{}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler() *TeamHandler {
	return &TeamHandler{}
}

// List handles GET /api/teams. The optional leagueId query parameter
// restricts the list to one league.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	s := requireSession(w, r)
	if s == nil {
		return
	}

	items, err := s.Teams(r.URL.Query().Get("leagueId")).List(r.Context())
	writeList(w, items, err, toTeamResponse, middleware.GetRequestID(r.Context()))
}

// Create handles POST /api/teams. The league is not checked for existence.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	s := requireSession(w, r)
	if s == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateTeamRequest(validation.CreateTeamRequest{
		LeagueID: req.LeagueID,
		Name:     req.Name,
		City:     req.City,
		Colors:   req.Colors.toValidation(),
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	in := team.Input{
		LeagueID:    strings.TrimSpace(req.LeagueID),
		Name:        strings.TrimSpace(req.Name),
		City:        strings.TrimSpace(req.City),
		Colors:      req.Colors.toColors(),
		Keywords:    req.Keywords,
		BannedTerms: req.BannedTerms,
		Notes:       strings.TrimSpace(req.Notes),
		Active:      true,
	}
	if req.Active != nil {
		in.Active = *req.Active
	}

	repo := s.Teams(r.URL.Query().Get("leagueId"))
	id, snap, err := repo.Create(r.Context(), in.Fields())
	if err != nil {
		writeMutationError(w, err, "team", "create", requestID)
		return
	}

	writeMutation(w, http.StatusCreated, id, snap, toTeamResponse, requestID)
}

// Update handles PATCH /api/teams/{id}. Colors replace the whole palette.
func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	s := requireSession(w, r)
	if s == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	vreq := validation.UpdateTeamRequest{LeagueID: req.LeagueID, Name: req.Name, City: req.City}
	if req.Colors != nil {
		c := req.Colors.toValidation()
		vreq.Colors = &c
	}
	if fieldErrors := validation.ValidateUpdateTeamRequest(vreq); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	patch := team.Patch{
		LeagueID: trimmed(req.LeagueID),
		Name:     trimmed(req.Name),
		City:     trimmed(req.City),
		Notes:    trimmed(req.Notes),
		Active:   req.Active,
	}
	if req.Colors != nil {
		c := req.Colors.toColors()
		patch.Colors = &c
	}
	if req.Keywords != nil {
		k := []string(*req.Keywords)
		patch.Keywords = &k
	}
	if req.BannedTerms != nil {
		b := []string(*req.BannedTerms)
		patch.BannedTerms = &b
	}

	repo := s.Teams(r.URL.Query().Get("leagueId"))
	snap, err := repo.Update(r.Context(), chi.URLParam(r, "id"), patch.Fields())
	if err != nil {
		writeMutationError(w, err, "team", "update", requestID)
		return
	}

	writeMutation(w, http.StatusOK, "", snap, toTeamResponse, requestID)
}

// Delete handles DELETE /api/teams/{id}.
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	s := requireSession(w, r)
	if s == nil {
		return
	}

	repo := s.Teams(r.URL.Query().Get("leagueId"))
	snap, err := repo.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeMutationError(w, err, "team", "delete", requestID)
		return
	}

	writeMutation(w, http.StatusOK, "", snap, toTeamResponse, requestID)
}
