package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rallyops/designops/internal/api/middleware"
	"github.com/rallyops/designops/internal/api/response"
	"github.com/rallyops/designops/internal/catalog"
	"github.com/rallyops/designops/internal/league"
	"github.com/rallyops/designops/internal/product"
	"github.com/rallyops/designops/internal/team"
)

type exportResponse struct {
	Leagues  []leagueResponse  `json:"leagues"`
	Teams    []teamResponse    `json:"teams"`
	Products []productResponse `json:"products"`
}

// Export handles GET /api/v1/export: every league, team and product in one
// payload for the design pipeline. With ?active=true only active records
// are included. Stale lists are never exported; any read failure fails the
// whole export.
func Export(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	s := requireSession(w, r)
	if s == nil {
		return
	}
	ctx := r.Context()

	leagues, err := s.Leagues().List(ctx)
	if err != nil {
		writeExportError(w, err, requestID)
		return
	}
	teams, err := s.Teams("").List(ctx)
	if err != nil {
		writeExportError(w, err, requestID)
		return
	}
	products, err := s.Products().List(ctx)
	if err != nil {
		writeExportError(w, err, requestID)
		return
	}

	if r.URL.Query().Get("active") == "true" {
		leagues = activeOnly(leagues, func(l *league.League) bool { return l.Active })
		teams = activeOnly(teams, func(t *team.Team) bool { return t.Active })
		products = activeOnly(products, func(p *product.Product) bool { return p.Active })
	}

	response.Success(w, http.StatusOK, exportResponse{
		Leagues:  convertAll(leagues, toLeagueResponse),
		Teams:    convertAll(teams, toTeamResponse),
		Products: convertAll(products, toProductResponse),
	}, requestID)
}

func activeOnly[T any](items []T, active func(*T) bool) []T {
	out := make([]T, 0, len(items))
	for i := range items {
		if active(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

func writeExportError(w http.ResponseWriter, err error, requestID string) {
	if errors.Is(err, catalog.ErrNotInitialized) {
		response.Err(w, http.StatusServiceUnavailable, "NOT_INITIALIZED", catalog.NotInitializedMessage, requestID)
		return
	}
	slog.Error("failed to export reference data", "error", err)
	response.Err(w, http.StatusInternalServerError, "READ_FAILED", err.Error(), requestID)
}
