package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rallyops/designops/internal/api/middleware"
	"github.com/rallyops/designops/internal/api/response"
)

// Pinger checks connectivity to the document store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	pinger  Pinger
	version string
}

// NewHealthHandler creates a new HealthHandler. A nil pinger reports the
// database as not configured.
func NewHealthHandler(pinger Pinger, version string) *HealthHandler {
	return &HealthHandler{
		pinger:  pinger,
		version: version,
	}
}

type databaseStatus struct {
	Configured bool `json:"configured"`
	Connected  bool `json:"connected"`
}

type healthData struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Database databaseStatus `json:"database"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	status := "healthy"
	db := databaseStatus{Configured: h.pinger != nil}

	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			slog.Warn("database ping failed", "error", err)
		} else {
			db.Connected = true
		}
	}
	if !db.Connected {
		status = "degraded"
	}

	response.Success(w, http.StatusOK, healthData{
		Status:   status,
		Version:  h.version,
		Database: db,
	}, requestID)
}
