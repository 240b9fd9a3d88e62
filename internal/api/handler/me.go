package handler

import (
	"net/http"

	"github.com/rallyops/designops/internal/api/middleware"
	"github.com/rallyops/designops/internal/api/response"
)

type meResponse struct {
	UID       string  `json:"uid"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	APIKey    bool    `json:"apiKey"`
	ExpiresAt *string `json:"expiresAt"`
}

// Me handles GET /api/me.
func Me(w http.ResponseWriter, r *http.Request) {
	s := requireSession(w, r)
	if s == nil {
		return
	}

	resp := meResponse{
		UID:    s.Identity.UID,
		Email:  s.Identity.Email,
		APIKey: middleware.ViaAPIKey(r.Context()),
	}
	if rec := s.Record(); rec != nil {
		resp.Role = string(rec.Role)
	}
	if !s.ExpiresAt.IsZero() {
		exp := s.ExpiresAt.UTC().Format(timeFormat)
		resp.ExpiresAt = &exp
	}

	response.Success(w, http.StatusOK, resp, middleware.GetRequestID(r.Context()))
}
