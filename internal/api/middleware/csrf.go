package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/rallyops/designops/internal/api/response"
)

// CSRFHeader is the request header carrying the CSRF token.
const CSRFHeader = "X-CSRF-Token"

// CSRF returns middleware protecting cookie-authenticated writes. Requests
// authenticated by API key are exempt. Must run after Session.
func CSRF(authKey []byte, secure bool, trustedOrigins []string) func(http.Handler) http.Handler {
	protect := csrf.Protect(authKey,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.RequestHeader(CSRFHeader),
		csrf.TrustedOrigins(trustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailed)),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			if ViaAPIKey(r.Context()) {
				r = csrf.UnsafeSkipCheck(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

func csrfFailed(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	slog.Warn("csrf check failed", "reason", csrf.FailureReason(r), "path", r.URL.Path, "requestId", requestID)
	response.Err(w, http.StatusForbidden, "CSRF_INVALID", "Missing or invalid CSRF token", requestID)
}
