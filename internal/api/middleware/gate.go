package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rallyops/designops/internal/access"
	"github.com/rallyops/designops/internal/api/response"
)

// LoginPath is where browsers without a session are sent.
const LoginPath = "/auth/login"

// RequireRole returns middleware that serves the wrapped handler only when
// the session's gate state for required is Authorized.
func RequireRole(required access.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			s := GetSession(r.Context())
			state := access.Unauthenticated
			if s != nil {
				state = s.Gate(required)
			}

			switch state {
			case access.Authorized:
				next.ServeHTTP(w, r)
			case access.Resolving:
				w.Header().Set("Retry-After", "1")
				response.Err(w, http.StatusServiceUnavailable, "SESSION_RESOLVING", "Checking access, try again shortly", requestID)
			case access.Unauthenticated:
				if wantsHTML(r) {
					http.Redirect(w, r, LoginPath, http.StatusFound)
					return
				}
				response.Err(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Sign in required", requestID)
			case access.Unauthorized:
				response.Err(w, http.StatusForbidden, "ACCESS_DENIED", "Your account does not have access to this system.", requestID)
			default:
				msg := fmt.Sprintf("This action requires %s access. Your role: %s", required, s.Record().Role)
				response.Err(w, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", msg, requestID)
			}
		})
	}
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
