package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rallyops/designops/internal/access"
	"github.com/rallyops/designops/internal/api/response"
	"github.com/rallyops/designops/internal/auth"
	"github.com/rallyops/designops/internal/session"
)

const (
	sessionKey contextKey = "session"
	apiKeyKey  contextKey = "apiKey"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "session"

// APIKeyHeader carries a raw API key for machine clients.
const APIKeyHeader = "X-API-Key"

// Session is middleware that attaches the caller's session to the context.
// An X-API-Key header yields a per-request session holding the key's role;
// an invalid key is rejected with 401. Otherwise the session cookie is
// resolved, and requests without a live session continue anonymously.
func Session(mgr *session.Manager, tokens *auth.TokenService, keys *auth.KeyService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			if rawKey := r.Header.Get(APIKeyHeader); rawKey != "" {
				if keys == nil {
					response.Err(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Invalid or revoked API key", requestID)
					return
				}
				key, err := keys.Authenticate(r.Context(), rawKey)
				if err != nil {
					if errors.Is(err, auth.ErrInvalidKey) {
						response.Err(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Invalid or revoked API key", requestID)
						return
					}
					slog.Error("failed to authenticate api key", "error", err)
					response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
					return
				}

				uid := "key:" + key.ID
				s := mgr.Ephemeral(auth.Identity{UID: uid}, &access.Record{UID: uid, Role: key.Role})
				ctx := WithSession(r.Context(), s)
				ctx = context.WithValue(ctx, apiKeyKey, true)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if s := fromCookie(r, mgr, tokens); s != nil {
				r = r.WithContext(WithSession(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func fromCookie(r *http.Request, mgr *session.Manager, tokens *auth.TokenService) *session.Session {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	sessionID, err := tokens.Validate(cookie.Value)
	if err != nil {
		return nil
	}

	s, err := mgr.Get(sessionID)
	if err != nil {
		return nil
	}
	return s
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// GetSession retrieves the caller's session from the context, or nil for
// anonymous requests.
func GetSession(ctx context.Context) *session.Session {
	if s, ok := ctx.Value(sessionKey).(*session.Session); ok {
		return s
	}
	return nil
}

// ViaAPIKey reports whether the request was authenticated by API key.
func ViaAPIKey(ctx context.Context) bool {
	v, _ := ctx.Value(apiKeyKey).(bool)
	return v
}
