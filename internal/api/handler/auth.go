package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/rs/xid"

	"github.com/rallyops/designops/internal/api/middleware"
	"github.com/rallyops/designops/internal/api/response"
	"github.com/rallyops/designops/internal/auth"
	"github.com/rallyops/designops/internal/session"
)

const stateCookie = "oauth_state"

// IdentityProvider runs the browser sign-in flow.
type IdentityProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Identity, error)
}

// AuthHandler handles sign-in and sign-out.
type AuthHandler struct {
	provider IdentityProvider
	mgr      *session.Manager
	tokens   *auth.TokenService
	secure   bool
}

// NewAuthHandler creates a new AuthHandler. A nil provider disables sign-in.
func NewAuthHandler(provider IdentityProvider, mgr *session.Manager, tokens *auth.TokenService, secure bool) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		mgr:      mgr,
		tokens:   tokens,
		secure:   secure,
	}
}

// Login handles GET /auth/login by redirecting to the identity provider.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		response.Err(w, http.StatusServiceUnavailable, "SIGN_IN_UNAVAILABLE", "Sign-in is not configured", middleware.GetRequestID(r.Context()))
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback handles GET /auth/callback. It completes the provider exchange,
// starts a session and stores its token in the session cookie.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if h.provider == nil {
		response.Err(w, http.StatusServiceUnavailable, "SIGN_IN_UNAVAILABLE", "Sign-in is not configured", requestID)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		slog.Warn("sign-in callback state mismatch", "requestId", requestID)
		response.Err(w, http.StatusBadRequest, "INVALID_STATE", "Sign-in state is missing or does not match", requestID)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/auth", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		slog.Info("sign-in declined", "error", errParam)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		response.Err(w, http.StatusBadRequest, "MISSING_CODE", "Authorization code is required", requestID)
		return
	}

	identity, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("failed to complete sign-in", "error", err)
		response.Err(w, http.StatusBadGateway, "SIGN_IN_FAILED", "Sign-in failed", requestID)
		return
	}

	s := h.mgr.Start(r.Context(), *identity)

	token, err := h.tokens.Issue(s.ID)
	if err != nil {
		slog.Error("failed to issue session token", "error", err)
		_ = h.mgr.End(s.ID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start session", requestID)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL() / time.Second),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /auth/logout. It ends the caller's session and clears
// the cookie; signing out without a session succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if s := middleware.GetSession(r.Context()); s != nil && !middleware.ViaAPIKey(r.Context()) {
		if err := h.mgr.End(s.ID); err != nil && !errors.Is(err, session.ErrNotFound) {
			slog.Error("failed to end session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	response.NoContent(w)
}

type csrfResponse struct {
	Token string `json:"token"`
}

// CSRFToken handles GET /auth/csrf. Clients echo the token in the
// X-CSRF-Token header on writes.
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token := csrf.Token(r)
	w.Header().Set(middleware.CSRFHeader, token)
	response.Success(w, http.StatusOK, csrfResponse{Token: token}, middleware.GetRequestID(r.Context()))
}
