package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallyops/designops/internal/access"
	"github.com/rallyops/designops/internal/api/middleware"
	"github.com/rallyops/designops/internal/auth"
)

func gateRequest(t *testing.T, f *fixture, required access.Role, cookie *http.Cookie, accept string) *httptest.ResponseRecorder {
	t.Helper()

	handler := middleware.Session(f.mgr, f.tokens, f.keys)(middleware.RequireRole(required)(okHandler()))
	req := httptest.NewRequest(http.MethodGet, "/api/leagues", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env["error"])
	return env["error"].(map[string]interface{})
}

func TestRequireRole_Authorized(t *testing.T) {
	f := newFixture(t, recordsWithRole(access.Editor))
	_, cookie := f.signIn(t, "uid-1")

	w := gateRequest(t, f, access.Editor, cookie, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = gateRequest(t, f, access.Viewer, cookie, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	f := newFixture(t, recordsWithRole(access.Editor))

	w := gateRequest(t, f, access.Viewer, nil, "application/json")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHENTICATED", errorOf(t, w)["code"])
}

func TestRequireRole_UnauthenticatedBrowserRedirects(t *testing.T) {
	f := newFixture(t, recordsWithRole(access.Editor))

	w := gateRequest(t, f, access.Viewer, nil, "text/html,application/xhtml+xml")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, middleware.LoginPath, w.Header().Get("Location"))
}

func TestRequireRole_Unauthorized(t *testing.T) {
	f := newFixture(t, &mockRecords{})
	_, cookie := f.signIn(t, "stranger")

	w := gateRequest(t, f, access.Viewer, cookie, "")

	assert.Equal(t, http.StatusForbidden, w.Code)
	apiErr := errorOf(t, w)
	assert.Equal(t, "ACCESS_DENIED", apiErr["code"])
	assert.Equal(t, "Your account does not have access to this system.", apiErr["message"])
}

func TestRequireRole_Underprivileged(t *testing.T) {
	f := newFixture(t, recordsWithRole(access.Viewer))
	_, cookie := f.signIn(t, "uid-1")

	w := gateRequest(t, f, access.Editor, cookie, "")

	assert.Equal(t, http.StatusForbidden, w.Code)
	apiErr := errorOf(t, w)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", apiErr["code"])
	assert.Equal(t, "This action requires editor access. Your role: viewer", apiErr["message"])
}

func TestRequireRole_Resolving(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, &mockRecords{
		lookupFn: func(_ context.Context, uid string) (*access.Record, error) {
			<-release
			return &access.Record{UID: uid, Role: access.Admin}, nil
		},
	})
	done := make(chan struct{})
	go func() {
		f.mgr.Start(context.Background(), auth.Identity{UID: "uid-1"})
		close(done)
	}()

	// The session is registered before its lookup returns.
	require.Eventually(t, func() bool { return len(f.mgr.ForIdentity("uid-1")) == 1 }, time.Second, 5*time.Millisecond)
	token, err := f.tokens.Issue(f.mgr.ForIdentity("uid-1")[0].ID)
	require.NoError(t, err)

	w := gateRequest(t, f, access.Viewer, &http.Cookie{Name: middleware.SessionCookie, Value: token}, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, "SESSION_RESOLVING", errorOf(t, w)["code"])

	close(release)
	<-done

	w = gateRequest(t, f, access.Viewer, &http.Cookie{Name: middleware.SessionCookie, Value: token}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
