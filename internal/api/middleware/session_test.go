package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallyops/designops/internal/access"
	"github.com/rallyops/designops/internal/api/middleware"
	"github.com/rallyops/designops/internal/auth"
	"github.com/rallyops/designops/internal/docstore/sqlite"
	"github.com/rallyops/designops/internal/session"
)

// --- Fixtures ---

type mockRecords struct {
	lookupFn func(ctx context.Context, uid string) (*access.Record, error)
}

func (m *mockRecords) Lookup(ctx context.Context, uid string) (*access.Record, error) {
	if m.lookupFn != nil {
		return m.lookupFn(ctx, uid)
	}
	return nil, access.ErrRecordNotFound
}

func (m *mockRecords) List(_ context.Context) ([]access.Record, error) { return nil, nil }

func (m *mockRecords) Put(_ context.Context, uid, email string, role access.Role) (*access.Record, error) {
	return &access.Record{UID: uid, Email: email, Role: role}, nil
}

func (m *mockRecords) Delete(_ context.Context, _ string) error { return nil }

func recordsWithRole(role access.Role) *mockRecords {
	return &mockRecords{
		lookupFn: func(_ context.Context, uid string) (*access.Record, error) {
			return &access.Record{UID: uid, Role: role}, nil
		},
	}
}

type fixture struct {
	mgr    *session.Manager
	tokens *auth.TokenService
	keys   *auth.KeyService
}

func newFixture(t *testing.T, records access.Repository) *fixture {
	t.Helper()

	store, err := sqlite.New(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tokens, err := auth.NewTokenService("0123456789abcdef-test-secret", time.Hour)
	require.NoError(t, err)

	mgr := session.NewManager(store, records, auth.NewBroker(), time.Hour)
	t.Cleanup(mgr.Close)

	return &fixture{
		mgr:    mgr,
		tokens: tokens,
		keys:   auth.NewKeyService(auth.NewKeyRepository(store), 4),
	}
}

// signIn starts a session and returns its cookie.
func (f *fixture) signIn(t *testing.T, uid string) (*session.Session, *http.Cookie) {
	t.Helper()

	s := f.mgr.Start(context.Background(), auth.Identity{UID: uid, Email: uid + "@example.com"})
	token, err := f.tokens.Issue(s.ID)
	require.NoError(t, err)
	return s, &http.Cookie{Name: middleware.SessionCookie, Value: token}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// captureSession runs the Session middleware and returns what it attached.
func captureSession(t *testing.T, f *fixture, req *http.Request) (*session.Session, *httptest.ResponseRecorder) {
	t.Helper()

	var got *session.Session
	handler := middleware.Session(f.mgr, f.tokens, f.keys)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = middleware.GetSession(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return got, w
}

// --- Session Tests ---

func TestSession_ValidCookie(t *testing.T) {
	f := newFixture(t, recordsWithRole(access.Editor))
	s, cookie := f.signIn(t, "uid-1")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	got, w := captureSession(t, f, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, s.ID, got.ID)
}

func TestSession_NoCookieIsAnonymous(t *testing.T) {
	f := newFixture(t, recordsWithRole(access.Editor))

	got, w := captureSession(t, f, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, got)
}

func TestSession_TamperedCookieIsAnonymous(t *testing.T) {
	f := newFixture(t, recordsWithRole(access.Editor))
	_, cookie := f.signIn(t, "uid-1")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: cookie.Value + "x"})

	got, _ := captureSession(t, f, req)
	assert.Nil(t, got)
}

func TestSession_EndedSessionIsAnonymous(t *testing.T) {
	f := newFixture(t, recordsWithRole(access.Editor))
	s, cookie := f.signIn(t, "uid-1")
	require.NoError(t, f.mgr.End(s.ID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	got, _ := captureSession(t, f, req)
	assert.Nil(t, got)
}

func TestSession_APIKey(t *testing.T) {
	f := newFixture(t, &mockRecords{})
	key, raw, err := f.keys.Issue(context.Background(), "pipeline", access.Viewer)
	require.NoError(t, err)

	var viaKey bool
	handler := middleware.Session(f.mgr, f.tokens, f.keys)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := middleware.GetSession(r.Context())
		require.NotNil(t, s)
		assert.Equal(t, "key:"+key.ID, s.Identity.UID)
		assert.Equal(t, access.Authorized, s.Gate(access.Viewer))
		assert.Equal(t, access.Underprivileged, s.Gate(access.Editor))
		viaKey = middleware.ViaAPIKey(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.APIKeyHeader, raw)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, viaKey)
	assert.Equal(t, 0, f.mgr.Len(), "key sessions are not registered")
}

func TestSession_InvalidAPIKey(t *testing.T) {
	f := newFixture(t, &mockRecords{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.APIKeyHeader, "dops_not-a-real-key")

	got, w := captureSession(t, f, req)

	assert.Nil(t, got)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHENTICATED")
}

func TestSession_RevokedAPIKey(t *testing.T) {
	f := newFixture(t, &mockRecords{})
	key, raw, err := f.keys.Issue(context.Background(), "old", access.Admin)
	require.NoError(t, err)
	require.NoError(t, f.keys.Revoke(context.Background(), key.ID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.APIKeyHeader, raw)

	_, w := captureSession(t, f, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSession_APIKeyWithoutStore(t *testing.T) {
	f := newFixture(t, &mockRecords{})

	handler := middleware.Session(f.mgr, f.tokens, nil)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.APIKeyHeader, "dops_anything")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
