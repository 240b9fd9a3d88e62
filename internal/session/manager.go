package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rallyops/designops/internal/access"
	"github.com/rallyops/designops/internal/auth"
	"github.com/rallyops/designops/internal/docstore"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Manager owns the live sessions.
type Manager struct {
	store   docstore.Store
	records access.Repository
	broker  *auth.Broker
	ttl     time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	sub *auth.Subscription
}

// NewManager creates a Manager and subscribes it to broker. A sign-out
// change tears down every session of the signed-out identity. Call Close to
// cancel the subscription.
func NewManager(store docstore.Store, records access.Repository, broker *auth.Broker, ttl time.Duration) *Manager {
	m := &Manager{
		store:    store,
		records:  records,
		broker:   broker,
		ttl:      ttl,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
	m.sub = broker.Subscribe(m.onChange)
	return m
}

// Start creates a session for identity and performs its single
// authorization lookup. A failed lookup is logged and leaves the session
// without a record.
func (m *Manager) Start(ctx context.Context, identity auth.Identity) *Session {
	s := newSession(uuid.NewString(), identity, m.store, m.now().Add(m.ttl))

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	rec, err := m.records.Lookup(ctx, identity.UID)
	if err != nil {
		if !errors.Is(err, access.ErrRecordNotFound) {
			slog.Error("failed to look up authorization record", "uid", identity.UID, "error", err)
		}
		rec = nil
	}
	s.resolve(rec)

	slog.Info("session started", "sessionId", s.ID, "uid", identity.UID, "authorized", rec != nil)
	m.broker.Publish(auth.Change{Identity: identity, SessionID: s.ID, SignedIn: true})
	return s
}

// Ephemeral builds a resolved, unregistered session for a single request,
// such as one authenticated by API key.
func (m *Manager) Ephemeral(identity auth.Identity, rec *access.Record) *Session {
	s := newSession(uuid.NewString(), identity, m.store, time.Time{})
	s.resolve(rec)
	return s
}

// Get returns a live session. Expired sessions are removed.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	if s.Expired(m.now()) {
		m.remove(id)
		return nil, ErrNotFound
	}
	return s, nil
}

// End signs a session out and publishes the sign-out change.
func (m *Manager) End(id string) error {
	s := m.remove(id)
	if s == nil {
		return ErrNotFound
	}

	slog.Info("session ended", "sessionId", id, "uid", s.Identity.UID)
	m.broker.Publish(auth.Change{Identity: s.Identity, SessionID: id, SignedIn: false})
	return nil
}

// ForIdentity returns the live sessions of uid, including ones still
// resolving.
func (m *Manager) ForIdentity(uid string) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Session
	for _, s := range m.sessions {
		if s.Identity.UID == uid {
			out = append(out, s)
		}
	}
	return out
}

// SignOut ends every session of uid and returns how many it ended. A
// sign-out change is published only when a session existed.
func (m *Manager) SignOut(uid string) int {
	sessions := m.ForIdentity(uid)
	if len(sessions) == 0 {
		return 0
	}

	m.mu.Lock()
	for _, s := range sessions {
		delete(m.sessions, s.ID)
	}
	m.mu.Unlock()

	slog.Info("identity signed out", "uid", uid, "sessions", len(sessions))
	m.broker.Publish(auth.Change{Identity: sessions[0].Identity, SessionID: sessions[0].ID, SignedIn: false})
	return len(sessions)
}

// Sweep removes every session expired at now and returns how many it removed.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close cancels the broker subscription.
func (m *Manager) Close() {
	m.sub.Cancel()
}

func (m *Manager) remove(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	delete(m.sessions, id)
	return s
}

func (m *Manager) onChange(c auth.Change) {
	if c.SignedIn {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.Identity.UID == c.Identity.UID {
			delete(m.sessions, id)
		}
	}
}
