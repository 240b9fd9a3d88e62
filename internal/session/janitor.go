package session

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is used when a non-positive interval is given.
const DefaultSweepInterval = 5 * time.Minute

// Janitor periodically removes expired sessions.
type Janitor struct {
	mgr      *Manager
	interval time.Duration
}

// NewJanitor creates a new Janitor.
func NewJanitor(mgr *Manager, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Janitor{
		mgr:      mgr,
		interval: interval,
	}
}

// Start begins the sweep loop. It blocks until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	slog.Info("session janitor started", "interval", j.interval.String())
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *Janitor) sweep() {
	if n := j.mgr.Sweep(j.mgr.now()); n > 0 {
		slog.Info("session janitor: removed expired sessions", "count", n)
	}
}
