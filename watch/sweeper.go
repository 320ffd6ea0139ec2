package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/dog-face/snake-game/domain"
)

// Sweeper periodically deletes sessions whose last update is older than the
// timeout and tells subscribers the player left.
type Sweeper struct {
	sessions domain.SessionStore
	notifier domain.PresenceNotifier
	timeout  time.Duration
	interval time.Duration
}

func NewSweeper(sessions domain.SessionStore, notifier domain.PresenceNotifier, timeout, interval time.Duration) *Sweeper {
	return &Sweeper{sessions: sessions, notifier: notifier, timeout: timeout, interval: interval}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	stale, err := s.sessions.DeleteStaleSessions(ctx, time.Now().UTC().Add(-s.timeout))
	if err != nil {
		slog.Error("session sweep failed", "error", err)
		return
	}
	for _, sess := range stale {
		s.notifier.PlayerLeave(sess.ID)
	}
	if len(stale) > 0 {
		slog.Info("cleaned up stale sessions", "count", len(stale))
	}
}
