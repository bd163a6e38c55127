package clock

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultPollInterval bounds how late expiry detection can be.
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultSyncInterval is how often an authoritative snapshot is
	// broadcast so client-side countdowns can be corrected.
	DefaultSyncInterval = 5 * time.Second
)

// Runner drives one session's clock in the background: it charges elapsed
// time at the poll cadence, broadcasts a snapshot at the sync cadence, and
// terminates after emitting a single expiry.
//
// The runner only touches the Clock while holding mu, the owning session's
// mutex, so clock access stays serialized with turn mutations.
type Runner struct {
	mu    sync.Locker
	clock *Clock
	wall  clockwork.Clock

	pollInterval time.Duration
	syncInterval time.Duration

	onSync   func(Snapshot)
	onExpire func(loser Side)

	sessionID string
}

// NewRunner builds a runner for clk. onSync and onExpire are invoked outside
// mu; onExpire is invoked at most once, after which the runner has stopped.
func NewRunner(sessionID string, mu sync.Locker, clk *Clock, wall clockwork.Clock, onSync func(Snapshot), onExpire func(Side)) *Runner {
	return &Runner{
		mu:           mu,
		clock:        clk,
		wall:         wall,
		pollInterval: DefaultPollInterval,
		syncInterval: DefaultSyncInterval,
		onSync:       onSync,
		onExpire:     onExpire,
		sessionID:    sessionID,
	}
}

// SetIntervals overrides the poll and sync cadences. Zero values keep the
// defaults.
func (r *Runner) SetIntervals(poll, sync time.Duration) {
	if poll > 0 {
		r.pollInterval = poll
	}
	if sync > 0 {
		r.syncInterval = sync
	}
}

// Run loops until ctx is cancelled or the clock expires. It never returns an
// error: expiry is a normal terminal transition, reported through onExpire.
func (r *Runner) Run(ctx context.Context) {
	log.Info().
		Str("session_id", r.sessionID).
		Dur("poll", r.pollInterval).
		Dur("sync", r.syncInterval).
		Msg("clock runner started")

	ticker := r.wall.NewTicker(r.pollInterval)
	defer ticker.Stop()

	nextSync := r.wall.Now().Add(r.syncInterval)

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("session_id", r.sessionID).Msg("clock runner stopped")
			return

		case <-ticker.Chan():
			r.mu.Lock()
			if loser, expired := r.clock.Expired(); expired {
				// Pause before releasing the lock so no further
				// wall time is charged after the loss.
				r.clock.Pause()
				r.mu.Unlock()

				log.Info().
					Str("session_id", r.sessionID).
					Int("loser", int(loser)).
					Msg("clock expired")
				r.onExpire(loser)
				return
			}

			var snap *Snapshot
			if !r.wall.Now().Before(nextSync) {
				s := r.clock.Snapshot()
				snap = &s
				nextSync = r.wall.Now().Add(r.syncInterval)
			}
			r.mu.Unlock()

			if snap != nil {
				r.onSync(*snap)
			}
		}
	}
}
