package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultBudget is the per-player time budget for a new game clock.
const DefaultBudget = 15 * time.Minute

// Side identifies one of the two clock sides.
type Side int

const (
	SidePlayer1 Side = 0
	SidePlayer2 Side = 1
)

func (s Side) other() Side {
	if s == SidePlayer1 {
		return SidePlayer2
	}
	return SidePlayer1
}

// Snapshot is the externally observable clock state. Remaining values are
// clamped to >= 0 even when the raw budgets have gone negative between ticks.
type Snapshot struct {
	Player1RemainingMs int64 `json:"player1_remaining_ms"`
	Player2RemainingMs int64 `json:"player2_remaining_ms"`
	Active             Side  `json:"active"`
	Paused             bool  `json:"paused"`
}

// Clock is a two-sided chess clock. Exactly one side's budget decrements at
// any non-paused instant. Clock is not safe for concurrent use; the owning
// session serializes all access, including from the background Runner.
type Clock struct {
	remainingMs   [2]int64
	active        Side
	paused        bool
	lastAccounted time.Time

	wall clockwork.Clock
}

// New creates a paused clock with the given budget on both sides. Call Start
// to select the first active side and begin accounting.
func New(wall clockwork.Clock, budget time.Duration) *Clock {
	ms := budget.Milliseconds()
	return &Clock{
		remainingMs:   [2]int64{ms, ms},
		active:        SidePlayer1,
		paused:        true,
		lastAccounted: wall.Now(),
		wall:          wall,
	}
}

// Start unpauses the clock with the given side on the clock.
func (c *Clock) Start(active Side) {
	c.active = active
	c.paused = false
	c.lastAccounted = c.wall.Now()
}

// applyElapsed charges wall time since lastAccounted to the active side.
// Fractional milliseconds truncate, and a non-positive elapsed (clock skew)
// is a zero-cost no-op: time is never added back to a budget.
func (c *Clock) applyElapsed() {
	if c.paused {
		return
	}
	now := c.wall.Now()
	elapsedMs := now.Sub(c.lastAccounted).Milliseconds()
	if elapsedMs <= 0 {
		return
	}
	c.remainingMs[c.active] -= elapsedMs
	c.lastAccounted = now
}

// SwitchActive charges elapsed time to the current side, then puts the other
// side on the clock.
func (c *Clock) SwitchActive() {
	c.applyElapsed()
	c.active = c.active.other()
	c.lastAccounted = c.wall.Now()
}

// SetActive charges elapsed time, then puts the given side on the clock.
// Used instead of SwitchActive when the turn pointer does not alternate,
// e.g. a single-seat session.
func (c *Clock) SetActive(active Side) {
	c.applyElapsed()
	c.active = active
	c.lastAccounted = c.wall.Now()
}

// Pause charges elapsed time and freezes both budgets.
func (c *Clock) Pause() {
	c.applyElapsed()
	c.paused = true
}

// Resume unfreezes the clock without charging the paused interval.
func (c *Clock) Resume() {
	if !c.paused {
		return
	}
	c.lastAccounted = c.wall.Now()
	c.paused = false
}

// Paused reports whether the clock is frozen.
func (c *Clock) Paused() bool { return c.paused }

// Active returns the side currently on the clock.
func (c *Clock) Active() Side { return c.active }

// Expired accounts elapsed time and reports whether a side's raw budget has
// reached zero, returning the losing side. Player 1 wins ties by losing
// first, matching the side checked first.
func (c *Clock) Expired() (Side, bool) {
	c.applyElapsed()
	if c.remainingMs[SidePlayer1] <= 0 {
		return SidePlayer1, true
	}
	if c.remainingMs[SidePlayer2] <= 0 {
		return SidePlayer2, true
	}
	return 0, false
}

// Snapshot accounts elapsed time and returns the clamped observable state.
// It never mutates the active side.
func (c *Clock) Snapshot() Snapshot {
	c.applyElapsed()
	return Snapshot{
		Player1RemainingMs: max(0, c.remainingMs[SidePlayer1]),
		Player2RemainingMs: max(0, c.remainingMs[SidePlayer2]),
		Active:             c.active,
		Paused:             c.paused,
	}
}
