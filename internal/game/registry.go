package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/codered/server/internal/clock"
	"github.com/codered/server/internal/dictionary"
	"github.com/codered/server/internal/events"
)

// Deps carries the collaborators every session shares.
type Deps struct {
	Broadcaster Broadcaster
	Words       *dictionary.Service

	// Wall defaults to the real clock; tests inject a FakeClock.
	Wall clockwork.Clock
	// Budget defaults to clock.DefaultBudget.
	Budget time.Duration
	// PollInterval and SyncInterval default to the runner cadences.
	PollInterval time.Duration
	SyncInterval time.Duration
}

func (d Deps) wall() clockwork.Clock {
	if d.Wall != nil {
		return d.Wall
	}
	return clockwork.NewRealClock()
}

func (d Deps) budget() time.Duration {
	if d.Budget > 0 {
		return d.Budget
	}
	return clock.DefaultBudget
}

// Registry maps session ids to sessions. Sessions are created explicitly
// (Create) or by admission (Admit); every other operation on an unknown id
// fails with ErrNotFound.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     Deps
}

// NewRegistry builds an empty registry.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		deps:     deps,
	}
}

// Create registers a new session. An empty id is replaced with a generated
// one. Creating an id that already exists returns the existing session.
func (r *Registry) Create(id string) *Session {
	if id == "" {
		id = uuid.New().String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s
	}
	s := newSession(id, r.deps)
	r.sessions[id] = s
	log.Info().Str("session_id", id).Int("sessions", len(r.sessions)).Msg("session created")
	return s
}

// Get returns the session for id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	return s, nil
}

// Admit routes an admission event, creating the session on first reference.
// Admission is the only operation allowed to create implicitly.
func (r *Registry) Admit(sessionID string, seat Seat) *Session {
	s := r.Create(sessionID)
	s.Admit(seat)
	return s
}

// Start starts the session's active play.
func (r *Registry) Start(sessionID string) error {
	s, err := r.Get(sessionID)
	if err != nil {
		return err
	}
	return s.Start()
}

// ApplyMove routes a move to its session.
func (r *Registry) ApplyMove(sessionID string, move Move) error {
	s, err := r.Get(sessionID)
	if err != nil {
		return err
	}
	return s.ApplyMove(move)
}

// PassTurn routes a pass to its session.
func (r *Registry) PassTurn(sessionID string) error {
	s, err := r.Get(sessionID)
	if err != nil {
		return err
	}
	return s.PassTurn()
}

// BindBot attaches an automated opponent to a session seat.
func (r *Registry) BindBot(sessionID string, binding BotBinding) error {
	s, err := r.Get(sessionID)
	if err != nil {
		return err
	}
	s.BindBot(binding)
	return nil
}

// HandleDisconnect marks a seat disconnected without removing it.
func (r *Registry) HandleDisconnect(sessionID, seatID string) error {
	s, err := r.Get(sessionID)
	if err != nil {
		return err
	}
	s.HandleDisconnect(seatID)
	return nil
}

// Snapshot returns a session's full state.
func (r *Registry) Snapshot(sessionID string) (events.SessionStatePayload, error) {
	s, err := r.Get(sessionID)
	if err != nil {
		return events.SessionStatePayload{}, err
	}
	return s.Snapshot(), nil
}

// TimerSnapshot returns a session's clock state; ok is false before the
// session has started.
func (r *Registry) TimerSnapshot(sessionID string) (payload events.TimerSyncPayload, ok bool, err error) {
	s, err := r.Get(sessionID)
	if err != nil {
		return events.TimerSyncPayload{}, false, err
	}
	payload, ok = s.TimerSnapshot()
	return payload, ok, nil
}

// Remove tears a session down and forgets it.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	if ok {
		s.Close()
		log.Info().Str("session_id", sessionID).Msg("session removed")
	}
}

// Shutdown tears down every session.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	log.Info().Int("sessions", len(sessions)).Msg("registry shut down")
}
