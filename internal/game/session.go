package game

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/codered/server/internal/board"
	"github.com/codered/server/internal/bots"
	"github.com/codered/server/internal/clock"
	"github.com/codered/server/internal/dictionary"
	"github.com/codered/server/internal/events"
)

// MaxSeats is the session capacity. Admission beyond it is a silent no-op.
const MaxSeats = 2

// Status is a session's lifecycle state. Transitions only move forward,
// except Active and Paused which alternate.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

// Seat is one participant slot. Seats are retained on disconnect so score
// and turn order survive reconnection.
type Seat struct {
	ID        string
	Name      string
	Score     int
	Connected bool
}

// Move is a submitted turn: placed tiles plus the words and score the client
// claims. Moves are transient; they are echoed and folded into turn
// advancement, never persisted.
type Move struct {
	SeatID string
	Tiles  []events.PlacedTile
	Words  []string
	Score  int
}

// BotBinding attaches an automated opponent to a seat. Set at most once per
// session in practice; last write wins.
type BotBinding struct {
	SeatID     string
	Difficulty bots.Difficulty
}

// Broadcaster is the outward event sink. Emit fans an event out to every
// session participant; EmitTo targets one seat. Both are fire-and-forget.
type Broadcaster interface {
	Emit(evt events.Event)
	EmitTo(seatID string, evt events.Event)
}

// Session is one game's complete server-side state. All mutating operations
// are serialized by mu; the clock Runner and scheduled bot moves re-acquire
// mu before touching any field.
type Session struct {
	id string

	mu      sync.Mutex
	seats   []*Seat
	current int
	status  Status
	bot     *BotBinding
	board   *board.Board

	clk          *clock.Clock
	runnerCancel context.CancelFunc

	action    *scheduledAction
	actionGen uint64

	broadcaster Broadcaster
	words       *dictionary.Service
	wall        clockwork.Clock
	rng         *rand.Rand

	budget       time.Duration
	pollInterval time.Duration
	syncInterval time.Duration
}

func newSession(id string, deps Deps) *Session {
	rng := rand.New(rand.NewSource(deps.wall().Now().UnixNano()))
	return &Session{
		id:           id,
		status:       StatusWaiting,
		board:        board.New(rng),
		broadcaster:  deps.Broadcaster,
		words:        deps.Words,
		wall:         deps.wall(),
		rng:          rng,
		budget:       deps.budget(),
		pollInterval: deps.PollInterval,
		syncInterval: deps.SyncInterval,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Admit adds a seat, or reconnects it if the identity is already present.
// Admission beyond capacity is a silent no-op. The full session snapshot is
// broadcast either way.
func (s *Session) Admit(seat Seat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.seatByIDLocked(seat.ID); existing != nil {
		existing.Connected = true
		log.Info().Str("session_id", s.id).Str("seat_id", seat.ID).Msg("seat reconnected")
	} else if len(s.seats) < MaxSeats {
		seat.Connected = true
		s.seats = append(s.seats, &seat)
		log.Info().Str("session_id", s.id).Str("seat_id", seat.ID).Int("seats", len(s.seats)).Msg("seat admitted")
	} else {
		log.Debug().Str("session_id", s.id).Str("seat_id", seat.ID).Msg("session full, admission ignored")
	}

	s.broadcastStateLocked()
}

// Start transitions the session to Active: it randomizes the starting seat,
// creates the chess clock, and launches the clock runner. Starting an
// already Active session is a no-op, so duplicate admission-triggered start
// signals neither re-randomize the starting seat nor reset the clock.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case StatusActive:
		return nil
	case StatusWaiting:
	default:
		return fmt.Errorf("cannot start session in status %q: %w", s.status, ErrInvalidTransition)
	}
	if len(s.seats) == 0 {
		return fmt.Errorf("cannot start session with no seats: %w", ErrInvalidTransition)
	}

	if len(s.seats) == MaxSeats {
		s.current = s.rng.Intn(MaxSeats)
	} else {
		s.current = 0
	}
	s.status = StatusActive

	for _, seat := range s.seats {
		s.board.DrawRack(seat.ID)
	}

	s.clk = clock.New(s.wall, s.budget)
	s.clk.Start(clock.Side(s.current))

	ctx, cancel := context.WithCancel(context.Background())
	s.runnerCancel = cancel
	runner := clock.NewRunner(s.id, &s.mu, s.clk, s.wall, s.handleTimerSync, s.handleExpiry)
	runner.SetIntervals(s.pollInterval, s.syncInterval)
	go runner.Run(ctx)

	log.Info().
		Str("session_id", s.id).
		Str("starting_seat", s.seats[s.current].ID).
		Dur("budget", s.budget).
		Msg("session started")

	s.broadcastStateLocked()
	s.maybeScheduleBotLocked()
	return nil
}

// ApplyMove validates turn ownership, folds the move into the board, echoes
// it, sends the validation result to the mover, and advances the turn.
func (s *Session) ApplyMove(move Move) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyMoveLocked(move)
}

func (s *Session) applyMoveLocked(move Move) error {
	if s.status != StatusActive {
		return fmt.Errorf("cannot apply move in status %q: %w", s.status, ErrInvalidTransition)
	}
	seat := s.seats[s.current]
	if seat.ID != move.SeatID {
		return fmt.Errorf("seat %q moved on seat %q's turn: %w", move.SeatID, seat.ID, ErrOutOfTurn)
	}

	score := s.board.Place(seat.ID, move.Tiles)
	seat.Score += score

	s.broadcaster.Emit(events.New(s.id, events.TypeMoveMade, events.MoveMadePayload{
		SeatID: move.SeatID,
		Tiles:  move.Tiles,
		Words:  move.Words,
		Score:  score,
	}))
	s.emitValidationLocked(move, score)

	s.advanceTurnLocked()
	return nil
}

// emitValidationLocked annotates the move's claimed words against the
// dictionary and reports to the mover only. Validation never rejects a move.
func (s *Session) emitValidationLocked(move Move, score int) {
	var invalid []string
	for _, w := range move.Words {
		if !s.words.IsValid(w) {
			invalid = append(invalid, w)
		}
	}

	payload := events.MoveValidatedPayload{
		IsValid: len(invalid) == 0,
		Score:   score,
		Words:   move.Words,
	}
	if len(invalid) > 0 {
		payload.Reason = "invalid words: " + strings.Join(invalid, ", ")
	}
	s.broadcaster.EmitTo(move.SeatID, events.New(s.id, events.TypeMoveValidated, payload))
}

// PassTurn advances the turn without a move payload.
func (s *Session) PassTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return fmt.Errorf("cannot pass turn in status %q: %w", s.status, ErrInvalidTransition)
	}
	s.advanceTurnLocked()
	return nil
}

// advanceTurnLocked moves the turn pointer one position, switches the clock,
// notifies participants, and re-arms the bot if the new seat is bot-bound.
func (s *Session) advanceTurnLocked() {
	s.current = (s.current + 1) % len(s.seats)

	// With a single seat the turn pointer cannot alternate, so the clock
	// stays on side 0 instead of charging an unoccupied side.
	if len(s.seats) == MaxSeats {
		s.clk.SwitchActive()
	} else {
		s.clk.SetActive(clock.Side(s.current))
	}

	s.broadcaster.Emit(events.New(s.id, events.TypeTurnChanged, events.TurnChangedPayload{
		SeatID: s.seats[s.current].ID,
	}))
	s.maybeScheduleBotLocked()
}

// BindBot attaches an automated opponent; last write wins. If the bound seat
// is already on turn, a move is scheduled immediately.
func (s *Session) BindBot(binding BotBinding) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bot = &binding
	log.Info().
		Str("session_id", s.id).
		Str("seat_id", binding.SeatID).
		Str("difficulty", string(binding.Difficulty)).
		Msg("bot bound")

	s.maybeScheduleBotLocked()
}

// Pause freezes the clock and cancels any pending bot move.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return fmt.Errorf("cannot pause session in status %q: %w", s.status, ErrInvalidTransition)
	}
	s.status = StatusPaused
	s.clk.Pause()
	s.cancelScheduledLocked()
	s.broadcastStateLocked()
	return nil
}

// Resume unfreezes the clock and re-arms the bot if it is on turn.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPaused {
		return fmt.Errorf("cannot resume session in status %q: %w", s.status, ErrInvalidTransition)
	}
	s.status = StatusActive
	s.clk.Resume()
	s.broadcastStateLocked()
	s.maybeScheduleBotLocked()
	return nil
}

// HandleDisconnect marks the seat disconnected. The seat is retained so a
// reconnecting identity resumes its score and turn position.
func (s *Session) HandleDisconnect(seatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat := s.seatByIDLocked(seatID)
	if seat == nil {
		return
	}
	seat.Connected = false
	log.Info().Str("session_id", s.id).Str("seat_id", seatID).Msg("seat disconnected")
	s.broadcastStateLocked()
}

// Close tears the session down: the clock runner and any scheduled bot move
// are cancelled and the session becomes Finished. Safe to call more than
// once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked()
}

func (s *Session) finishLocked() {
	if s.status == StatusFinished {
		return
	}
	s.status = StatusFinished
	if s.clk != nil {
		s.clk.Pause()
	}
	s.cancelScheduledLocked()
	if s.runnerCancel != nil {
		s.runnerCancel()
		s.runnerCancel = nil
	}
	log.Info().Str("session_id", s.id).Msg("session finished")
}

// handleExpiry is the runner's expiry callback. The runner has already
// paused the clock and stopped; the session transitions to Finished and
// reports the loser exactly once.
func (s *Session) handleExpiry(loser clock.Side) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusFinished {
		return
	}
	s.finishLocked()
	s.broadcaster.Emit(events.New(s.id, events.TypeTimerExpired, events.TimerExpiredPayload{
		SeatID: s.seatIDForSideLocked(loser),
	}))
	s.broadcastStateLocked()
}

// handleTimerSync is the runner's periodic snapshot callback.
func (s *Session) handleTimerSync(snap clock.Snapshot) {
	s.mu.Lock()
	payload := s.timerPayloadLocked(snap)
	s.mu.Unlock()
	s.broadcaster.Emit(events.New(s.id, events.TypeTimerSync, payload))
}

// Snapshot returns the full session state.
func (s *Session) Snapshot() events.SessionStatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// TimerSnapshot returns the clock state, or false when no clock exists yet.
func (s *Session) TimerSnapshot() (events.TimerSyncPayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clk == nil {
		return events.TimerSyncPayload{}, false
	}
	return s.timerPayloadLocked(s.clk.Snapshot()), true
}

func (s *Session) timerPayloadLocked(snap clock.Snapshot) events.TimerSyncPayload {
	return events.TimerSyncPayload{
		Player1RemainingMs: snap.Player1RemainingMs,
		Player2RemainingMs: snap.Player2RemainingMs,
		CurrentSeatID:      s.seatIDForSideLocked(snap.Active),
		IsPaused:           snap.Paused,
	}
}

func (s *Session) snapshotLocked() events.SessionStatePayload {
	seats := make([]events.SeatState, len(s.seats))
	for i, seat := range s.seats {
		seats[i] = events.SeatState{
			ID:        seat.ID,
			Name:      seat.Name,
			Score:     seat.Score,
			Connected: seat.Connected,
			RackSize:  len(s.board.Rack(seat.ID)),
		}
	}

	payload := events.SessionStatePayload{
		ID:       s.id,
		Seats:    seats,
		Board:    s.board.Grid(),
		BagCount: s.board.BagCount(),
		Status:   string(s.status),
	}
	if len(s.seats) > 0 {
		payload.CurrentTurnSeatID = s.seats[s.current%len(s.seats)].ID
	}
	return payload
}

func (s *Session) broadcastStateLocked() {
	s.broadcaster.Emit(events.New(s.id, events.TypeSessionState, s.snapshotLocked()))
}

func (s *Session) seatByIDLocked(id string) *Seat {
	for _, seat := range s.seats {
		if seat.ID == id {
			return seat
		}
	}
	return nil
}

func (s *Session) seatIDForSideLocked(side clock.Side) string {
	if int(side) < len(s.seats) {
		return s.seats[side].ID
	}
	return ""
}
