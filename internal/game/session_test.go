package game

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/codered/server/internal/bots"
	"github.com/codered/server/internal/dictionary"
	"github.com/codered/server/internal/events"
)

// sink records every emitted event and exposes them for assertions.
type sink struct {
	mu       sync.Mutex
	all      []events.Event
	targeted map[string][]events.Event
}

func newSink() *sink {
	return &sink{targeted: make(map[string][]events.Event)}
}

func (s *sink) Emit(evt events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = append(s.all, evt)
}

func (s *sink) EmitTo(seatID string, evt events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = append(s.all, evt)
	s.targeted[seatID] = append(s.targeted[seatID], evt)
}

func (s *sink) count(t events.Type) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, evt := range s.all {
		if evt.Type == t {
			n++
		}
	}
	return n
}

func (s *sink) countFor(seatID string, t events.Type) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, evt := range s.targeted[seatID] {
		if evt.Type == t {
			n++
		}
	}
	return n
}

// types returns the emitted event types in order.
func (s *sink) types() []events.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Type, len(s.all))
	for i, evt := range s.all {
		out[i] = evt.Type
	}
	return out
}

func newTestSession(fc clockwork.Clock, out *sink) *Session {
	return newSession("s1", Deps{
		Broadcaster:  out,
		Words:        dictionary.NewService(nil),
		Wall:         fc,
		Budget:       15 * time.Minute,
		PollInterval: 10 * time.Millisecond,
		SyncInterval: time.Hour,
	})
}

// waitUntil polls cond in real time while fake time stands still, since bot
// moves and expiry land from background goroutines.
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition never satisfied within %v", timeout)
}

func TestSession_AdmitFindOrAppendByIdentity(t *testing.T) {
	out := newSink()
	s := newTestSession(clockwork.NewFakeClock(), out)

	s.Admit(Seat{ID: "alice", Name: "Alice"})
	s.Admit(Seat{ID: "bob", Name: "Bob"})
	s.Admit(Seat{ID: "carol", Name: "Carol"}) // over capacity, silent no-op
	s.Admit(Seat{ID: "alice", Name: "Alice"}) // duplicate identity, no-op

	snap := s.Snapshot()
	if len(snap.Seats) != 2 {
		t.Fatalf("seats = %d, want 2", len(snap.Seats))
	}
	if snap.Seats[0].ID != "alice" || snap.Seats[1].ID != "bob" {
		t.Fatalf("unexpected roster: %+v", snap.Seats)
	}

	s.HandleDisconnect("alice")
	if snap := s.Snapshot(); snap.Seats[0].Connected {
		t.Fatalf("alice should be marked disconnected")
	}

	// Reconnection resumes the same seat rather than appending.
	s.Admit(Seat{ID: "alice", Name: "Alice"})
	snap = s.Snapshot()
	if len(snap.Seats) != 2 {
		t.Fatalf("reconnect appended a seat: %+v", snap.Seats)
	}
	if !snap.Seats[0].Connected {
		t.Fatalf("alice should be reconnected")
	}
}

func TestSession_StartIsIdempotent(t *testing.T) {
	out := newSink()
	s := newTestSession(clockwork.NewFakeClock(), out)
	s.Admit(Seat{ID: "alice"})
	s.Admit(Seat{ID: "bob"})

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	first := s.Snapshot()
	if first.Status != string(StatusActive) {
		t.Fatalf("status = %s, want active", first.Status)
	}
	if _, ok := s.TimerSnapshot(); !ok {
		t.Fatalf("expected a clock after start")
	}

	// Duplicate start signals must not re-randomize the starting seat or
	// reset the clock.
	for i := 0; i < 10; i++ {
		if err := s.Start(); err != nil {
			t.Fatalf("repeated start: %v", err)
		}
	}
	if again := s.Snapshot(); again.CurrentTurnSeatID != first.CurrentTurnSeatID {
		t.Fatalf("starting seat changed: %s -> %s", first.CurrentTurnSeatID, again.CurrentTurnSeatID)
	}

	s.Close()
}

func TestSession_StartRequiresASeat(t *testing.T) {
	s := newTestSession(clockwork.NewFakeClock(), newSink())
	if err := s.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestSession_PassTurnParity(t *testing.T) {
	out := newSink()
	s := newTestSession(clockwork.NewFakeClock(), out)
	s.Admit(Seat{ID: "alice"})
	s.Admit(Seat{ID: "bob"})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Close()

	start := s.Snapshot().CurrentTurnSeatID

	if err := s.PassTurn(); err != nil {
		t.Fatalf("pass 1: %v", err)
	}
	if cur := s.Snapshot().CurrentTurnSeatID; cur == start {
		t.Fatalf("turn did not move off %s", start)
	}

	if err := s.PassTurn(); err != nil {
		t.Fatalf("pass 2: %v", err)
	}
	if cur := s.Snapshot().CurrentTurnSeatID; cur != start {
		t.Fatalf("after 2 passes current = %s, want %s", cur, start)
	}

	if err := s.PassTurn(); err != nil {
		t.Fatalf("pass 3: %v", err)
	}
	if cur := s.Snapshot().CurrentTurnSeatID; cur == start {
		t.Fatalf("after 3 passes current should differ from %s", start)
	}

	if got := out.count(events.TypeTurnChanged); got != 3 {
		t.Fatalf("turn:changed count = %d, want 3", got)
	}
}

func TestSession_ApplyMoveRejectsOutOfTurn(t *testing.T) {
	out := newSink()
	s := newTestSession(clockwork.NewFakeClock(), out)
	s.Admit(Seat{ID: "alice"})
	s.Admit(Seat{ID: "bob"})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Close()

	current := s.Snapshot().CurrentTurnSeatID
	other := "alice"
	if current == "alice" {
		other = "bob"
	}

	before := out.count(events.TypeMoveMade)
	err := s.ApplyMove(Move{SeatID: other})
	if !errors.Is(err, ErrOutOfTurn) {
		t.Fatalf("err = %v, want ErrOutOfTurn", err)
	}
	if s.Snapshot().CurrentTurnSeatID != current {
		t.Fatalf("rejected move advanced the turn")
	}
	if out.count(events.TypeMoveMade) != before {
		t.Fatalf("rejected move was broadcast")
	}
}

func TestSession_ApplyMoveScoresAndAdvances(t *testing.T) {
	out := newSink()
	s := newTestSession(clockwork.NewFakeClock(), out)
	s.Admit(Seat{ID: "alice"})
	s.Admit(Seat{ID: "bob"})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Close()

	mover := s.Snapshot().CurrentTurnSeatID
	err := s.ApplyMove(Move{
		SeatID: mover,
		Tiles: []events.PlacedTile{
			{Row: 7, Col: 7, Letter: "G"},
			{Row: 7, Col: 8, Letter: "O"},
		},
		Words: []string{"GO", "ZZZZQ"},
	})
	if err != nil {
		t.Fatalf("apply move: %v", err)
	}

	snap := s.Snapshot()
	if snap.CurrentTurnSeatID == mover {
		t.Fatalf("turn did not advance")
	}
	for _, seat := range snap.Seats {
		if seat.ID == mover && seat.Score != 2 {
			t.Fatalf("mover score = %d, want 2 (one point per tile)", seat.Score)
		}
	}

	// Broadcast ordering: the move echo precedes the turn change.
	var sawMove bool
	for _, tp := range out.types() {
		if tp == events.TypeMoveMade {
			sawMove = true
		}
		if tp == events.TypeTurnChanged && !sawMove {
			t.Fatalf("turn:changed emitted before move:made")
		}
	}

	if got := out.countFor(mover, events.TypeMoveValidated); got != 1 {
		t.Fatalf("move:validated to mover = %d, want 1", got)
	}
}

func TestSession_ApplyMoveOnFinishedSession(t *testing.T) {
	out := newSink()
	s := newTestSession(clockwork.NewFakeClock(), out)
	s.Admit(Seat{ID: "alice"})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Close()

	before := out.count(events.TypeMoveMade)
	if err := s.ApplyMove(Move{SeatID: "alice"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if out.count(events.TypeMoveMade) != before {
		t.Fatalf("finished session broadcast a move")
	}
}

func TestSession_BotMovesWithinTierDelay(t *testing.T) {
	fc := clockwork.NewFakeClock()
	out := newSink()
	s := newTestSession(fc, out)
	s.Admit(Seat{ID: "alice"})
	s.Admit(Seat{ID: "bot-beginner", Name: "Robo Rookie"})
	s.BindBot(BotBinding{SeatID: "bot-beginner", Difficulty: bots.DifficultyBeginner})

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Close()

	if s.Snapshot().CurrentTurnSeatID != "bot-beginner" {
		if err := s.PassTurn(); err != nil {
			t.Fatalf("pass: %v", err)
		}
	}

	// Beginner delays are drawn from [2.0s, 3.0s): nothing may fire early.
	fc.Advance(1999 * time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	if got := out.count(events.TypeMoveMade); got != 0 {
		t.Fatalf("bot moved after %d events before its minimum delay", got)
	}

	fc.Advance(1001 * time.Millisecond)
	waitUntil(t, 2*time.Second, func() bool {
		return out.count(events.TypeMoveMade) == 1
	})

	if cur := s.Snapshot().CurrentTurnSeatID; cur != "alice" {
		t.Fatalf("turn after bot move = %s, want alice", cur)
	}

	// Exactly one advancement resulted from the scheduled move.
	time.Sleep(50 * time.Millisecond)
	if got := out.count(events.TypeMoveMade); got != 1 {
		t.Fatalf("bot moved %d times, want 1", got)
	}
}

func TestSession_RearmingCancelsPriorAction(t *testing.T) {
	fc := clockwork.NewFakeClock()
	out := newSink()
	s := newTestSession(fc, out)
	s.Admit(Seat{ID: "alice"})
	s.Admit(Seat{ID: "bot-medium", Name: "LexiBot"})
	s.BindBot(BotBinding{SeatID: "bot-medium", Difficulty: bots.DifficultyMedium})

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Close()

	if s.Snapshot().CurrentTurnSeatID != "bot-medium" {
		if err := s.PassTurn(); err != nil {
			t.Fatalf("pass: %v", err)
		}
	}

	// Re-binding re-arms the scheduled move; the superseded one must
	// never apply.
	s.BindBot(BotBinding{SeatID: "bot-medium", Difficulty: bots.DifficultyMedium})
	s.BindBot(BotBinding{SeatID: "bot-medium", Difficulty: bots.DifficultyMedium})

	fc.Advance(5 * time.Second)
	waitUntil(t, 2*time.Second, func() bool {
		return out.count(events.TypeMoveMade) >= 1
	})

	time.Sleep(50 * time.Millisecond)
	if got := out.count(events.TypeMoveMade); got != 1 {
		t.Fatalf("bot moves applied = %d, want exactly 1", got)
	}
}

func TestSession_ExpiryFinishesSessionOnce(t *testing.T) {
	fc := clockwork.NewFakeClock()
	out := newSink()
	s := newSession("s1", Deps{
		Broadcaster:  out,
		Words:        dictionary.NewService(nil),
		Wall:         fc,
		Budget:       100 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
		SyncInterval: time.Hour,
	})
	s.Admit(Seat{ID: "alice"})
	s.Admit(Seat{ID: "bob"})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Let the runner arm its poll ticker, then blow through the budget.
	fc.BlockUntil(1)
	fc.Advance(300 * time.Millisecond)

	waitUntil(t, 2*time.Second, func() bool {
		return out.count(events.TypeTimerExpired) == 1
	})

	loser := s.Snapshot().CurrentTurnSeatID
	if snap := s.Snapshot(); snap.Status != string(StatusFinished) {
		t.Fatalf("status = %s, want finished", snap.Status)
	}
	if loser != "alice" && loser != "bob" {
		t.Fatalf("implausible loser %q", loser)
	}

	if err := s.ApplyMove(Move{SeatID: loser}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}

	fc.Advance(time.Hour)
	time.Sleep(50 * time.Millisecond)
	if got := out.count(events.TypeTimerExpired); got != 1 {
		t.Fatalf("timer:expired emitted %d times, want once", got)
	}
}
