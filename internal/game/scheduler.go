package game

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/codered/server/internal/bots"
)

// scheduledAction is a cancellable one-shot delayed bot move. At most one is
// live per session; arming a new one cancels any prior live instance.
type scheduledAction struct {
	timer  clockwork.Timer
	cancel context.CancelFunc
}

// maybeScheduleBotLocked arms a bot move when the current seat is bot-bound.
func (s *Session) maybeScheduleBotLocked() {
	if s.bot == nil || s.status != StatusActive || len(s.seats) == 0 {
		return
	}
	if s.seats[s.current].ID != s.bot.SeatID {
		return
	}
	s.armBotMoveLocked()
}

// armBotMoveLocked replaces any pending bot move with a fresh one delayed by
// the binding's difficulty tier. The generation counter guards against a
// superseded timer that has already fired but not yet re-acquired the lock.
func (s *Session) armBotMoveLocked() {
	s.cancelScheduledLocked()

	delay := bots.MoveDelay(s.bot.Difficulty, s.rng)
	timer := s.wall.NewTimer(delay)
	ctx, cancel := context.WithCancel(context.Background())
	s.action = &scheduledAction{timer: timer, cancel: cancel}
	gen := s.actionGen
	seatID := s.bot.SeatID

	log.Debug().
		Str("session_id", s.id).
		Str("seat_id", seatID).
		Dur("delay", delay).
		Msg("bot move scheduled")

	go func() {
		select {
		case <-timer.Chan():
			s.applyBotMove(gen, seatID)
		case <-ctx.Done():
			stopAndDrainTimer(timer)
		}
	}()
}

// applyBotMove submits the scheduled move through the session's serialized
// entry point. A stale generation or an inconsistent session state makes it
// a no-op: a fired-but-superseded action must never take effect.
func (s *Session) applyBotMove(gen uint64, seatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.actionGen {
		log.Debug().Str("session_id", s.id).Msg("superseded bot move dropped")
		return
	}
	s.action = nil

	// The bot move is a content-free placeholder; word and tile generation
	// belong to an external move-generation collaborator.
	err := s.applyMoveLocked(Move{SeatID: seatID})
	if err != nil && (errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrOutOfTurn)) {
		log.Debug().Err(err).Str("session_id", s.id).Msg("stale bot move dropped")
	}
}

// cancelScheduledLocked cancels any live scheduled action. Idempotent, and
// safe to call after the action has fired or been cancelled.
func (s *Session) cancelScheduledLocked() {
	s.actionGen++
	if s.action == nil {
		return
	}
	s.action.cancel()
	stopAndDrainTimer(s.action.timer)
	s.action = nil
	log.Debug().Str("session_id", s.id).Msg("scheduled bot move cancelled")
}

// stopAndDrainTimer stops a timer and drains its channel so the waiting
// goroutine cannot leak a buffered fire.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
