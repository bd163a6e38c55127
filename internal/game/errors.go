package game

import "errors"

// ErrNotFound is returned when an operation references a session id that was
// never created.
var ErrNotFound = errors.New("session not found")

// ErrInvalidTransition is returned when an operation is not legal in the
// session's current status.
var ErrInvalidTransition = errors.New("invalid session transition")

// ErrOutOfTurn is returned when a move is submitted by a seat that is not on
// turn.
var ErrOutOfTurn = errors.New("move out of turn")
