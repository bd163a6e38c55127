package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type identifies a session event.
type Type string

const (
	TypeSessionState  Type = "session:state"
	TypeTurnChanged   Type = "turn:changed"
	TypeMoveMade      Type = "move:made"
	TypeMoveValidated Type = "move:validated"
	TypeTimerSync     Type = "timer:sync"
	TypeTimerExpired  Type = "timer:expired"
	TypeError         Type = "error"
)

// Event is the envelope every outbound session event travels in, over the
// WebSocket gateway and the NATS relay alike.
type Event struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New wraps payload in an envelope. It panics only if payload is not
// JSON-marshalable, which would be a programming error in a payload type.
func New(sessionID string, t Type, payload any) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("marshal %s payload: %v", t, err))
	}
	return Event{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Type:      t,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
