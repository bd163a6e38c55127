package events

import (
	"encoding/json"
	"testing"
)

func TestNewFillsEnvelope(t *testing.T) {
	evt := New("s1", TypeTurnChanged, TurnChangedPayload{SeatID: "alice"})

	if evt.ID == "" {
		t.Fatal("envelope id not generated")
	}
	if evt.SessionID != "s1" || evt.Type != TypeTurnChanged {
		t.Fatalf("unexpected envelope: %+v", evt)
	}
	if evt.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}

	var payload TurnChangedPayload
	if err := json.Unmarshal(evt.Data, &payload); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if payload.SeatID != "alice" {
		t.Fatalf("seat id = %q, want alice", payload.SeatID)
	}
}

func TestEventsAreDistinct(t *testing.T) {
	a := New("s1", TypeSessionState, SessionStatePayload{ID: "s1"})
	b := New("s1", TypeSessionState, SessionStatePayload{ID: "s1"})
	if a.ID == b.ID {
		t.Fatal("two events share an id")
	}
}
