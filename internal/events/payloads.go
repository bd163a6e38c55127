package events

// Payload types shared between the game core, gateway, and relay.

// SeatState is one participant slot inside a session snapshot.
type SeatState struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
	RackSize  int    `json:"rack_size"`
}

// SessionStatePayload is the full session snapshot for session:state.
type SessionStatePayload struct {
	ID                string      `json:"id"`
	Seats             []SeatState `json:"seats"`
	Board             [][]string  `json:"board"`
	CurrentTurnSeatID string      `json:"current_turn_seat_id,omitempty"`
	BagCount          int         `json:"bag_count"`
	Status            string      `json:"status"`
}

// TurnChangedPayload identifies the newly current seat.
type TurnChangedPayload struct {
	SeatID string `json:"seat_id"`
}

// PlacedTile is one tile of a move.
type PlacedTile struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Letter string `json:"letter"`
}

// MoveMadePayload echoes a submitted move to the whole session.
type MoveMadePayload struct {
	SeatID string       `json:"seat_id"`
	Tiles  []PlacedTile `json:"tiles"`
	Words  []string     `json:"words"`
	Score  int          `json:"score"`
}

// MoveValidatedPayload is sent to the mover only.
type MoveValidatedPayload struct {
	IsValid bool     `json:"is_valid"`
	Reason  string   `json:"reason,omitempty"`
	Score   int      `json:"score"`
	Words   []string `json:"words"`
}

// TimerSyncPayload is the periodic authoritative clock broadcast.
type TimerSyncPayload struct {
	Player1RemainingMs int64  `json:"player1_remaining_ms"`
	Player2RemainingMs int64  `json:"player2_remaining_ms"`
	CurrentSeatID      string `json:"current_seat_id"`
	IsPaused           bool   `json:"is_paused"`
}

// TimerExpiredPayload identifies the seat whose budget ran out. Emitted
// exactly once per session.
type TimerExpiredPayload struct {
	SeatID string `json:"seat_id"`
}
