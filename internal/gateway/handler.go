package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codered/server/internal/bots"
	"github.com/codered/server/internal/events"
	"github.com/codered/server/internal/game"
)

// WebSocketHandler upgrades HTTP requests into session connections.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	registry          *game.Registry
}

// NewWebSocketHandler creates the handler.
func NewWebSocketHandler(cm *ConnectionManager, registry *game.Registry) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		registry:          registry,
	}
}

// HandleSessionConnection admits the caller into a session and upgrades the
// connection. Joining is the admission event: the seat is created (or
// reconnected) and the joiner immediately receives the session snapshot plus
// a timer sync when a clock already exists.
func (h *WebSocketHandler) HandleSessionConnection(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	seatID := r.URL.Query().Get("seat_id")
	if seatID == "" {
		seatID = uuid.New().String()
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "Player-" + seatID[:min(4, len(seatID))]
	}

	conn, err := h.connectionManager.UpgradeConnection(w, r, seatID, sessionID)
	if err != nil {
		log.Error().
			Err(err).
			Str("session_id", sessionID).
			Str("seat_id", seatID).
			Msg("failed to upgrade WebSocket connection")
		return
	}

	session := h.registry.Admit(sessionID, game.Seat{ID: seatID, Name: name})

	conn.sendDirect(events.New(sessionID, events.TypeSessionState, session.Snapshot()))
	if payload, ok := session.TimerSnapshot(); ok {
		conn.sendDirect(events.New(sessionID, events.TypeTimerSync, payload))
	}
}

// HandleConnectionStats reports active connection counts.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	total, sessions := h.connectionManager.ConnectionStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"total_connections": total,
		"active_sessions":   sessions,
	})
}

// RegisterRoutes registers WebSocket routes on mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/session", h.HandleSessionConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}

// clientCommand is the inbound message envelope.
type clientCommand struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type makeMovePayload struct {
	Tiles []events.PlacedTile `json:"tiles"`
	Words []string            `json:"words"`
	Score int                 `json:"score"`
}

type bindBotPayload struct {
	BotID string `json:"bot_id"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// handleClientMessage routes one inbound command to the registry. Failures
// are reported back on the sending connection only; they never mutate state.
func (c *Connection) handleClientMessage(message []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		c.sendError(fmt.Errorf("malformed command: %w", err))
		return
	}

	log.Debug().
		Str("connection_id", c.ID).
		Str("session_id", c.SessionID).
		Str("command", cmd.Type).
		Msg("received client command")

	registry := c.Manager.registry
	var err error

	switch cmd.Type {
	case "session:start":
		err = registry.Start(c.SessionID)

	case "move:make":
		var payload makeMovePayload
		if err = json.Unmarshal(cmd.Data, &payload); err != nil {
			err = fmt.Errorf("malformed move: %w", err)
			break
		}
		err = registry.ApplyMove(c.SessionID, game.Move{
			SeatID: c.SeatID,
			Tiles:  payload.Tiles,
			Words:  payload.Words,
			Score:  payload.Score,
		})

	case "turn:pass":
		err = registry.PassTurn(c.SessionID)

	case "session:pause":
		var session *game.Session
		if session, err = registry.Get(c.SessionID); err == nil {
			err = session.Pause()
		}

	case "session:resume":
		var session *game.Session
		if session, err = registry.Get(c.SessionID); err == nil {
			err = session.Resume()
		}

	case "bot:bind":
		var payload bindBotPayload
		if err = json.Unmarshal(cmd.Data, &payload); err != nil {
			err = fmt.Errorf("malformed bot binding: %w", err)
			break
		}
		var bot bots.Bot
		if bot, err = bots.Lookup(payload.BotID); err != nil {
			break
		}
		// A bot occupies a real seat so turn order and scoring see it.
		registry.Admit(c.SessionID, game.Seat{ID: bot.ID, Name: bot.Name})
		err = registry.BindBot(c.SessionID, game.BotBinding{
			SeatID:     bot.ID,
			Difficulty: bot.Difficulty,
		})

	default:
		err = fmt.Errorf("unknown command %q", cmd.Type)
	}

	if err != nil {
		c.sendError(err)
	}
}

func (c *Connection) sendError(err error) {
	switch {
	case errors.Is(err, game.ErrNotFound),
		errors.Is(err, game.ErrInvalidTransition),
		errors.Is(err, game.ErrOutOfTurn):
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("command rejected")
	default:
		log.Warn().Err(err).Str("connection_id", c.ID).Msg("command failed")
	}

	c.sendDirect(events.New(c.SessionID, events.TypeError, errorPayload{Message: err.Error()}))
}
