package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codered/server/internal/bots"
	"github.com/codered/server/internal/game"
)

// Handler serves the REST surface: bot catalog, explicit session creation,
// bot binding, and read-only snapshots.
type Handler struct {
	registry *game.Registry
}

// NewHandler creates the REST handler.
func NewHandler(registry *game.Registry) *Handler {
	return &Handler{registry: registry}
}

// RegisterRoutes registers the REST routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /bots", h.listBots)
	mux.HandleFunc("POST /games", h.createSession)
	mux.HandleFunc("GET /games/{id}", h.getSession)
	mux.HandleFunc("GET /games/{id}/timer", h.getTimer)
	mux.HandleFunc("POST /games/{id}/bot/{botID}", h.bindBot)
}

func (h *Handler) listBots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"bots": bots.Catalog})
}

type createSessionRequest struct {
	ID string `json:"id"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.Body != nil {
		// An empty or absent body means a generated id.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	session := h.registry.Create(req.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"id": session.ID()})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.registry.Snapshot(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) getTimer(w http.ResponseWriter, r *http.Request) {
	payload, ok, err := h.registry.TimerSnapshot(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session has no clock yet"})
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) bindBot(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if _, err := h.registry.Get(sessionID); err != nil {
		writeError(w, err)
		return
	}

	bot, err := bots.Lookup(r.PathValue("botID"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "bot not found"})
		return
	}

	h.registry.Admit(sessionID, game.Seat{ID: bot.ID, Name: bot.Name})
	if err := h.registry.BindBot(sessionID, game.BotBinding{
		SeatID:     bot.ID,
		Difficulty: bot.Difficulty,
	}); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrInvalidTransition), errors.Is(err, game.ErrOutOfTurn):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
