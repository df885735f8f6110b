package handler

import (
	"net/http"
	"strconv"

	"poker24/internal/repository"
	"poker24/internal/service"
)

// LobbyHandler exposes the running lobby and the game archive
type LobbyHandler struct {
	lobby *service.Supervisor
	games repository.GameRepo
}

// NewLobbyHandler creates a new lobby handler. games may be nil when no archive is configured.
func NewLobbyHandler(lobby *service.Supervisor, games repository.GameRepo) *LobbyHandler {
	return &LobbyHandler{
		lobby: lobby,
		games: games,
	}
}

// Current handles GET /v1/lobby
func (h *LobbyHandler) Current(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.lobby.Current().Snapshot())
}

// Games handles GET /v1/games
func (h *LobbyHandler) Games(w http.ResponseWriter, r *http.Request) {
	if h.games == nil {
		writeError(w, http.StatusServiceUnavailable, "game archive is not configured")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	games, err := h.games.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"games": games})
}
