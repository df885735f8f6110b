package handler

import (
	"errors"
	"net/http"
	"strconv"

	"poker24/internal/repository"
	"poker24/internal/service"

	"github.com/gorilla/mux"
)

const defaultLeaderboardSize = 20

// UserHandler handles account and ranking queries
type UserHandler struct {
	accounts *service.AccountService
	ranking  *service.RankingService
}

// NewUserHandler creates a new user handler
func NewUserHandler(accounts *service.AccountService, ranking *service.RankingService) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		ranking:  ranking,
	}
}

// Get handles GET /v1/users/{name}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	user, err := h.accounts.GetUser(r.Context(), name)
	if errors.Is(err, repository.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// List handles GET /v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// Leaderboard handles GET /v1/leaderboard
func (h *UserHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	top := defaultLeaderboardSize
	if topStr := r.URL.Query().Get("top"); topStr != "" {
		if n, err := strconv.Atoi(topStr); err == nil && n > 0 {
			top = n
		}
	}

	users, err := h.ranking.Leaderboard(r.Context(), top)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": users})
}
