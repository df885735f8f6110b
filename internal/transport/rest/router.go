package rest

import (
	"encoding/json"
	"net/http"

	"poker24/internal/gateway"
	"poker24/internal/repository"
	"poker24/internal/service"
	"poker24/internal/transport/rest/handler"
	"poker24/internal/transport/rest/middleware"
	"poker24/internal/transport/ws"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	AccountService *service.AccountService
	RankingService *service.RankingService
	Matchmaker     *service.Matchmaker
	Games          repository.GameRepo // Optional
	Dispatcher     *gateway.Dispatcher
	WSHub          *ws.Hub

	CORSAllowedOrigins string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AccountService)
	userHandler := handler.NewUserHandler(c.AccountService, c.RankingService)
	lobbyHandler := handler.NewLobbyHandler(c.Matchmaker.Lobby(), c.Games)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Dispatcher)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSAllowedOrigins))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	v1.HandleFunc("/users", userHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/users/{name}", userHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/leaderboard", userHandler.Leaderboard).Methods("GET", "OPTIONS")
	v1.HandleFunc("/lobby", lobbyHandler.Current).Methods("GET", "OPTIONS")
	v1.HandleFunc("/games", lobbyHandler.Games).Methods("GET", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws", wsHandler.GameWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "ok",
			"connections": c.WSHub.Count(),
		})
	}).Methods("GET")

	// User routes (require a session token)
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
