package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"poker24/internal/cache"
	"poker24/internal/config"
	"poker24/internal/gateway"
	"poker24/internal/repository"
	"poker24/internal/service"
	"poker24/internal/transport/queue"
	"poker24/internal/transport/rest"
	"poker24/internal/transport/ws"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, reading configuration from the environment")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Ranking store
	userRepo, err := repository.OpenUserRepo(cfg.SQLitePath)
	if err != nil {
		log.Fatal("Failed to open SQLite:", err)
	}
	defer userRepo.Close()
	if err := userRepo.ClearOnline(ctx); err != nil {
		log.Fatal("Failed to reset online users:", err)
	}
	log.Printf("Opened ranking store %s", cfg.SQLitePath)

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	defer wsHub.Close()
	log.Println("WebSocket hub started")

	// Initialize repositories and caches
	gameRepo := repository.NewGameRepo(mongoClient, cfg.MongoDatabase)
	leaderboard := cache.NewLeaderboardCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL)
	rankingSvc := service.NewRankingService(userRepo, leaderboard)
	if err := rankingSvc.Refresh(ctx); err != nil {
		log.Printf("Failed to warm leaderboard cache: %v", err)
	}
	evaluator := service.NewEvaluatorService(cfg.StrictOperands)

	// Every broadcast goes to websocket clients and the Redis event topic
	broadcaster := service.Broadcasters{wsHub, queue.NewPublisher(rdb, cfg.EventTopic)}
	matchmaker := service.NewMatchmaker(service.MatchmakerConfig{
		AdmissionDelay: cfg.AdmissionDelay,
	}, evaluator, rankingSvc, broadcaster)
	matchmaker.SetArchive(gameRepo)

	accountSvc := service.NewAccountService(userRepo, authSvc, matchmaker)
	dispatcher := gateway.NewDispatcher(matchmaker)

	// Command queue consumer
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	consumer := queue.NewConsumer(rdb, dispatcher, cfg.CommandQueue, cfg.ReplyQueue)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Run(runCtx); err != nil {
			log.Printf("Command consumer stopped: %v", err)
		}
	}()

	// Create router with container
	container := &rest.Container{
		AuthService:        authSvc,
		AccountService:     accountSvc,
		RankingService:     rankingSvc,
		Matchmaker:         matchmaker,
		Games:              gameRepo,
		Dispatcher:         dispatcher,
		WSHub:              wsHub,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Printf("Lobby admission delay %s, strict operands %t", cfg.AdmissionDelay, cfg.StrictOperands)
		log.Printf("Commands on %s, replies on %s, events on %s", cfg.CommandQueue, cfg.ReplyQueue, cfg.EventTopic)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST /v1/auth/register")
		log.Println("  POST /v1/auth/logout")
		log.Println("  GET  /v1/users, /v1/users/{name}")
		log.Println("  GET  /v1/leaderboard")
		log.Println("  GET  /v1/lobby")
		log.Println("  GET  /v1/games")
		log.Println("  WS   /v1/ws")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stop()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
