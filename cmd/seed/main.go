package main

import (
	"context"
	"errors"
	"log"
	"time"

	"poker24/internal/config"
	"poker24/internal/model"
	"poker24/internal/repository"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Every demo account uses this password
const demoPassword = "password123"

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.OpenUserRepo(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer repo.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	users := []model.NewUser{
		{Name: "alice", GamesPlayed: 12, GamesWon: 7, AvgTimeToWin: 18.4},
		{Name: "bob", GamesPlayed: 9, GamesWon: 3, AvgTimeToWin: 25.1},
		{Name: "carol", GamesPlayed: 15, GamesWon: 7, AvgTimeToWin: 16.9},
		{Name: "dave", GamesPlayed: 4, GamesWon: 0, AvgTimeToWin: 0},
		{Name: "erin", GamesPlayed: 0, GamesWon: 0, AvgTimeToWin: 0},
	}

	created := 0
	for i := range users {
		err := repo.Register(ctx, &users[i], string(hash))
		if errors.Is(err, repository.ErrUserExists) {
			log.Printf("Skipping %s, already registered", users[i].Name)
			continue
		}
		if err != nil {
			log.Fatalf("Failed to register %s: %v", users[i].Name, err)
		}
		created++
	}

	// Registration logs users in; seeded accounts start offline
	if err := repo.ClearOnline(ctx); err != nil {
		log.Fatalf("Failed to clear online users: %v", err)
	}
	if err := repo.RecomputeRanks(ctx); err != nil {
		log.Fatalf("Failed to recompute ranks: %v", err)
	}

	log.Printf("Seeded %d demo accounts into %s (password %q)", created, cfg.SQLitePath, demoPassword)
}
