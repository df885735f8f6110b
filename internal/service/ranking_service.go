package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"poker24/internal/cache"
	"poker24/internal/model"
	"poker24/internal/repository"
)

// RankingService applies finished games to the ranking store
type RankingService struct {
	repo        repository.UserRepo
	leaderboard cache.LeaderboardCache
}

// NewRankingService creates a new ranking service. leaderboard may be nil.
func NewRankingService(repo repository.UserRepo, leaderboard cache.LeaderboardCache) *RankingService {
	return &RankingService{
		repo:        repo,
		leaderboard: leaderboard,
	}
}

// RecordGame counts the game for every player on the final roster, credits the
// winner, then recomputes ranks once. A failed player update does not stop the
// others; all failures are returned together.
func (s *RankingService) RecordGame(ctx context.Context, ev *model.GameEnded) error {
	var errs []error
	for _, p := range ev.Players {
		won := p.Name == ev.Winner
		elapsed := 0.0
		if won {
			elapsed = ev.ElapsedSeconds
		}
		if err := s.repo.UpdatePlayerStats(ctx, p.Name, won, elapsed); err != nil {
			errs = append(errs, err)
		}
	}

	if err := s.repo.RecomputeRanks(ctx); err != nil {
		errs = append(errs, err)
	} else if err := s.Refresh(ctx); err != nil {
		log.Printf("Failed to refresh leaderboard snapshot: %v", err)
	}
	return errors.Join(errs...)
}

// Refresh rewrites the cached leaderboard from the store
func (s *RankingService) Refresh(ctx context.Context) error {
	if s.leaderboard == nil {
		return nil
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	return s.leaderboard.Replace(ctx, users)
}

// Leaderboard returns the top ranked users, from the cache when it answers
func (s *RankingService) Leaderboard(ctx context.Context, limit int) ([]model.User, error) {
	if s.leaderboard != nil {
		users, err := s.leaderboard.GetTop(ctx, limit)
		if err == nil && len(users) > 0 {
			return users, nil
		}
		if err != nil {
			log.Printf("Leaderboard cache unavailable, reading store: %v", err)
		}
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	ranked := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.Rank > 0 {
			ranked = append(ranked, u)
		}
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
