package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"poker24/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	rankKey  = "leaderboard:rank"
	statsKey = "leaderboard:stats"
)

// LeaderboardCache keeps a Redis snapshot of the ranking table.
// Members of the ZSET are user names scored by rank, so rank 1 sorts first.
type LeaderboardCache interface {
	Replace(ctx context.Context, users []model.User) error
	GetTop(ctx context.Context, limit int) ([]model.User, error)
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

// Replace swaps the whole snapshot atomically. Unranked users are left out.
func (c *leaderboardCache) Replace(ctx context.Context, users []model.User) error {
	members := make([]redis.Z, 0, len(users))
	stats := make(map[string]any, len(users))
	for _, u := range users {
		if u.Rank <= 0 {
			continue
		}
		data, err := json.Marshal(u)
		if err != nil {
			return err
		}
		members = append(members, redis.Z{Score: float64(u.Rank), Member: u.Name})
		stats[u.Name] = data
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, rankKey, statsKey)
		if len(members) > 0 {
			pipe.ZAdd(ctx, rankKey, members...)
			pipe.HSet(ctx, statsKey, stats)
		}
		return nil
	})
	return err
}

func (c *leaderboardCache) GetTop(ctx context.Context, limit int) ([]model.User, error) {
	names, err := c.client.ZRange(ctx, rankKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []model.User{}, nil
	}

	values, err := c.client.HMGet(ctx, statsKey, names...).Result()
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("leaderboard stats missing for %s", names[i])
		}
		var u model.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
