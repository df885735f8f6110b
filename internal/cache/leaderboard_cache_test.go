package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poker24/internal/model"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLeaderboardReplaceAndGetTop(t *testing.T) {
	lb := NewLeaderboardCache(newTestClient(t))
	ctx := context.Background()

	users := []model.User{
		{Name: "bob", GamesPlayed: 4, GamesWon: 2, AvgTimeToWin: 8.5, Rank: 2},
		{Name: "alice", GamesPlayed: 3, GamesWon: 3, AvgTimeToWin: 10, Rank: 1},
		{Name: "newbie", Rank: 0},
		{Name: "carol", GamesPlayed: 9, Rank: 3},
	}
	require.NoError(t, lb.Replace(ctx, users))

	top, err := lb.GetTop(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []model.User{users[1], users[0]}, top)

	all, err := lb.GetTop(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3, "unranked users are not cached")
}

func TestLeaderboardReplaceDropsOldEntries(t *testing.T) {
	lb := NewLeaderboardCache(newTestClient(t))
	ctx := context.Background()

	require.NoError(t, lb.Replace(ctx, []model.User{{Name: "gone", Rank: 1}}))
	require.NoError(t, lb.Replace(ctx, []model.User{{Name: "alice", Rank: 1}}))

	top, err := lb.GetTop(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "alice", top[0].Name)
}

func TestLeaderboardEmpty(t *testing.T) {
	lb := NewLeaderboardCache(newTestClient(t))
	ctx := context.Background()

	require.NoError(t, lb.Replace(ctx, nil))
	top, err := lb.GetTop(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, top)
}
