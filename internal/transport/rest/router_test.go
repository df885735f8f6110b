package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poker24/internal/gateway"
	"poker24/internal/model"
	"poker24/internal/repository"
	"poker24/internal/service"
	"poker24/internal/transport/ws"
)

type fakeGames struct {
	games []model.GameRecord
}

func (f *fakeGames) Create(_ context.Context, g *model.GameRecord) error {
	f.games = append([]model.GameRecord{*g}, f.games...)
	return nil
}

func (f *fakeGames) GetByID(_ context.Context, id string) (*model.GameRecord, error) {
	for _, g := range f.games {
		if g.ID == id {
			return &g, nil
		}
	}
	return nil, nil
}

func (f *fakeGames) ListRecent(_ context.Context, limit int) ([]model.GameRecord, error) {
	if limit > 0 && limit < len(f.games) {
		return f.games[:limit], nil
	}
	return f.games, nil
}

type apiFixture struct {
	handler http.Handler
	mm      *service.Matchmaker
	games   *fakeGames
}

func newFixture(t *testing.T) *apiFixture {
	t.Helper()
	repo, err := repository.OpenUserRepo(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	hub := ws.NewHub()
	t.Cleanup(hub.Close)

	auth := service.NewAuthService("secret", time.Hour)
	ranking := service.NewRankingService(repo, nil)
	mm := service.NewMatchmaker(service.MatchmakerConfig{
		AdmissionDelay: time.Hour,
		Dealer:         func() []int { return []int{1, 2, 3, 4} },
	}, service.NewEvaluatorService(true), ranking, hub)
	games := &fakeGames{}
	mm.SetArchive(games)
	accounts := service.NewAccountService(repo, auth, mm)

	return &apiFixture{
		handler: NewRouter(&Container{
			AuthService:    auth,
			AccountService: accounts,
			RankingService: ranking,
			Matchmaker:     mm,
			Games:          games,
			Dispatcher:     gateway.NewDispatcher(mm),
			WSHub:          hub,
		}),
		mm:    mm,
		games: games,
	}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","connections":0}`, rec.Body.String())
}

func TestRegisterLoginLogout(t *testing.T) {
	f := newFixture(t)
	register := model.RegisterRequest{Name: "alice", Password: "pw", GamesPlayed: 2, GamesWon: 1, AvgTimeToWin: 8}

	rec := f.do(t, http.MethodPost, "/v1/auth/register", register, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[model.AuthResponse](t, rec)
	assert.Equal(t, 1, resp.User.Rank)
	token := resp.Token

	rec = f.do(t, http.MethodPost, "/v1/auth/register", register, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/auth/login", model.LoginRequest{Name: "alice", Password: "pw"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code, "still online from registration")

	rec = f.do(t, http.MethodPost, "/v1/auth/logout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = f.do(t, http.MethodPost, "/v1/auth/logout", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/auth/login", model.LoginRequest{Name: "alice", Password: "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = f.do(t, http.MethodPost, "/v1/auth/login", model.LoginRequest{Name: "alice", Password: "pw"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/auth/register", model.RegisterRequest{Name: "a_b", Password: "pw"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUsersAndLeaderboard(t *testing.T) {
	f := newFixture(t)
	for _, req := range []model.RegisterRequest{
		{Name: "bob", Password: "pw", GamesPlayed: 5, GamesWon: 1},
		{Name: "alice", Password: "pw", GamesPlayed: 5, GamesWon: 3},
		{Name: "carol", Password: "pw"},
	} {
		require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/v1/auth/register", req, "").Code)
	}

	rec := f.do(t, http.MethodGet, "/v1/users/alice", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.User{Name: "alice", GamesPlayed: 5, GamesWon: 3, Rank: 1}, decode[model.User](t, rec))

	rec = f.do(t, http.MethodGet, "/v1/users/nobody", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/users", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[map[string][]model.User](t, rec)["users"]
	require.Len(t, users, 3)
	assert.Equal(t, []string{"alice", "bob", "carol"}, []string{users[0].Name, users[1].Name, users[2].Name})

	rec = f.do(t, http.MethodGet, "/v1/leaderboard?top=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]model.User](t, rec)["leaderboard"], 2)
}

func TestLobbyAndGames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.do(t, http.MethodGet, "/v1/lobby", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[model.LobbySnapshot](t, rec)
	assert.Empty(t, snap.Players)
	assert.Empty(t, snap.Numbers, "numbers stay hidden until the game starts")

	for _, name := range []string{"a", "b", "c", "d"} {
		f.mm.Join(ctx, model.PlayerRecord{Name: name})
	}
	rec = f.do(t, http.MethodGet, "/v1/lobby", nil, "")
	snap = decode[model.LobbySnapshot](t, rec)
	assert.True(t, snap.Started)
	assert.Equal(t, []int{1, 2, 3, 4}, snap.Numbers)

	require.True(t, f.mm.SubmitAnswer(ctx, "a", "1*2*3*4", 6).Correct)

	rec = f.do(t, http.MethodGet, "/v1/games?limit=5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	games := decode[map[string][]model.GameRecord](t, rec)["games"]
	require.Len(t, games, 1)
	assert.Equal(t, "a", games[0].Winner)
	assert.Equal(t, snap.SessionID, games[0].ID)

	rec = f.do(t, http.MethodGet, "/v1/games?limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodOptions, "/v1/auth/logout", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
