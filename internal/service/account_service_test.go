package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"poker24/internal/model"
	"poker24/internal/repository"
)

type mockLeaver struct {
	mock.Mock
}

func (m *mockLeaver) Leave(name string) bool {
	return m.Called(name).Bool(0)
}

func newTestAccounts(t *testing.T, lobby LobbyLeaver) (*AccountService, *AuthService, repository.UserRepo) {
	t.Helper()
	repo := openUserRepo(t)
	auth := NewAuthService("test-secret", time.Hour)
	svc := NewAccountService(repo, auth, lobby)
	svc.hashCost = bcrypt.MinCost
	return svc, auth, repo
}

func TestRegisterAndLoginTwice(t *testing.T) {
	svc, auth, _ := newTestAccounts(t, nil)
	ctx := context.Background()
	req := &model.RegisterRequest{Name: "alice", Password: "pw"}

	resp, err := svc.RegisterAndLogin(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, &model.User{Name: "alice", Rank: 1}, resp.User)
	claims, err := auth.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Name)

	_, err = svc.RegisterAndLogin(ctx, req)
	assert.ErrorIs(t, err, repository.ErrUserExists)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestAccounts(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  model.RegisterRequest
		want error
	}{
		{"underscore in name", model.RegisterRequest{Name: "al_ice", Password: "pw"}, ErrInvalidName},
		{"empty name", model.RegisterRequest{Password: "pw"}, ErrInvalidName},
		{"empty password", model.RegisterRequest{Name: "alice"}, ErrInvalidCredentials},
		{"more wins than games", model.RegisterRequest{Name: "alice", Password: "pw", GamesPlayed: 1, GamesWon: 2}, ErrInvalidStats},
		{"negative average", model.RegisterRequest{Name: "alice", Password: "pw", AvgTimeToWin: -1}, ErrInvalidStats},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterAndLogin(ctx, &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// brokenLookupRepo fails every Get, so a session cannot be built after login
type brokenLookupRepo struct {
	repository.UserRepo
}

func (brokenLookupRepo) Get(context.Context, string) (*model.User, error) {
	return nil, errors.New("lookup failed")
}

func TestRegisterAndLoginClearsOnlineWhenSessionFails(t *testing.T) {
	repo := openUserRepo(t)
	svc := NewAccountService(brokenLookupRepo{repo}, NewAuthService("test-secret", time.Hour), nil)
	svc.hashCost = bcrypt.MinCost
	ctx := context.Background()

	_, err := svc.RegisterAndLogin(ctx, &model.RegisterRequest{Name: "alice", Password: "pw"})
	require.Error(t, err)

	online, err := repo.MarkOnline(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, online, "alice should have been marked offline again")
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newTestAccounts(t, nil)
	ctx := context.Background()
	_, err := svc.RegisterAndLogin(ctx, &model.RegisterRequest{Name: "alice", Password: "pw", GamesPlayed: 4, GamesWon: 1, AvgTimeToWin: 9})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alice", "pw")
	assert.ErrorIs(t, err, ErrAlreadyOnline, "registration already logged in")

	require.NoError(t, svc.Logout(ctx, "alice"))

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.Authenticate(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, 4, resp.User.GamesPlayed)
	assert.NotEmpty(t, resp.Token)
}

func TestAuthenticateConcurrentLoginsAdmitOne(t *testing.T) {
	svc, _, _ := newTestAccounts(t, nil)
	ctx := context.Background()
	_, err := svc.RegisterAndLogin(ctx, &model.RegisterRequest{Name: "alice", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, "alice"))

	var (
		wg sync.WaitGroup
		ok atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Authenticate(ctx, "alice", "pw"); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
}

func TestLogoutLeavesLobby(t *testing.T) {
	lobby := &mockLeaver{}
	lobby.On("Leave", "alice").Return(true).Once()
	svc, _, repo := newTestAccounts(t, lobby)
	ctx := context.Background()
	_, err := svc.RegisterAndLogin(ctx, &model.RegisterRequest{Name: "alice", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "alice"))

	lobby.AssertExpectations(t)
	online, err := repo.MarkOnline(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, online, "logout cleared the online flag")
}

func TestGetAndListUsers(t *testing.T) {
	svc, _, _ := newTestAccounts(t, nil)
	ctx := context.Background()
	for _, name := range []string{"bob", "alice"} {
		_, err := svc.RegisterAndLogin(ctx, &model.RegisterRequest{Name: name, Password: "pw"})
		require.NoError(t, err)
	}

	u, err := svc.GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, u.Rank)

	_, err = svc.GetUser(ctx, "carol")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)
}
