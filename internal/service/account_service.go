package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"poker24/internal/model"
	"poker24/internal/protocol"
	"poker24/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidName   = errors.New("invalid name")
	ErrInvalidStats  = errors.New("invalid player stats")
	ErrAlreadyOnline = errors.New("user is already logged in")
)

// LobbyLeaver removes a player from the running lobby
type LobbyLeaver interface {
	Leave(name string) bool
}

// AccountService handles account lookup, login and logout
type AccountService struct {
	repo     repository.UserRepo
	authSvc  *AuthService
	lobby    LobbyLeaver
	hashCost int
}

// NewAccountService creates a new account service
func NewAccountService(repo repository.UserRepo, authSvc *AuthService, lobby LobbyLeaver) *AccountService {
	return &AccountService{
		repo:     repo,
		authSvc:  authSvc,
		lobby:    lobby,
		hashCost: bcrypt.DefaultCost,
	}
}

// GetUser returns one account, or repository.ErrUserNotFound
func (s *AccountService) GetUser(ctx context.Context, name string) (*model.User, error) {
	return s.repo.Get(ctx, name)
}

// ListUsers returns every account in rank order, unranked accounts last
func (s *AccountService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

// Authenticate checks the password and logs the user in. A user that is
// already online cannot log in a second time.
func (s *AccountService) Authenticate(ctx context.Context, name, password string) (*model.AuthResponse, error) {
	hash, err := s.repo.PasswordHash(ctx, name)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	online, err := s.repo.MarkOnline(ctx, name)
	if err != nil {
		return nil, err
	}
	if !online {
		return nil, ErrAlreadyOnline
	}

	resp, err := s.session(ctx, name)
	if err != nil {
		return nil, err
	}
	log.Printf("User %s logged in", name)
	return resp, nil
}

// RegisterAndLogin creates an account with the given stats and logs it in
func (s *AccountService) RegisterAndLogin(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	if !protocol.ValidName(req.Name) {
		return nil, ErrInvalidName
	}
	if req.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if req.GamesPlayed < 0 || req.GamesWon < 0 || req.GamesWon > req.GamesPlayed || req.AvgTimeToWin < 0 {
		return nil, ErrInvalidStats
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.NewUser{
		Name:         req.Name,
		GamesPlayed:  req.GamesPlayed,
		GamesWon:     req.GamesWon,
		AvgTimeToWin: req.AvgTimeToWin,
	}
	if err := s.repo.Register(ctx, user, string(hash)); err != nil {
		return nil, err
	}

	log.Printf("User %s registered", req.Name)
	return s.session(ctx, req.Name)
}

// Logout takes the user out of the lobby and clears the online flag
func (s *AccountService) Logout(ctx context.Context, name string) error {
	if s.lobby != nil {
		s.lobby.Leave(name)
	}
	if err := s.repo.MarkOffline(ctx, name); err != nil {
		return err
	}
	log.Printf("User %s logged out", name)
	return nil
}

// session issues a token for a user already marked online. On failure the
// online flag is cleared again so the user can retry.
func (s *AccountService) session(ctx context.Context, name string) (*model.AuthResponse, error) {
	resp, err := s.newSession(ctx, name)
	if err != nil {
		if offErr := s.repo.MarkOffline(ctx, name); offErr != nil {
			log.Printf("Failed to roll back login of %s: %v", name, offErr)
		}
		return nil, err
	}
	return resp, nil
}

func (s *AccountService) newSession(ctx context.Context, name string) (*model.AuthResponse, error) {
	token, err := s.authSvc.IssueToken(name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user, err := s.repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{Token: token, User: user}, nil
}
