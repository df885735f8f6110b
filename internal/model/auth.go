package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are JWT claims for a logged-in account
type UserClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// RegisterRequest is the request body for register-and-login
type RegisterRequest struct {
	Name         string  `json:"name"`
	Password     string  `json:"password"`
	GamesPlayed  int     `json:"gamesPlayed"`
	GamesWon     int     `json:"gamesWon"`
	AvgTimeToWin float64 `json:"avgTimeToWin"`
}

// AuthResponse is returned after a successful login or registration
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
