package model

import "time"

// LobbySnapshot is a point-in-time view of the active lobby
type LobbySnapshot struct {
	SessionID     string         `json:"sessionId"`
	Numbers       []int          `json:"numbers,omitempty"` // Hidden until the game starts
	Players       []PlayerRecord `json:"players"`
	Started       bool           `json:"started"`
	Ended         bool           `json:"ended"`
	DeadlineFired bool           `json:"deadlineFired"`
	CreatedAt     time.Time      `json:"createdAt"`
}
