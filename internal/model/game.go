package model

import "time"

// GameStarted is emitted once when a lobby starts playing
type GameStarted struct {
	SessionID string
	Numbers   []int
	Players   []PlayerRecord
	StartedAt time.Time
}

// GameEnded is emitted once when the first correct answer arrives
type GameEnded struct {
	SessionID      string
	Numbers        []int
	Players        []PlayerRecord
	Winner         string
	Expression     string
	ElapsedSeconds float64
	StartedAt      time.Time
	EndedAt        time.Time
}

// GameRecord is the archived form of a finished game
type GameRecord struct {
	ID             string         `json:"id" bson:"_id"`
	Numbers        []int          `json:"numbers" bson:"numbers"`
	Players        []PlayerRecord `json:"players" bson:"players"`
	Winner         string         `json:"winner" bson:"winner"`
	Expression     string         `json:"expression" bson:"expression"`
	ElapsedSeconds float64        `json:"elapsedSeconds" bson:"elapsedSeconds"`
	StartedAt      time.Time      `json:"startedAt" bson:"startedAt"`
	EndedAt        time.Time      `json:"endedAt" bson:"endedAt"`
}

// NewGameRecord builds the archive document for a finished game
func NewGameRecord(ev *GameEnded) *GameRecord {
	return &GameRecord{
		ID:             ev.SessionID,
		Numbers:        ev.Numbers,
		Players:        ev.Players,
		Winner:         ev.Winner,
		Expression:     ev.Expression,
		ElapsedSeconds: ev.ElapsedSeconds,
		StartedAt:      ev.StartedAt,
		EndedAt:        ev.EndedAt,
	}
}
