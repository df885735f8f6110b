package model

// PlayerRecord is the stats snapshot a player brings into a lobby.
// It is supplied by the client at join time and not re-fetched during the game.
type PlayerRecord struct {
	Name         string  `json:"name" bson:"name"`
	GamesWon     int     `json:"gamesWon" bson:"gamesWon"`
	AvgTimeToWin float64 `json:"avgTimeToWin" bson:"avgTimeToWin"`
}

// User is a persisted account with its derived rank
type User struct {
	Name         string  `json:"name"`
	GamesPlayed  int     `json:"gamesPlayed"`
	GamesWon     int     `json:"gamesWon"`
	AvgTimeToWin float64 `json:"avgTimeToWin"`
	Rank         int     `json:"rank"` // 0 until the next recompute
}

// NewUser is the registration input for an account
type NewUser struct {
	Name         string
	GamesPlayed  int
	GamesWon     int
	AvgTimeToWin float64
}
