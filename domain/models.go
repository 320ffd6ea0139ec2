package domain

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Board selects one of the per-game leaderboards.
type Board string

const (
	BoardSnake Board = "snake"
	BoardFPS   Board = "fps"
)

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ScoreEntry is one leaderboard row. Kills and deaths are only meaningful
// on the fps board and are omitted when zero.
type ScoreEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	Kills     int       `json:"kills,omitempty"`
	Deaths    int       `json:"deaths,omitempty"`
	GameMode  string    `json:"gameMode"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is a live watchable game. Its id doubles as the presence entity
// id that spectators subscribe to.
type Session struct {
	ID            string          `json:"id"`
	UserID        string          `json:"-"`
	Username      string          `json:"username"`
	Score         int             `json:"score"`
	GameMode      string          `json:"gameMode"`
	GameState     json.RawMessage `json:"gameState,omitempty"`
	StartedAt     time.Time       `json:"startedAt"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}
