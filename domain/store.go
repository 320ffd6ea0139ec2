package domain

import (
	"context"
	"encoding/json"
	"time"
)

type UserStore interface {
	// CreateUser returns ErrConflict when the username or email is taken.
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

type ScoreStore interface {
	InsertScore(ctx context.Context, board Board, e *ScoreEntry) error
	// ListScores returns a page sorted by score descending plus the total
	// row count for the given filter.
	ListScores(ctx context.Context, board Board, gameMode string, offset, limit int) ([]ScoreEntry, int, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	UpdateSession(ctx context.Context, id string, score int, state json.RawMessage) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	// ListActiveSessions returns sessions updated at or after the cutoff.
	ListActiveSessions(ctx context.Context, cutoff time.Time) ([]Session, error)
	// DeleteStaleSessions removes sessions last updated before the cutoff
	// and returns what it removed so callers can notify watchers.
	DeleteStaleSessions(ctx context.Context, cutoff time.Time) ([]Session, error)
}
