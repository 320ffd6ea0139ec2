package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dog-face/snake-game/domain"
)

const sessionColumns = `id, user_id, username, score, game_mode, game_state, started_at, last_updated_at`

func (s *Store) CreateSession(ctx context.Context, sess *domain.Session) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO active_sessions (`+sessionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sess.ID, sess.UserID, sess.Username, sess.Score, sess.GameMode,
		sess.GameState, sess.StartedAt, sess.LastUpdatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM active_sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if err != nil {
		if notFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	return sess, nil
}

func (s *Store) UpdateSession(ctx context.Context, id string, score int, state json.RawMessage) (*domain.Session, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE active_sessions
		 SET score = $2, game_state = $3, last_updated_at = now()
		 WHERE id = $1
		 RETURNING `+sessionColumns, id, score, state)
	sess, err := scanSession(row)
	if err != nil {
		if notFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update session: %w", err)
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM active_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) ListActiveSessions(ctx context.Context, cutoff time.Time) ([]domain.Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM active_sessions
		 WHERE last_updated_at >= $1
		 ORDER BY started_at ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select active sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (s *Store) DeleteStaleSessions(ctx context.Context, cutoff time.Time) ([]domain.Session, error) {
	rows, err := s.pool.Query(ctx,
		`DELETE FROM active_sessions
		 WHERE last_updated_at < $1
		 RETURNING `+sessionColumns, cutoff)
	if err != nil {
		return nil, fmt.Errorf("delete stale sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var sess domain.Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.Username, &sess.Score,
		&sess.GameMode, &sess.GameState, &sess.StartedAt, &sess.LastUpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func collectSessions(rows pgx.Rows) ([]domain.Session, error) {
	var sessions []domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}
