package storage

import (
	"context"
	"fmt"

	"github.com/dog-face/snake-game/domain"
)

// boardTables is a closed mapping; board values never reach SQL directly.
var boardTables = map[domain.Board]string{
	domain.BoardSnake: "snake_leaderboard",
	domain.BoardFPS:   "fps_leaderboard",
}

func (s *Store) InsertScore(ctx context.Context, board domain.Board, e *domain.ScoreEntry) error {
	table, ok := boardTables[board]
	if !ok {
		return fmt.Errorf("unknown board %q", board)
	}

	var err error
	if board == domain.BoardFPS {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO `+table+` (id, user_id, username, score, kills, deaths, game_mode, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.ID, e.UserID, e.Username, e.Score, e.Kills, e.Deaths, e.GameMode, e.CreatedAt)
	} else {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO `+table+` (id, user_id, username, score, game_mode, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ID, e.UserID, e.Username, e.Score, e.GameMode, e.CreatedAt)
	}
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *Store) ListScores(ctx context.Context, board domain.Board, gameMode string, offset, limit int) ([]domain.ScoreEntry, int, error) {
	table, ok := boardTables[board]
	if !ok {
		return nil, 0, fmt.Errorf("unknown board %q", board)
	}

	filter := ""
	countArgs := []any{}
	listArgs := []any{offset, limit}
	if gameMode != "" {
		filter = " WHERE game_mode = $3"
		countArgs = append(countArgs, gameMode)
		listArgs = append(listArgs, gameMode)
	}

	var total int
	countFilter := filter
	if gameMode != "" {
		countFilter = " WHERE game_mode = $1"
	}
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM `+table+countFilter, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count scores: %w", err)
	}

	columns := "id, user_id, username, score, 0, 0, game_mode, created_at"
	if board == domain.BoardFPS {
		columns = "id, user_id, username, score, kills, deaths, game_mode, created_at"
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+columns+` FROM `+table+filter+` ORDER BY score DESC, created_at ASC OFFSET $1 LIMIT $2`,
		listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("select scores: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.ScoreEntry, 0, limit)
	for rows.Next() {
		var e domain.ScoreEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Username, &e.Score, &e.Kills, &e.Deaths, &e.GameMode, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan score: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate scores: %w", err)
	}
	return entries, total, nil
}
