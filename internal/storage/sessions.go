package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/liftcalc/internal/models"
)

// CreateSession inserts a new training session.
func (db *DB) CreateSession(ctx context.Context, s models.Session) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, name, started_at) VALUES ($1, $2, $3, $4)`,
		s.ID, s.UserID, s.Name, s.StartedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var s models.Session
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, started_at FROM sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.UserID, &s.Name, &s.StartedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return &s, nil
}

// QuerySessions returns a user's most recent sessions.
func (db *DB) QuerySessions(ctx context.Context, userID, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, started_at FROM sessions
		 WHERE user_id = $1
		 ORDER BY started_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.StartedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
