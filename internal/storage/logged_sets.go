package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/liftcalc/internal/models"
)

const setColumns = `id, session_id, exercise_id, weight_kg, reps, rpe, is_warmup,
	bodyweight_data, target, is_last_set, quality, created_at`

// InsertSet inserts a logged set. The bodyweight load is stored as a JSON blob
// with canonical camelCase keys.
func (db *DB) InsertSet(ctx context.Context, s models.LoggedSet) error {
	bw, err := EncodeBodyweight(s.Bodyweight)
	if err != nil {
		return err
	}
	target, err := encodeTarget(s.Target)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO logged_sets (`+setColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		s.ID, s.SessionID, s.ExerciseID, s.WeightKg, s.Reps, s.RPE, s.IsWarmup,
		bw, target, s.IsLastSet, string(s.Quality), s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting logged set: %w", err)
	}
	return nil
}

// UpdateSet replaces the raw fields, prescription and cached quality of a set.
func (db *DB) UpdateSet(ctx context.Context, s models.LoggedSet) error {
	bw, err := EncodeBodyweight(s.Bodyweight)
	if err != nil {
		return err
	}
	target, err := encodeTarget(s.Target)
	if err != nil {
		return err
	}
	tag, err := db.Pool.Exec(ctx,
		`UPDATE logged_sets SET
		 exercise_id = $2, weight_kg = $3, reps = $4, rpe = $5, is_warmup = $6,
		 bodyweight_data = $7, target = $8, is_last_set = $9, quality = $10
		 WHERE id = $1`,
		s.ID, s.ExerciseID, s.WeightKg, s.Reps, s.RPE, s.IsWarmup, bw, target, s.IsLastSet, string(s.Quality))
	if err != nil {
		return fmt.Errorf("updating logged set %s: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set %s: %w", s.ID, models.ErrNotFound)
	}
	return nil
}

// GetSet retrieves a set by ID.
func (db *DB) GetSet(ctx context.Context, id uuid.UUID) (*models.LoggedSet, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+setColumns+` FROM logged_sets WHERE id = $1`, id)
	s, err := scanSet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("set %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SessionSets returns a session's sets in the order they were logged.
func (db *DB) SessionSets(ctx context.Context, sessionID uuid.UUID) ([]models.LoggedSet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+setColumns+` FROM logged_sets
		 WHERE session_id = $1
		 ORDER BY created_at ASC, id ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session sets: %w", err)
	}
	defer rows.Close()
	return scanSets(rows)
}

// ExerciseHistory returns a user's sets of the given exercises from every
// session except excludeSession.
func (db *DB) ExerciseHistory(ctx context.Context, userID int, exerciseIDs []string, excludeSession uuid.UUID) ([]models.LoggedSet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT ls.id, ls.session_id, ls.exercise_id, ls.weight_kg, ls.reps, ls.rpe, ls.is_warmup,
		 ls.bodyweight_data, ls.target, ls.is_last_set, ls.quality, ls.created_at
		 FROM logged_sets ls
		 JOIN sessions s ON s.id = ls.session_id
		 WHERE s.user_id = $1 AND ls.exercise_id = ANY($2) AND ls.session_id <> $3
		 ORDER BY ls.created_at ASC`,
		userID, exerciseIDs, excludeSession)
	if err != nil {
		return nil, fmt.Errorf("querying exercise history: %w", err)
	}
	defer rows.Close()
	return scanSets(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSet(row rowScanner) (models.LoggedSet, error) {
	var s models.LoggedSet
	var bw, target []byte
	var q string
	if err := row.Scan(&s.ID, &s.SessionID, &s.ExerciseID, &s.WeightKg, &s.Reps, &s.RPE,
		&s.IsWarmup, &bw, &target, &s.IsLastSet, &q, &s.CreatedAt); err != nil {
		return models.LoggedSet{}, fmt.Errorf("scanning logged set: %w", err)
	}
	load, err := DecodeBodyweight(bw)
	if err != nil {
		return models.LoggedSet{}, fmt.Errorf("set %s: %w", s.ID, err)
	}
	s.Bodyweight = load
	if s.Target, err = decodeTarget(target); err != nil {
		return models.LoggedSet{}, fmt.Errorf("set %s: %w", s.ID, err)
	}
	s.Quality = models.Quality(q)
	return s, nil
}

// encodeTarget serializes a set's prescription. A nil target is stored as SQL NULL.
func encodeTarget(t *models.ExerciseTarget) ([]byte, error) {
	if t == nil {
		return nil, nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encoding target: %w", err)
	}
	return data, nil
}

func decodeTarget(data []byte) (*models.ExerciseTarget, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var t models.ExerciseTarget
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding target: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("decoding target: %w", err)
	}
	return &t, nil
}

func scanSets(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.LoggedSet, error) {
	var result []models.LoggedSet
	for rows.Next() {
		s, err := scanSet(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
