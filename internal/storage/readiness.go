package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/claude/liftcalc/internal/models"
)

// InsertReadiness stores a scored readiness check-in.
func (db *DB) InsertReadiness(ctx context.Context, c models.ReadinessCheckIn) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO readiness_checkins (id, user_id, sleep_hours, sleep_quality, stress_level,
		 nutrition_rating, score, band, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.UserID, c.Input.SleepHours, c.Input.SleepQuality, c.Input.StressLevel,
		c.Input.NutritionRating, c.Result.Score, string(c.Result.Band), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting readiness check-in: %w", err)
	}
	return nil
}

// LatestReadiness returns the user's most recent check-in. Label and
// recommendation are not stored; the caller re-derives them from the score.
func (db *DB) LatestReadiness(ctx context.Context, userID int) (*models.ReadinessCheckIn, error) {
	var c models.ReadinessCheckIn
	var band string
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, sleep_hours, sleep_quality, stress_level, nutrition_rating,
		 score, band, created_at
		 FROM readiness_checkins
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	).Scan(&c.ID, &c.UserID, &c.Input.SleepHours, &c.Input.SleepQuality, &c.Input.StressLevel,
		&c.Input.NutritionRating, &c.Result.Score, &band, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("readiness for user %d: %w", userID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying readiness check-in: %w", err)
	}
	c.Result.Band = models.ReadinessBand(band)
	return &c, nil
}
