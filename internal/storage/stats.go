package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a user's stored training data.
type DataStats struct {
	TotalSessions  int64          `json:"total_sessions"`
	TotalSets      int64          `json:"total_sets"`
	TotalCheckIns  int64          `json:"total_checkins"`
	EarliestData   *time.Time     `json:"earliest_data"`
	LatestData     *time.Time     `json:"latest_data"`
	SetsByExercise []ExerciseStat `json:"sets_by_exercise"`
}

// ExerciseStat holds working-set totals for a single exercise.
type ExerciseStat struct {
	ExerciseID  string  `json:"exercise_id"`
	WorkingSets int64   `json:"working_sets"`
	MaxWeightKg float64 `json:"max_weight_kg"`
}

// GetDataStats returns aggregate statistics for a user's stored data.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(started_at), MAX(started_at) FROM sessions WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSessions, &stats.EarliestData, &stats.LatestData)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM logged_sets ls
		 JOIN sessions s ON s.id = ls.session_id
		 WHERE s.user_id = $1`, userID,
	).Scan(&stats.TotalSets)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM readiness_checkins WHERE user_id = $1`, userID,
	).Scan(&stats.TotalCheckIns)
	if err != nil {
		return nil, fmt.Errorf("counting readiness check-ins: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT ls.exercise_id, COUNT(*), COALESCE(MAX(ls.weight_kg), 0)
		 FROM logged_sets ls
		 JOIN sessions s ON s.id = ls.session_id
		 WHERE s.user_id = $1 AND NOT ls.is_warmup
		 GROUP BY ls.exercise_id
		 ORDER BY COUNT(*) DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e ExerciseStat
		if err := rows.Scan(&e.ExerciseID, &e.WorkingSets, &e.MaxWeightKg); err != nil {
			return nil, fmt.Errorf("scanning exercise stat: %w", err)
		}
		stats.SetsByExercise = append(stats.SetsByExercise, e)
	}
	return stats, rows.Err()
}
