package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftcalc/internal/models"
)

// VolumePeriod holds aggregated working-set volume for one time period.
// Tonnage uses the effective load of bodyweight sets.
type VolumePeriod struct {
	Period            string                 `json:"period"`
	Sessions          int                    `json:"sessions"`
	WorkingSets       int                    `json:"working_sets"`
	TotalReps         int                    `json:"total_reps"`
	TonnageKg         float64                `json:"tonnage_kg"`
	AvgSetsPerSession float64                `json:"avg_sets_per_session"`
	QualityCount      map[models.Quality]int `json:"quality_count,omitempty"`
}

// volumeRow is one working set tagged with its period.
type volumeRow struct {
	period    string
	sessionID uuid.UUID
	set       models.LoggedSet
}

// GetTrainingVolume returns working-set volume per period between start and
// end, newest period first. bucket is "1 week" or "1 month".
func (db *DB) GetTrainingVolume(ctx context.Context, userID int, start, end time.Time, bucket string) ([]VolumePeriod, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, s.started_at)::date AS period,
		        s.id, ls.weight_kg, ls.reps, ls.bodyweight_data, ls.quality
		 FROM logged_sets ls
		 JOIN sessions s ON s.id = ls.session_id
		 WHERE s.user_id = $2 AND s.started_at >= $3 AND s.started_at < $4
		   AND NOT ls.is_warmup
		 ORDER BY period DESC`,
		truncInterval(bucket), userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying training volume: %w", err)
	}
	defer rows.Close()

	var out []volumeRow
	for rows.Next() {
		var periodTime time.Time
		var r volumeRow
		var bw []byte
		var quality string
		if err := rows.Scan(&periodTime, &r.sessionID, &r.set.WeightKg, &r.set.Reps, &bw, &quality); err != nil {
			return nil, fmt.Errorf("scanning training volume: %w", err)
		}
		if r.set.Bodyweight, err = DecodeBodyweight(bw); err != nil {
			return nil, err
		}
		r.set.Quality = models.Quality(quality)
		r.period = periodTime.Format("2006-01-02")
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return aggregateVolume(out), nil
}

// aggregateVolume folds rows into periods, keeping the order in which each
// period first appears.
func aggregateVolume(rows []volumeRow) []VolumePeriod {
	periodMap := make(map[string]*VolumePeriod)
	sessions := make(map[string]map[uuid.UUID]bool)
	var periodOrder []string

	for _, r := range rows {
		p, ok := periodMap[r.period]
		if !ok {
			p = &VolumePeriod{Period: r.period}
			periodMap[r.period] = p
			sessions[r.period] = make(map[uuid.UUID]bool)
			periodOrder = append(periodOrder, r.period)
		}
		sessions[r.period][r.sessionID] = true
		p.WorkingSets++
		p.TotalReps += r.set.Reps
		p.TonnageKg += r.set.LoadKg() * float64(r.set.Reps)
		if r.set.Quality != "" {
			if p.QualityCount == nil {
				p.QualityCount = make(map[models.Quality]int)
			}
			p.QualityCount[r.set.Quality]++
		}
	}

	result := make([]VolumePeriod, 0, len(periodOrder))
	for _, key := range periodOrder {
		p := periodMap[key]
		p.Sessions = len(sessions[key])
		p.AvgSetsPerSession = float64(p.WorkingSets) / float64(p.Sessions)
		result = append(result, *p)
	}
	return result
}

// truncInterval converts bucket strings like "1 month" to the interval name
// that date_trunc expects (e.g. "month", "week").
func truncInterval(bucket string) string {
	switch bucket {
	case "1 week":
		return "week"
	case "1 month":
		return "month"
	default:
		return "month"
	}
}
