// Package summary aggregates a session's logged sets into per-exercise volume,
// best estimated max, quality counts and an RIR distribution.
package summary

import (
	"fmt"
	"sort"

	"github.com/claude/liftcalc/internal/estimate"
	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/quality"
)

// RIRBandCount holds the count and percentage of working sets in one RIR band.
type RIRBandCount struct {
	Band quality.RIRBand `json:"band"`
	Sets int             `json:"sets"`
	Pct  float64         `json:"pct"`
}

// Exercise holds aggregated stats for a single exercise.
type Exercise struct {
	ExerciseID   string                 `json:"exerciseId"`
	WorkingSets  int                    `json:"workingSets"`
	WarmupSets   int                    `json:"warmupSets"`
	TotalReps    int                    `json:"totalReps"`
	TonnageKg    float64                `json:"tonnageKg"`
	MaxLoadKg    float64                `json:"maxLoadKg"`
	BestE1RMKg   float64                `json:"bestE1rmKg"`
	AvgRPE       *float64               `json:"avgRpe,omitempty"`
	QualityCount map[models.Quality]int `json:"qualityCount,omitempty"`
}

// Session is the summary of one workout.
type Session struct {
	WorkingSets     int            `json:"workingSets"`
	TotalReps       int            `json:"totalReps"`
	TonnageKg       float64        `json:"tonnageKg"`
	FailureRatePct  float64        `json:"failureRatePct"`
	RIRDistribution []RIRBandCount `json:"rirDistribution"`
	Exercises       []Exercise     `json:"exercises"`
}

// Summarize aggregates sets. Tonnage and max load use the effective load of
// bodyweight sets. Warm-ups are counted but excluded from every other figure.
// Exercises are ordered by tonnage, heaviest first.
func Summarize(sets []models.LoggedSet) (*Session, error) {
	byID := make(map[string]*Exercise)
	rpeSum := make(map[string]float64)
	rpeN := make(map[string]int)
	bandSets := make(map[quality.RIRBand]int)
	out := &Session{}

	for i, s := range sets {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("set %d: %w", i+1, err)
		}
		ex, ok := byID[s.ExerciseID]
		if !ok {
			ex = &Exercise{ExerciseID: s.ExerciseID}
			byID[s.ExerciseID] = ex
		}
		if s.IsWarmup {
			ex.WarmupSets++
			continue
		}

		e1rm, err := estimate.SetOneRepMax(s)
		if err != nil {
			return nil, fmt.Errorf("set %d: %w", i+1, err)
		}
		load := s.LoadKg()
		ex.WorkingSets++
		ex.TotalReps += s.Reps
		ex.TonnageKg += load * float64(s.Reps)
		ex.MaxLoadKg = max(ex.MaxLoadKg, load)
		ex.BestE1RMKg = max(ex.BestE1RMKg, e1rm)
		if s.Quality != "" {
			if ex.QualityCount == nil {
				ex.QualityCount = make(map[models.Quality]int)
			}
			ex.QualityCount[s.Quality]++
		}

		rpeSum[s.ExerciseID] += *s.RPE
		rpeN[s.ExerciseID]++
		bandSets[quality.BandForRPE(*s.RPE)]++

		out.WorkingSets++
		out.TotalReps += s.Reps
		out.TonnageKg += load * float64(s.Reps)
	}

	failures := 0
	for _, b := range quality.Bands {
		n := bandSets[b]
		c := RIRBandCount{Band: b, Sets: n}
		if out.WorkingSets > 0 {
			c.Pct = float64(n) / float64(out.WorkingSets) * 100
		}
		if b == quality.BandFailure || b == quality.BandNearFailure {
			failures += n
		}
		out.RIRDistribution = append(out.RIRDistribution, c)
	}
	if out.WorkingSets > 0 {
		out.FailureRatePct = float64(failures) / float64(out.WorkingSets) * 100
	}

	for id, ex := range byID {
		if n := rpeN[id]; n > 0 {
			avg := rpeSum[id] / float64(n)
			ex.AvgRPE = &avg
		}
		out.Exercises = append(out.Exercises, *ex)
	}
	sort.Slice(out.Exercises, func(i, j int) bool {
		a, b := out.Exercises[i], out.Exercises[j]
		if a.TonnageKg != b.TonnageKg {
			return a.TonnageKg > b.TonnageKg
		}
		return a.ExerciseID < b.ExerciseID
	})
	return out, nil
}
