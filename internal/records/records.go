// Package records detects personal records by comparing a session's working
// sets against each exercise's historical bests.
package records

import (
	"fmt"
	"sort"

	"github.com/claude/liftcalc/internal/estimate"
	"github.com/claude/liftcalc/internal/models"
)

// RepsPRMinWeightRatio is the share of the prior best weight a set must reach
// for extra reps to count as a record.
const RepsPRMinWeightRatio = 0.95

// sessionBest holds one exercise's bests within the session.
type sessionBest struct {
	e1rm   float64
	weight float64
	sets   []models.LoggedSet
}

// Detect returns at most one record per exercise, by priority e1rm > weight >
// reps. Exercises without a baseline in history are skipped. Warm-ups are
// ignored. The result is ordered by exercise ID.
func Detect(sessionSets []models.LoggedSet, history map[string]models.Baseline) ([]models.PersonalRecord, error) {
	bests := make(map[string]*sessionBest)
	for _, s := range sessionSets {
		if s.IsWarmup {
			continue
		}
		e1rm, err := estimate.SetOneRepMax(s)
		if err != nil {
			return nil, fmt.Errorf("exercise %s: %w", s.ExerciseID, err)
		}
		b, ok := bests[s.ExerciseID]
		if !ok {
			b = &sessionBest{}
			bests[s.ExerciseID] = b
		}
		b.e1rm = max(b.e1rm, e1rm)
		b.weight = max(b.weight, s.LoadKg())
		b.sets = append(b.sets, s)
	}

	ids := make([]string, 0, len(bests))
	for id := range bests {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []models.PersonalRecord
	for _, id := range ids {
		base, ok := history[id]
		if !ok || base.IsEmpty() {
			continue
		}
		if pr, ok := compare(id, bests[id], base); ok {
			out = append(out, pr)
		}
	}
	return out, nil
}

func compare(id string, b *sessionBest, base models.Baseline) (models.PersonalRecord, bool) {
	if base.BestE1RMKg > 0 && b.e1rm > base.BestE1RMKg {
		return models.PersonalRecord{
			ExerciseID:         id,
			Type:               models.RecordE1RM,
			Value:              b.e1rm,
			Previous:           base.BestE1RMKg,
			ImprovementPercent: percent(b.e1rm, base.BestE1RMKg),
		}, true
	}

	if base.BestWeightKg > 0 && b.weight > base.BestWeightKg {
		return models.PersonalRecord{
			ExerciseID:         id,
			Type:               models.RecordWeight,
			Value:              b.weight,
			Previous:           base.BestWeightKg,
			ImprovementPercent: percent(b.weight, base.BestWeightKg),
		}, true
	}

	if base.BestReps > 0 {
		floor := base.BestWeightKg * RepsPRMinWeightRatio
		bestReps := 0
		for _, s := range b.sets {
			if s.LoadKg() >= floor && s.Reps > bestReps {
				bestReps = s.Reps
			}
		}
		if bestReps > base.BestReps {
			return models.PersonalRecord{
				ExerciseID:      id,
				Type:            models.RecordReps,
				Value:           float64(bestReps),
				Previous:        float64(base.BestReps),
				ImprovementReps: bestReps - base.BestReps,
			}, true
		}
	}

	return models.PersonalRecord{}, false
}

func percent(now, before float64) float64 {
	return (now - before) / before * 100
}

// BaselineFromSets derives per-exercise bests from historical working sets.
// BestReps is the most reps performed at or above RepsPRMinWeightRatio of the
// exercise's best weight, so a later reps record compares like with like.
func BaselineFromSets(history []models.LoggedSet) (map[string]models.Baseline, error) {
	byExercise := make(map[string][]models.LoggedSet)
	for _, s := range history {
		if s.IsWarmup {
			continue
		}
		byExercise[s.ExerciseID] = append(byExercise[s.ExerciseID], s)
	}

	out := make(map[string]models.Baseline, len(byExercise))
	for id, sets := range byExercise {
		base := models.Baseline{ExerciseID: id}
		for _, s := range sets {
			e1rm, err := estimate.SetOneRepMax(s)
			if err != nil {
				return nil, fmt.Errorf("exercise %s: %w", id, err)
			}
			base.BestE1RMKg = max(base.BestE1RMKg, e1rm)
			base.BestWeightKg = max(base.BestWeightKg, s.LoadKg())
		}
		floor := base.BestWeightKg * RepsPRMinWeightRatio
		for _, s := range sets {
			if s.LoadKg() >= floor && s.Reps > base.BestReps {
				base.BestReps = s.Reps
			}
		}
		out[id] = base
	}
	return out, nil
}
