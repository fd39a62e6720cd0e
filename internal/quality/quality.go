// Package quality classifies completed working sets by stimulus quality from
// their effort (RPE) and position relative to the prescribed rep range.
package quality

import (
	"fmt"
	"math"

	"github.com/claude/liftcalc/internal/models"
)

const (
	// ToleranceRIR is how far actual RIR may sit from target RIR, in either
	// direction, and still count as on target.
	ToleranceRIR = 1.0

	// LastSetLeniencyRIR extends the excessive threshold for the final set of
	// an exercise, which is expected to be pushed harder.
	LastSetLeniencyRIR = 1.0
)

// ActualRIR approximates reps in reserve as 10 - RPE, clamped to [0,10].
func ActualRIR(rpe float64) float64 {
	return math.Min(10, math.Max(0, 10-rpe))
}

// Classify returns the quality of a set. rirDeviation = actualRIR - targetRIR
// is positive when the set was easier than planned.
//
//	reps below range:  effective if deviation <= 0, else junk
//	deviation < -1:    excessive (-2 on the last set)
//	reps within range: stimulative if deviation <= 1, else junk
//	reps above range:  effective if deviation <= 1, else junk
func Classify(rpe float64, targetRIR, reps int, target models.RepRange, isLastSet bool) (models.Quality, error) {
	if rpe < 1 || rpe > 10 || math.IsNaN(rpe) {
		return "", fmt.Errorf("%w: rpe must be within [1,10], got %g", models.ErrInvalidSetData, rpe)
	}
	if reps < 1 {
		return "", fmt.Errorf("%w: reps must be >= 1, got %d", models.ErrInvalidSetData, reps)
	}
	if targetRIR < 0 {
		return "", fmt.Errorf("%w: target RIR must be >= 0, got %d", models.ErrInvalidSetData, targetRIR)
	}
	if err := target.Validate(); err != nil {
		return "", err
	}

	deviation := ActualRIR(rpe) - float64(targetRIR)

	if reps < target.Min {
		if deviation <= 0 {
			return models.QualityEffective, nil
		}
		return models.QualityJunk, nil
	}

	excessiveBelow := -ToleranceRIR
	if isLastSet {
		excessiveBelow -= LastSetLeniencyRIR
	}
	if deviation < excessiveBelow {
		return models.QualityExcessive, nil
	}

	if deviation > ToleranceRIR {
		return models.QualityJunk, nil
	}
	if target.Contains(reps) {
		return models.QualityStimulative, nil
	}
	return models.QualityEffective, nil
}

// ClassifySet classifies a logged working set against its prescription.
// Warm-up sets are not classified and report ok=false.
func ClassifySet(set models.LoggedSet, target models.ExerciseTarget, isLastSet bool) (result models.SetQualityResult, ok bool, err error) {
	if set.IsWarmup {
		return models.SetQualityResult{}, false, nil
	}
	if err := set.Validate(); err != nil {
		return models.SetQualityResult{}, false, err
	}
	q, err := Classify(*set.RPE, target.TargetRIR, set.Reps, target.TargetRepRange, isLastSet)
	if err != nil {
		return models.SetQualityResult{}, false, err
	}
	return models.SetQualityResult{Quality: q}, true, nil
}

// Reclassify re-derives the cached quality of a set from its raw fields and
// stored prescription. Warm-ups and sets logged without a prescription have
// no quality.
func Reclassify(set models.LoggedSet) (models.Quality, error) {
	if set.Target == nil {
		return "", nil
	}
	res, ok, err := ClassifySet(set, *set.Target, set.IsLastSet)
	if err != nil || !ok {
		return "", err
	}
	return res.Quality, nil
}

// ClassifySession classifies the working sets of one exercise in order. The
// last working set gets the last-set leniency. Working sets carry the
// prescription they were classified against; warm-ups are left unclassified.
func ClassifySession(sets []models.LoggedSet, target models.ExerciseTarget) ([]models.LoggedSet, error) {
	last := -1
	for i, s := range sets {
		if !s.IsWarmup {
			last = i
		}
	}

	out := make([]models.LoggedSet, len(sets))
	for i, s := range sets {
		res, ok, err := ClassifySet(s, target, i == last)
		if err != nil {
			return nil, fmt.Errorf("set %d: %w", i+1, err)
		}
		if ok {
			t := target
			s.Target = &t
			s.IsLastSet = i == last
			s.Quality = res.Quality
		} else {
			s.Quality = ""
		}
		out[i] = s
	}
	return out, nil
}
