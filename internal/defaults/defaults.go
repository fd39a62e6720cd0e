// Package defaults pre-fills the next set from the previous one using double
// progression: hold the weight until the top of the rep range is reached at
// or below target effort, then add one plate increment.
package defaults

import (
	"fmt"

	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/quality"
	"github.com/claude/liftcalc/internal/units"
)

// Reason explains where a suggestion came from.
type Reason string

const (
	ReasonNoHistory Reason = "no_history"
	ReasonProgress  Reason = "progress"
	ReasonRepeat    Reason = "repeat"
)

// Suggestion is a pre-filled set.
type Suggestion struct {
	WeightKg float64 `json:"weightKg"`
	Reps     int     `json:"reps"`
	RPE      float64 `json:"rpe"`
	Reason   Reason  `json:"reason"`
}

// Suggest returns the default values for the next working set. prev is the
// last working set of the same exercise, or nil when there is none.
func Suggest(prev *models.LoggedSet, target models.ExerciseTarget, unit units.Unit) (Suggestion, error) {
	if err := target.Validate(); err != nil {
		return Suggestion{}, err
	}
	if err := unit.Validate(); err != nil {
		return Suggestion{}, err
	}

	rpe := targetRPE(target.TargetRIR)
	if prev == nil {
		return Suggestion{Reps: target.TargetRepRange.Midpoint(), RPE: rpe, Reason: ReasonNoHistory}, nil
	}
	if err := prev.Validate(); err != nil {
		return Suggestion{}, fmt.Errorf("previous set: %w", err)
	}

	reachedTop := prev.Reps >= target.TargetRepRange.Max
	onTarget := prev.RPE == nil || quality.ActualRIR(*prev.RPE) >= float64(target.TargetRIR)
	if !reachedTop || !onTarget {
		return Suggestion{WeightKg: prev.WeightKg, Reps: prev.Reps, RPE: rpe, Reason: ReasonRepeat}, nil
	}

	inc, err := units.Increment(unit)
	if err != nil {
		return Suggestion{}, err
	}
	next, err := units.RoundToIncrement(prev.WeightKg+inc, unit)
	if err != nil {
		return Suggestion{}, err
	}
	return Suggestion{WeightKg: next, Reps: target.TargetRepRange.Min, RPE: rpe, Reason: ReasonProgress}, nil
}

func targetRPE(targetRIR int) float64 {
	return max(1, min(10, 10-float64(targetRIR)))
}
