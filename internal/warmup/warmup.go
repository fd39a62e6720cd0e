// Package warmup plans warm-up ramps that lead up to a working weight.
package warmup

import (
	"fmt"
	"math"

	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/units"
)

// DefaultBarbellKg is a standard Olympic barbell.
const DefaultBarbellKg = 20.0

// EmptyBarLabel labels steps with no plates loaded.
const EmptyBarLabel = "Empty bar"

// Step is one percentage step of a ramp.
type Step struct {
	Percent float64
	Reps    int
	Purpose string
}

// Scheme is an ascending list of percentage steps.
type Scheme []Step

var (
	// LightScheme is used when the working weight is under twice the bar.
	LightScheme = Scheme{
		{Percent: 60, Reps: 5, Purpose: "Rehearse the movement"},
		{Percent: 80, Reps: 3, Purpose: "Feel the load"},
	}

	// StandardScheme is used for moderate working weights.
	StandardScheme = Scheme{
		{Percent: 50, Reps: 8, Purpose: "Rehearse the movement"},
		{Percent: 70, Reps: 5, Purpose: "Build load"},
		{Percent: 85, Reps: 3, Purpose: "Prime for heavy work"},
	}

	// HeavyScheme is used at or above the heavy threshold.
	HeavyScheme = Scheme{
		{Percent: 50, Reps: 5, Purpose: "Rehearse the movement"},
		{Percent: 70, Reps: 3, Purpose: "Build load"},
		{Percent: 85, Reps: 2, Purpose: "Prime for heavy work"},
		{Percent: 95, Reps: 1, Purpose: "Potentiate"},
	}
)

// Planner builds warm-up plans. The zero value is not usable; start from
// DefaultPlanner.
type Planner struct {
	BarReps          int
	HeavyThresholdKg float64
	Light            Scheme
	Standard         Scheme
	Heavy            Scheme
}

// DefaultPlanner returns the planner used by Plan.
func DefaultPlanner() Planner {
	return Planner{
		BarReps:          10,
		HeavyThresholdKg: 100,
		Light:            LightScheme,
		Standard:         StandardScheme,
		Heavy:            HeavyScheme,
	}
}

// Plan builds a warm-up ramp for workingWeightKg with the default planner.
// Pass DefaultBarbellKg for a standard barbell and 0 for lifts without a bar.
func Plan(workingWeightKg float64, unit units.Unit, barbellKg float64) ([]models.WarmupStep, error) {
	return DefaultPlanner().Plan(workingWeightKg, unit, barbellKg)
}

func (p Planner) scheme(workingKg, barbellKg float64) Scheme {
	switch {
	case workingKg >= p.HeavyThresholdKg:
		return p.Heavy
	case barbellKg > 0 && workingKg < 2*barbellKg:
		return p.Light
	default:
		return p.Standard
	}
}

// Plan builds a warm-up ramp. Weights never decrease from one step to the next
// and the last step is always lighter than the working weight. A working weight
// at or below the bar yields no warm-up.
func (p Planner) Plan(workingWeightKg float64, unit units.Unit, barbellKg float64) ([]models.WarmupStep, error) {
	if err := unit.Validate(); err != nil {
		return nil, err
	}
	if workingWeightKg < 0 || math.IsNaN(workingWeightKg) || math.IsInf(workingWeightKg, 0) {
		return nil, fmt.Errorf("%w: working weight must be >= 0, got %g", models.ErrInvalidSetData, workingWeightKg)
	}
	if barbellKg < 0 {
		return nil, fmt.Errorf("%w: barbell weight must be >= 0, got %g", models.ErrInvalidSetData, barbellKg)
	}
	if workingWeightKg == 0 || workingWeightKg <= barbellKg {
		return nil, nil
	}

	var steps []models.WarmupStep
	prev := 0.0

	if barbellKg > 0 {
		steps = append(steps, models.WarmupStep{
			PercentOfWorking: 0,
			WeightKg:         barbellKg,
			TargetReps:       p.BarReps,
			Purpose:          "Groove the bar path",
			Label:            EmptyBarLabel,
			IsBarOnly:        true,
		})
		prev = barbellKg
	}

	for _, s := range p.scheme(workingWeightKg, barbellKg) {
		w, err := units.RoundToIncrement(workingWeightKg*s.Percent/100, unit)
		if err != nil {
			return nil, err
		}
		if w >= workingWeightKg {
			break
		}
		if w < prev || (len(steps) > 0 && w == prev) {
			continue
		}

		label := EmptyBarLabel
		if w > 0 {
			if label, err = units.Format(w, unit); err != nil {
				return nil, err
			}
		}
		steps = append(steps, models.WarmupStep{
			PercentOfWorking: s.Percent,
			WeightKg:         w,
			TargetReps:       s.Reps,
			Purpose:          s.Purpose,
			Label:            label,
		})
		prev = w
	}

	for i := range steps {
		steps[i].SetNumber = i + 1
	}
	return steps, nil
}
