// Package estimate computes estimated one-rep maxes. Epley is the canonical
// formula for every engine comparison (PR detection, summaries).
package estimate

import (
	"fmt"

	"github.com/claude/liftcalc/internal/models"
)

// MaxBrzyckiReps is the largest rep count the Brzycki formula is defined for.
const MaxBrzyckiReps = 36

func validate(weightKg float64, reps int) error {
	if reps < 1 {
		return fmt.Errorf("%w: reps must be >= 1, got %d", models.ErrInvalidSetData, reps)
	}
	if weightKg < 0 {
		return fmt.Errorf("%w: weight must be >= 0, got %g", models.ErrInvalidSetData, weightKg)
	}
	return nil
}

// OneRepMax estimates a one-rep max with the Epley relation. A single rep is a
// fixed point: the estimate is the lifted weight.
func OneRepMax(weightKg float64, reps int) (float64, error) {
	if err := validate(weightKg, reps); err != nil {
		return 0, err
	}
	if reps == 1 {
		return weightKg, nil
	}
	return weightKg * (1 + float64(reps)/30), nil
}

// Brzycki estimates a one-rep max with the Brzycki formula. It is offered for
// display alongside Epley and is never used for engine decisions.
func Brzycki(weightKg float64, reps int) (float64, error) {
	if err := validate(weightKg, reps); err != nil {
		return 0, err
	}
	if reps >= MaxBrzyckiReps {
		return 0, fmt.Errorf("%w: brzycki is undefined for %d reps", models.ErrInvalidSetData, reps)
	}
	if reps == 1 {
		return weightKg, nil
	}
	return weightKg * 36 / float64(37-reps), nil
}

// WeightForReps inverts Epley: the load that would estimate to e1rmKg when
// lifted for reps.
func WeightForReps(e1rmKg float64, reps int) (float64, error) {
	if err := validate(e1rmKg, reps); err != nil {
		return 0, err
	}
	if reps == 1 {
		return e1rmKg, nil
	}
	return e1rmKg / (1 + float64(reps)/30), nil
}

// SetOneRepMax estimates the one-rep max of a logged set on its effective load.
func SetOneRepMax(s models.LoggedSet) (float64, error) {
	return OneRepMax(s.LoadKg(), s.Reps)
}
