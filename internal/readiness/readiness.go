// Package readiness turns the pre-workout questionnaire into a 0-100 score and
// a qualitative band with a recommendation.
package readiness

import (
	"fmt"
	"math"

	"github.com/claude/liftcalc/internal/models"
)

// Sleep-hours curve: full marks inside [OptimalSleepMin, OptimalSleepMax],
// Gaussian falloff with SleepFalloffSigma hours outside it.
const (
	OptimalSleepMin   = 7.0
	OptimalSleepMax   = 9.0
	SleepFalloffSigma = 1.5

	MinRating = 1
	MaxRating = 5
)

// Weights are the coefficients of the composite score. They need not sum to 1;
// the score is normalized by their sum.
type Weights struct {
	SleepHours   float64 `yaml:"sleep_hours" json:"sleepHours"`
	SleepQuality float64 `yaml:"sleep_quality" json:"sleepQuality"`
	Stress       float64 `yaml:"stress" json:"stress"`
	Nutrition    float64 `yaml:"nutrition" json:"nutrition"`
}

// DefaultWeights favour sleep, which dominates short-term recovery.
var DefaultWeights = Weights{
	SleepHours:   0.35,
	SleepQuality: 0.25,
	Stress:       0.25,
	Nutrition:    0.15,
}

func (w Weights) sum() float64 {
	return w.SleepHours + w.SleepQuality + w.Stress + w.Nutrition
}

// Validate rejects negative coefficients and an all-zero set.
func (w Weights) Validate() error {
	if w.SleepHours < 0 || w.SleepQuality < 0 || w.Stress < 0 || w.Nutrition < 0 {
		return fmt.Errorf("readiness weights must be >= 0: %+v", w)
	}
	if w.sum() <= 0 {
		return fmt.Errorf("readiness weights must not all be zero")
	}
	return nil
}

// tier maps a minimum score to a band.
type tier struct {
	min            int
	band           models.ReadinessBand
	label          string
	recommendation string
}

// tiers are ordered from highest minimum to lowest.
var tiers = []tier{
	{80, models.ReadinessWellRecovered, "Well recovered", "Train as planned; a good day to push for top sets."},
	{60, models.ReadinessAdequate, "Adequate", "Train as planned and keep effort at the prescribed RIR."},
	{40, models.ReadinessCaution, "Caution", "Keep the main lifts but trim a set or add a rep in reserve."},
	{0, models.ReadinessLightSession, "Consider a lighter session", "Reduce load and volume, or swap in technique and mobility work."},
}

// Scorer scores readiness with a fixed set of weights.
type Scorer struct {
	weights Weights
}

// NewScorer returns a Scorer after validating the weights.
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

// Weights returns the scorer's coefficients.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score scores the questionnaire with DefaultWeights.
func Score(in models.ReadinessInput) (models.ReadinessResult, error) {
	return (&Scorer{weights: DefaultWeights}).Score(in)
}

// Score computes the weighted composite of the normalized inputs.
func (s *Scorer) Score(in models.ReadinessInput) (models.ReadinessResult, error) {
	if err := validate(in); err != nil {
		return models.ReadinessResult{}, err
	}

	w := s.weights
	composite := w.SleepHours*SleepHoursScore(in.SleepHours) +
		w.SleepQuality*ratingScore(in.SleepQuality) +
		w.Stress*ratingScore(in.StressLevel) +
		w.Nutrition*ratingScore(in.NutritionRating)

	score := int(math.Round(100 * composite / w.sum()))
	score = min(100, max(0, score))

	return Interpret(score), nil
}

// Interpret maps a 0-100 score to its band.
func Interpret(score int) models.ReadinessResult {
	for _, t := range tiers {
		if score >= t.min {
			return models.ReadinessResult{
				Score:          score,
				Band:           t.band,
				Label:          t.label,
				Recommendation: t.recommendation,
			}
		}
	}
	last := tiers[len(tiers)-1]
	return models.ReadinessResult{Score: score, Band: last.band, Label: last.label, Recommendation: last.recommendation}
}

// SleepHoursScore maps hours slept to [0,1]: 1 inside the optimal window and a
// Gaussian falloff on either side.
func SleepHoursScore(hours float64) float64 {
	var d float64
	switch {
	case hours < OptimalSleepMin:
		d = OptimalSleepMin - hours
	case hours > OptimalSleepMax:
		d = hours - OptimalSleepMax
	default:
		return 1
	}
	return math.Exp(-(d * d) / (2 * SleepFalloffSigma * SleepFalloffSigma))
}

func ratingScore(r int) float64 {
	return float64(r-MinRating) / float64(MaxRating-MinRating)
}

func validate(in models.ReadinessInput) error {
	if in.SleepHours < 0 || in.SleepHours > 24 || math.IsNaN(in.SleepHours) {
		return fmt.Errorf("%w: sleep hours must be within [0,24], got %g", models.ErrInvalidReadinessInput, in.SleepHours)
	}
	ratings := []struct {
		name  string
		value int
	}{
		{"sleep quality", in.SleepQuality},
		{"stress level", in.StressLevel},
		{"nutrition rating", in.NutritionRating},
	}
	for _, r := range ratings {
		if r.value < MinRating || r.value > MaxRating {
			return fmt.Errorf("%w: %s must be within [%d,%d], got %d", models.ErrInvalidReadinessInput, r.name, MinRating, MaxRating, r.value)
		}
	}
	return nil
}
