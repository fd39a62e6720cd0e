package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Modification is how bodyweight is modified for a bodyweight exercise.
type Modification string

const (
	ModificationNone     Modification = "none"
	ModificationWeighted Modification = "weighted"
	ModificationAssisted Modification = "assisted"
)

// AssistanceType is the source of assistance for an assisted bodyweight exercise.
type AssistanceType string

const (
	AssistanceMachine AssistanceType = "machine"
	AssistanceBand    AssistanceType = "band"
	AssistancePartner AssistanceType = "partner"
)

// BandColor identifies a resistance band tier.
type BandColor string

const (
	BandYellow BandColor = "yellow"
	BandRed    BandColor = "red"
	BandBlack  BandColor = "black"
	BandPurple BandColor = "purple"
	BandGreen  BandColor = "green"
)

// BodyweightLoad is the resolved load of a bodyweight exercise. It is always
// recomputed as a whole from its inputs, never patched field by field.
type BodyweightLoad struct {
	UserBodyweightKg   float64        `json:"userBodyweightKg"`
	Modification       Modification   `json:"modification"`
	AddedWeightKg      float64        `json:"addedWeightKg,omitempty"`
	AssistanceWeightKg float64        `json:"assistanceWeightKg,omitempty"`
	AssistanceType     AssistanceType `json:"assistanceType,omitempty"`
	BandColor          BandColor      `json:"bandColor,omitempty"`
	EffectiveLoadKg    float64        `json:"effectiveLoadKg"`
}

// Quality is the stimulus-quality tag of a completed working set.
type Quality string

const (
	QualityJunk        Quality = "junk"
	QualityEffective   Quality = "effective"
	QualityStimulative Quality = "stimulative"
	QualityExcessive   Quality = "excessive"
)

// SetQualityResult wraps a derived quality. It is never persisted on its own.
type SetQualityResult struct {
	Quality Quality `json:"quality"`
}

// LoggedSet is a single completed set. Weights are always kilograms.
type LoggedSet struct {
	ID         uuid.UUID       `json:"id"`
	SessionID  uuid.UUID       `json:"sessionId"`
	ExerciseID string          `json:"exerciseId"`
	WeightKg   float64         `json:"weightKg"`
	Reps       int             `json:"reps"`
	RPE        *float64        `json:"rpe,omitempty"`
	IsWarmup   bool            `json:"isWarmup"`
	Bodyweight *BodyweightLoad `json:"bodyweightData,omitempty"`
	// Target and IsLastSet are the prescription the set was classified
	// against. They are stored with the set so Quality can be re-derived
	// from the row alone.
	Target    *ExerciseTarget `json:"target,omitempty"`
	IsLastSet bool            `json:"isLastSet,omitempty"`
	// Quality is a cache of the classifier output; the raw fields above are
	// the source of truth.
	Quality   Quality   `json:"quality,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoadKg returns the load that counts toward stimulus: the resolved
// bodyweight load when present, otherwise the logged weight.
func (s LoggedSet) LoadKg() float64 {
	if s.Bodyweight != nil {
		return s.Bodyweight.EffectiveLoadKg
	}
	return s.WeightKg
}

// Validate checks the raw fields of a set.
func (s LoggedSet) Validate() error {
	if s.Reps < 1 {
		return fmt.Errorf("%w: reps must be >= 1, got %d", ErrInvalidSetData, s.Reps)
	}
	if s.WeightKg < 0 {
		return fmt.Errorf("%w: weight must be >= 0, got %g", ErrInvalidSetData, s.WeightKg)
	}
	if s.RPE != nil && (*s.RPE < 1 || *s.RPE > 10) {
		return fmt.Errorf("%w: rpe must be within [1,10], got %g", ErrInvalidSetData, *s.RPE)
	}
	if s.RPE == nil && !s.IsWarmup {
		return fmt.Errorf("%w: rpe is required for working sets", ErrInvalidSetData)
	}
	return nil
}

// RepRange is an inclusive prescribed rep range.
type RepRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether reps falls within the range.
func (r RepRange) Contains(reps int) bool {
	return reps >= r.Min && reps <= r.Max
}

// Midpoint returns the middle of the range, rounded down.
func (r RepRange) Midpoint() int {
	return (r.Min + r.Max) / 2
}

// Validate checks 1 <= min <= max.
func (r RepRange) Validate() error {
	if r.Min < 1 || r.Min > r.Max {
		return fmt.Errorf("%w: rep range [%d,%d] must satisfy 1 <= min <= max", ErrInvalidSetData, r.Min, r.Max)
	}
	return nil
}

// ExerciseTarget is the caller-supplied prescription for an exercise.
type ExerciseTarget struct {
	TargetRepRange RepRange `json:"targetRepRange"`
	TargetRIR      int      `json:"targetRir"`
	TargetSets     int      `json:"targetSets"`
}

// Validate checks the prescription.
func (t ExerciseTarget) Validate() error {
	if err := t.TargetRepRange.Validate(); err != nil {
		return err
	}
	if t.TargetRIR < 0 {
		return fmt.Errorf("%w: target RIR must be >= 0, got %d", ErrInvalidSetData, t.TargetRIR)
	}
	if t.TargetSets < 1 {
		return fmt.Errorf("%w: target sets must be >= 1, got %d", ErrInvalidSetData, t.TargetSets)
	}
	return nil
}

// WarmupStep is one planned warm-up set.
type WarmupStep struct {
	SetNumber        int     `json:"setNumber"`
	PercentOfWorking float64 `json:"percentOfWorking"`
	WeightKg         float64 `json:"weightKg"`
	TargetReps       int     `json:"targetReps"`
	Purpose          string  `json:"purpose"`
	Label            string  `json:"label"`
	IsBarOnly        bool    `json:"isBarOnly"`
}

// RecordType is the kind of personal record.
type RecordType string

const (
	RecordE1RM   RecordType = "e1rm"
	RecordWeight RecordType = "weight"
	RecordReps   RecordType = "reps"
)

// PersonalRecord is a record detected for one exercise in one session.
type PersonalRecord struct {
	ExerciseID         string     `json:"exerciseId"`
	Type               RecordType `json:"type"`
	Value              float64    `json:"value"`
	Previous           float64    `json:"previous"`
	ImprovementPercent float64    `json:"improvementPercent,omitempty"`
	ImprovementReps    int        `json:"improvementReps,omitempty"`
}

// Baseline holds an exercise's historical bests.
type Baseline struct {
	ExerciseID   string  `json:"exerciseId"`
	BestE1RMKg   float64 `json:"bestE1rmKg"`
	BestWeightKg float64 `json:"bestWeightKg"`
	BestReps     int     `json:"bestReps"`
}

// IsEmpty reports whether the baseline carries no history at all.
func (b Baseline) IsEmpty() bool {
	return b.BestE1RMKg <= 0 && b.BestWeightKg <= 0 && b.BestReps <= 0
}

// ReadinessInput holds the pre-workout questionnaire. Ratings are 1-5 with 5
// the most favourable answer (best sleep, least stress, best nutrition).
type ReadinessInput struct {
	SleepHours      float64 `json:"sleepHours"`
	SleepQuality    int     `json:"sleepQuality"`
	StressLevel     int     `json:"stressLevel"`
	NutritionRating int     `json:"nutritionRating"`
}

// ReadinessBand is a qualitative readiness tier.
type ReadinessBand string

const (
	ReadinessWellRecovered ReadinessBand = "well_recovered"
	ReadinessAdequate      ReadinessBand = "adequate"
	ReadinessCaution       ReadinessBand = "caution"
	ReadinessLightSession  ReadinessBand = "light_session"
)

// ReadinessResult is the scored questionnaire.
type ReadinessResult struct {
	Score          int           `json:"score"`
	Band           ReadinessBand `json:"band"`
	Label          string        `json:"label"`
	Recommendation string        `json:"recommendation"`
}

// ReadinessCheckIn is a persisted readiness questionnaire.
type ReadinessCheckIn struct {
	ID        uuid.UUID       `json:"id"`
	UserID    int             `json:"userId"`
	Input     ReadinessInput  `json:"input"`
	Result    ReadinessResult `json:"result"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Session groups logged sets of one workout.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    int       `json:"userId"`
	Name      string    `json:"name"`
	StartedAt time.Time `json:"startedAt"`
}
