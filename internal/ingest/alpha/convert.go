package alpha

import (
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/multierr"

	"github.com/claude/liftcalc/internal/load"
	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/quality"
)

// DefaultTargetRIR is the effort target assumed for imported exercises, which
// the export does not carry.
const DefaultTargetRIR = 2

// Options control how exported rows become logged sets.
type Options struct {
	// BodyweightKg resolves "+x" rows as weighted bodyweight sets. Without
	// it such rows are rejected.
	BodyweightKg float64
	TargetRIR    int
}

// Converted is one session ready for import.
type Converted struct {
	Session models.Session
	Sets    []models.LoggedSet
}

// Convert turns parsed sessions into logged sets. Rows that cannot be
// represented are dropped and reported together in the returned error, so a
// caller may still import the rest. Working sets are classified against the
// exported rep target.
func Convert(sessions []Session, opts Options) ([]Converted, error) {
	var errs error
	out := make([]Converted, 0, len(sessions))

	for _, s := range sessions {
		c := Converted{Session: models.Session{Name: s.Name, StartedAt: s.Date}}
		for _, ex := range s.Exercises {
			id := ExerciseID(ex.Name, ex.Equipment)
			var sets []models.LoggedSet
			for _, raw := range ex.Sets {
				set, err := convertSet(id, raw, opts)
				if err != nil {
					errs = multierr.Append(errs, fmt.Errorf("line %d: %s set %d: %w", raw.Line, ex.Name, raw.Number, err))
					continue
				}
				sets = append(sets, set)
			}

			classified, err := classify(sets, ex, opts)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", ex.Name, err))
				continue
			}
			c.Sets = append(c.Sets, classified...)
		}
		if len(c.Sets) > 0 {
			out = append(out, c)
		}
	}
	return out, errs
}

func convertSet(exerciseID string, raw Set, opts Options) (models.LoggedSet, error) {
	set := models.LoggedSet{
		ExerciseID: exerciseID,
		WeightKg:   raw.Weight,
		Reps:       raw.Reps,
		IsWarmup:   raw.IsWarmup,
	}
	if !raw.IsWarmup {
		if raw.RIR == UntrackedRIR {
			return models.LoggedSet{}, fmt.Errorf("%w: effort not tracked", models.ErrInvalidSetData)
		}
		rpe := max(1, min(10, 10-raw.RIR))
		set.RPE = &rpe
	}
	if err := set.Validate(); err != nil {
		return models.LoggedSet{}, err
	}

	if raw.IsBodyweightPlus {
		mod := models.ModificationWeighted
		if raw.Weight == 0 {
			mod = models.ModificationNone
		}
		bw, err := load.Resolve(load.Input{
			UserBodyweightKg: opts.BodyweightKg,
			Modification:     mod,
			AddedWeightKg:    raw.Weight,
		})
		if err != nil {
			return models.LoggedSet{}, err
		}
		set.Bodyweight = &bw
	}
	return set, nil
}

func classify(sets []models.LoggedSet, ex Exercise, opts Options) ([]models.LoggedSet, error) {
	working := 0
	for _, s := range sets {
		if !s.IsWarmup {
			working++
		}
	}
	if working == 0 || ex.TargetMin < 1 {
		return sets, nil
	}
	target := models.ExerciseTarget{
		TargetRepRange: models.RepRange{Min: ex.TargetMin, Max: ex.TargetMax},
		TargetRIR:      opts.TargetRIR,
		TargetSets:     working,
	}
	return quality.ClassifySession(sets, target)
}

// ExerciseID derives a stable identifier from an exercise's name and
// equipment, e.g. "Hack Squats", "Machine" -> "hack-squats-machine".
func ExerciseID(name, equipment string) string {
	var words []string
	for _, f := range strings.Fields(name + " " + equipment) {
		w := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, f)
		if w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, "-")
}
