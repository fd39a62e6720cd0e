// Package load resolves the effective load of bodyweight exercises from their
// modification mode (none, weighted, assisted).
package load

import (
	"fmt"
	"math"

	"github.com/claude/liftcalc/internal/models"
)

// Input holds the raw fields a BodyweightLoad is recomputed from.
type Input struct {
	UserBodyweightKg   float64               `json:"userBodyweightKg"`
	Modification       models.Modification   `json:"modification"`
	AddedWeightKg      float64               `json:"addedWeightKg,omitempty"`
	AssistanceWeightKg float64               `json:"assistanceWeightKg,omitempty"`
	AssistanceType     models.AssistanceType `json:"assistanceType,omitempty"`
	BandColor          models.BandColor      `json:"bandColor,omitempty"`
}

// EffectiveLoad returns the load that counts toward stimulus. Absent optional
// weights are passed as 0; negative ones are treated as 0. The result is never
// negative and equals bodyweightKg exactly when mod is none. A bodyweight that
// is not positive fails with ErrMissingBodyweight.
func EffectiveLoad(bodyweightKg float64, mod models.Modification, addedKg, assistKg float64) (float64, error) {
	if bodyweightKg <= 0 || math.IsNaN(bodyweightKg) || math.IsInf(bodyweightKg, 0) {
		return 0, fmt.Errorf("%w: bodyweight must be > 0, got %g", models.ErrMissingBodyweight, bodyweightKg)
	}
	if math.IsNaN(addedKg) || math.IsNaN(assistKg) {
		return 0, fmt.Errorf("%w: added and assistance weight must be numbers", models.ErrInvalidSetData)
	}
	switch mod {
	case models.ModificationNone, "":
		return bodyweightKg, nil
	case models.ModificationWeighted:
		return bodyweightKg + math.Max(0, addedKg), nil
	case models.ModificationAssisted:
		return math.Max(0, bodyweightKg-math.Max(0, assistKg)), nil
	}
	return 0, fmt.Errorf("%w: unknown modification %q", models.ErrInvalidSetData, mod)
}

// Resolve validates in and recomputes the whole BodyweightLoad from it. For band
// assistance the entered assistance weight is replaced by the band's preset.
func Resolve(in Input) (models.BodyweightLoad, error) {
	if in.UserBodyweightKg <= 0 || math.IsNaN(in.UserBodyweightKg) || math.IsInf(in.UserBodyweightKg, 0) {
		return models.BodyweightLoad{}, fmt.Errorf("%w: bodyweight must be > 0, got %g", models.ErrMissingBodyweight, in.UserBodyweightKg)
	}
	if in.AddedWeightKg < 0 {
		return models.BodyweightLoad{}, fmt.Errorf("%w: added weight must be >= 0, got %g", models.ErrInvalidSetData, in.AddedWeightKg)
	}
	if in.AssistanceWeightKg < 0 {
		return models.BodyweightLoad{}, fmt.Errorf("%w: assistance weight must be >= 0, got %g", models.ErrInvalidSetData, in.AssistanceWeightKg)
	}

	mod := in.Modification
	if mod == "" {
		mod = models.ModificationNone
	}

	out := models.BodyweightLoad{
		UserBodyweightKg: in.UserBodyweightKg,
		Modification:     mod,
	}

	switch mod {
	case models.ModificationNone:
	case models.ModificationWeighted:
		out.AddedWeightKg = in.AddedWeightKg
	case models.ModificationAssisted:
		assist, err := assistance(in)
		if err != nil {
			return models.BodyweightLoad{}, err
		}
		out.AssistanceType = in.AssistanceType
		out.AssistanceWeightKg = assist
		if in.AssistanceType == models.AssistanceBand {
			out.BandColor = in.BandColor
		}
	default:
		return models.BodyweightLoad{}, fmt.Errorf("%w: unknown modification %q", models.ErrInvalidSetData, mod)
	}

	eff, err := EffectiveLoad(out.UserBodyweightKg, out.Modification, out.AddedWeightKg, out.AssistanceWeightKg)
	if err != nil {
		return models.BodyweightLoad{}, err
	}
	out.EffectiveLoadKg = eff
	return out, nil
}

func assistance(in Input) (float64, error) {
	switch in.AssistanceType {
	case models.AssistanceMachine, models.AssistancePartner, "":
		return in.AssistanceWeightKg, nil
	case models.AssistanceBand:
		preset, ok := BandPresetKg(in.BandColor)
		if !ok {
			return 0, fmt.Errorf("%w: unknown band color %q", models.ErrInvalidSetData, in.BandColor)
		}
		return preset, nil
	}
	return 0, fmt.Errorf("%w: unknown assistance type %q", models.ErrInvalidSetData, in.AssistanceType)
}
