package load

import (
	"github.com/claude/liftcalc/internal/models"
	"github.com/claude/liftcalc/internal/units"
)

// BandPreset is the fixed equivalent assistance of a resistance band. Bands
// assist more at the bottom of the movement than at the top, so a single value
// taken at the midpoint of the manufacturer's range stands in for the curve.
type BandPreset struct {
	Color models.BandColor `json:"color"`
	Name  string           `json:"name"`
	MinLb float64          `json:"minLb"`
	MaxLb float64          `json:"maxLb"`
	Kg    float64          `json:"kg"`
}

// bandTiers lists the five tiers from lightest to heaviest.
var bandTiers = []struct {
	color        models.BandColor
	name         string
	minLb, maxLb float64
}{
	{models.BandYellow, "Yellow", 5, 15},
	{models.BandRed, "Red", 15, 35},
	{models.BandBlack, "Black", 25, 65},
	{models.BandPurple, "Purple", 35, 85},
	{models.BandGreen, "Green", 50, 125},
}

var bandPresets = buildBandPresets()

func buildBandPresets() map[models.BandColor]BandPreset {
	m := make(map[models.BandColor]BandPreset, len(bandTiers))
	for _, t := range bandTiers {
		mid := (t.minLb + t.maxLb) / 2
		kg, _ := units.ToKg(mid, units.Pounds)
		m[t.color] = BandPreset{
			Color: t.color,
			Name:  t.name,
			MinLb: t.minLb,
			MaxLb: t.maxLb,
			Kg:    kg,
		}
	}
	return m
}

// BandPresetKg returns the equivalent assistance in kg for a band color.
func BandPresetKg(color models.BandColor) (float64, bool) {
	p, ok := bandPresets[color]
	return p.Kg, ok
}

// BandPresets returns the preset table ordered from lightest to heaviest.
func BandPresets() []BandPreset {
	out := make([]BandPreset, 0, len(bandTiers))
	for _, t := range bandTiers {
		out = append(out, bandPresets[t.color])
	}
	return out
}
