// Package units converts between kilograms and display units and rounds loads
// to loadable plate increments. Kilograms are the only storage unit.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/claude/liftcalc/internal/models"
)

// Unit is a display unit.
type Unit string

const (
	Kilograms Unit = "kg"
	Pounds    Unit = "lb"
)

const (
	// LbPerKg is the conversion factor used everywhere in the engine.
	LbPerKg = 2.20462

	KgIncrement = 2.5
	LbIncrement = 5.0
)

// ParseUnit parses a display unit string.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kg", "kgs":
		return Kilograms, nil
	case "lb", "lbs":
		return Pounds, nil
	}
	return "", fmt.Errorf("%w: %q", models.ErrInvalidUnit, s)
}

// UnmarshalText parses text with ParseUnit. JSON, YAML and flag values all
// decode through it. Empty text leaves the unit unset so callers can apply a
// default.
func (u *Unit) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*u = ""
		return nil
	}
	parsed, err := ParseUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Validate returns ErrInvalidUnit for anything but kg or lb.
func (u Unit) Validate() error {
	if u != Kilograms && u != Pounds {
		return fmt.Errorf("%w: %q", models.ErrInvalidUnit, string(u))
	}
	return nil
}

// ToDisplay converts kilograms to the display unit.
func ToDisplay(kg float64, unit Unit) (float64, error) {
	switch unit {
	case Kilograms:
		return kg, nil
	case Pounds:
		return kg * LbPerKg, nil
	}
	return 0, unit.Validate()
}

// ToKg converts a display value back to kilograms.
func ToKg(value float64, unit Unit) (float64, error) {
	switch unit {
	case Kilograms:
		return value, nil
	case Pounds:
		return value / LbPerKg, nil
	}
	return 0, unit.Validate()
}

// RoundToIncrement rounds kg to the nearest loadable increment of the unit:
// 2.5 kg, or 5 lb expressed back in kg. Zero and negative loads round to 0.
// Rounding an already rounded value returns it unchanged.
func RoundToIncrement(kg float64, unit Unit) (float64, error) {
	if err := unit.Validate(); err != nil {
		return 0, err
	}
	if kg <= 0 {
		return 0, nil
	}
	if unit == Kilograms {
		return math.Round(kg/KgIncrement) * KgIncrement, nil
	}
	lb := math.Round(kg*LbPerKg/LbIncrement) * LbIncrement
	return lb / LbPerKg, nil
}

// Increment returns one plate increment of the unit in kg.
func Increment(unit Unit) (float64, error) {
	switch unit {
	case Kilograms:
		return KgIncrement, nil
	case Pounds:
		return LbIncrement / LbPerKg, nil
	}
	return 0, unit.Validate()
}

// Format renders kg in the display unit with at most one decimal,
// e.g. "102.5 kg" or "225 lb".
func Format(kg float64, unit Unit) (string, error) {
	v, err := ToDisplay(kg, unit)
	if err != nil {
		return "", err
	}
	v = math.Round(v*10) / 10
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + string(unit), nil
}
