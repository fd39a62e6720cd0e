package models

import "errors"

// Engine validation errors. Callers wrap them with detail via fmt.Errorf("%w: ...")
// and match with errors.Is.
var (
	// ErrInvalidSetData covers reps < 1, RPE outside [1,10], negative weights and
	// unknown enum values on a logged set.
	ErrInvalidSetData = errors.New("invalid set data")

	// ErrInvalidUnit is returned for unrecognized display units.
	ErrInvalidUnit = errors.New("invalid unit")

	// ErrMissingBodyweight is returned when a bodyweight-modified load is
	// resolved without a positive bodyweight.
	ErrMissingBodyweight = errors.New("missing bodyweight")

	// ErrInvalidReadinessInput covers out-of-range readiness questionnaire answers.
	ErrInvalidReadinessInput = errors.New("invalid readiness input")

	// ErrNotFound is returned by stores when a session or set does not exist.
	ErrNotFound = errors.New("not found")
)

// IsValidationError reports whether err is one of the engine validation errors,
// i.e. a caller mistake rather than an internal failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidSetData) ||
		errors.Is(err, ErrInvalidUnit) ||
		errors.Is(err, ErrMissingBodyweight) ||
		errors.Is(err, ErrInvalidReadinessInput)
}
