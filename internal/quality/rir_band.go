package quality

// RIRBand buckets reps in reserve the same way the training intensity report
// does: failure, near_failure, moderate, easy, very_easy.
type RIRBand string

const (
	BandFailure     RIRBand = "failure"
	BandNearFailure RIRBand = "near_failure"
	BandModerate    RIRBand = "moderate"
	BandEasy        RIRBand = "easy"
	BandVeryEasy    RIRBand = "very_easy"
)

// Bands lists RIR bands from hardest to easiest.
var Bands = []RIRBand{BandFailure, BandNearFailure, BandModerate, BandEasy, BandVeryEasy}

// BandForRIR returns the band of an RIR value.
func BandForRIR(rir float64) RIRBand {
	switch {
	case rir <= 0:
		return BandFailure
	case rir <= 1:
		return BandNearFailure
	case rir <= 2:
		return BandModerate
	case rir <= 3:
		return BandEasy
	default:
		return BandVeryEasy
	}
}

// BandForRPE returns the band of the RIR implied by an RPE.
func BandForRPE(rpe float64) RIRBand {
	return BandForRIR(ActualRIR(rpe))
}
