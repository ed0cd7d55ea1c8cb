package reputation

// Threshold is the discretized reputation band driving actor behavior.
type Threshold string

const (
	Hostile    Threshold = "hostile"
	Unfriendly Threshold = "unfriendly"
	Neutral    Threshold = "neutral"
	Friendly   Threshold = "friendly"
	Beloved    Threshold = "beloved"
)

// Score bounds and band boundaries. Ties go to the more extreme band:
// -80 is Hostile, -40 is Unfriendly, 40 is Friendly, 80 is Beloved.
const (
	MinScore = -100
	MaxScore = 100

	hostileMax    = -80
	unfriendlyMax = -40
	friendlyMin   = 40
	belovedMin    = 80
)

// ThresholdFor maps a score to its band.
func ThresholdFor(score int) Threshold {
	switch {
	case score <= hostileMax:
		return Hostile
	case score <= unfriendlyMax:
		return Unfriendly
	case score >= belovedMin:
		return Beloved
	case score >= friendlyMin:
		return Friendly
	default:
		return Neutral
	}
}

func clampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
