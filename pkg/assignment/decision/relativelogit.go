package decision

import (
	"math"
	"math/rand"
)

// RelativeLogit is the logit model applied to each alternative's PAT
// relative to the best available PAT, rather than to the absolute PAT:
// weight(i) = exp(-beta * (PAT[i]/minPAT - 1)). Two demand entries whose
// absolute PATs differ by a constant factor but whose relative spread is
// identical produce the same distribution, unlike plain Logit.
type RelativeLogit struct {
	Beta float64
}

func (m RelativeLogit) Distribute(alternatives []Alternative, rng *rand.Rand) []float64 {
	probabilities := make([]float64, len(alternatives))
	idx := reachable(alternatives)
	if len(idx) == 0 {
		return probabilities
	}

	minPAT := math.Inf(1)
	for _, i := range idx {
		if alternatives[i].PAT < minPAT {
			minPAT = alternatives[i].PAT
		}
	}
	if minPAT <= 0 {
		minPAT = 1e-9
	}

	var total float64
	weights := make([]float64, len(alternatives))
	for _, i := range idx {
		relative := alternatives[i].PAT/minPAT - 1
		w := math.Exp(-m.Beta * relative)
		weights[i] = w
		total += w
	}
	for _, i := range idx {
		probabilities[i] = weights[i] / total
	}
	return probabilities
}
