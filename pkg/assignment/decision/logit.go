package decision

import (
	"math"
	"math/rand"
)

// Logit distributes probability over alternatives proportional to
// exp(-beta * PAT), the standard multinomial logit discrete-choice model.
type Logit struct {
	Beta float64
}

func (m Logit) Distribute(alternatives []Alternative, rng *rand.Rand) []float64 {
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

	var total float64
	weights := make([]float64, len(alternatives))
	for _, i := range idx {
		// Subtracting minPAT before exponentiating keeps the largest
		// weight at exp(0)==1 regardless of PAT's absolute scale.
		w := math.Exp(-m.Beta * (alternatives[i].PAT - minPAT))
		weights[i] = w
		total += w
	}
	for _, i := range idx {
		probabilities[i] = weights[i] / total
	}
	return probabilities
}
