package decision

import (
	"math"
	"math/rand"
)

// Kirchhoff distributes probability proportional to PAT^-Power, the
// proportional-to-inverse-PAT-power rule named in §4.3.
type Kirchhoff struct {
	Power float64
}

func (m Kirchhoff) Distribute(alternatives []Alternative, rng *rand.Rand) []float64 {
	probabilities := make([]float64, len(alternatives))
	idx := reachable(alternatives)
	if len(idx) == 0 {
		return probabilities
	}

	var total float64
	weights := make([]float64, len(alternatives))
	for _, i := range idx {
		pat := alternatives[i].PAT
		if pat <= 0 {
			pat = 1e-9
		}
		w := math.Pow(pat, -m.Power)
		weights[i] = w
		total += w
	}
	for _, i := range idx {
		probabilities[i] = weights[i] / total
	}
	return probabilities
}
