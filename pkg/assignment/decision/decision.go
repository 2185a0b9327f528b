// Package decision implements the decision-model capability of §4.3: a
// function from a set of PAT-valued alternatives to either a chosen
// alternative or a probability distribution over them. The PAT builder
// is oblivious to which variant is in use; only the assignment worker
// queries it.
package decision

import (
	"math"
	"math/rand"
)

// Alternative is one option a passenger is choosing between at a
// decision point: a label identifying it (used for deterministic tie
// breaking) and its perceived cost.
type Alternative struct {
	Label string
	PAT   float64
}

// Model maps a set of alternatives to a probability distribution over
// them, summing to 1 over reachable alternatives. An alternative with
// PAT == math.Inf(1) never receives positive probability.
type Model interface {
	Distribute(alternatives []Alternative, rng *rand.Rand) []float64
}

// Choose draws a single alternative's index from the distribution
// Distribute returns, using rng. The worker does not call Choose: it
// calls Distribute directly and draws one alternative for a whole demand
// entry with its own sampler, so an entry's units are not split across
// alternatives.
func Choose(m Model, alternatives []Alternative, rng *rand.Rand) int {
	probabilities := m.Distribute(alternatives, rng)
	draw := rng.Float64()
	cumulative := 0.0
	for i, p := range probabilities {
		cumulative += p
		if draw <= cumulative {
			return i
		}
	}
	return len(probabilities) - 1
}

func reachable(alternatives []Alternative) []int {
	idx := make([]int, 0, len(alternatives))
	for i, a := range alternatives {
		if !math.IsInf(a.PAT, 1) {
			idx = append(idx, i)
		}
	}
	return idx
}
