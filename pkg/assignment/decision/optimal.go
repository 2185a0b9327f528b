package decision

import (
	"math"
	"math/rand"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Optimal always assigns all probability to the minimum-PAT alternative.
// Ties are broken deterministically: by TieBreakExpr if one is set
// (evaluated per tied alternative, highest score wins), otherwise by
// Label order, so repeated runs with identical inputs pick the same
// alternative every time.
type Optimal struct {
	program *vm.Program
}

// NewOptimal compiles tieBreakExpr, an expr-lang expression evaluated
// against env{"label": string, "pat": float64} for each tied
// alternative; the alternative with the highest resulting score wins.
// An empty expression disables scoring and falls back to label order.
func NewOptimal(tieBreakExpr string) (*Optimal, error) {
	if tieBreakExpr == "" {
		return &Optimal{}, nil
	}
	program, err := expr.Compile(tieBreakExpr, expr.Env(tieBreakEnv{}))
	if err != nil {
		return nil, err
	}
	return &Optimal{program: program}, nil
}

type tieBreakEnv struct {
	Label string  `expr:"label"`
	PAT   float64 `expr:"pat"`
}

func (m *Optimal) Distribute(alternatives []Alternative, rng *rand.Rand) []float64 {
	probabilities := make([]float64, len(alternatives))
	idx := reachable(alternatives)
	if len(idx) == 0 {
		return probabilities
	}

	best := math.Inf(1)
	var tied []int
	for _, i := range idx {
		switch {
		case alternatives[i].PAT < best:
			best = alternatives[i].PAT
			tied = []int{i}
		case alternatives[i].PAT == best:
			tied = append(tied, i)
		}
	}

	winner := tied[0]
	if len(tied) > 1 {
		winner = m.breakTie(alternatives, tied)
	}
	probabilities[winner] = 1
	return probabilities
}

func (m *Optimal) breakTie(alternatives []Alternative, tied []int) int {
	if m.program == nil {
		sort.Slice(tied, func(a, b int) bool { return alternatives[tied[a]].Label < alternatives[tied[b]].Label })
		return tied[0]
	}

	best := tied[0]
	bestScore := m.score(alternatives[best])
	for _, i := range tied[1:] {
		score := m.score(alternatives[i])
		if score > bestScore || (score == bestScore && alternatives[i].Label < alternatives[best].Label) {
			best, bestScore = i, score
		}
	}
	return best
}

func (m *Optimal) score(a Alternative) float64 {
	out, err := expr.Run(m.program, tieBreakEnv{Label: a.Label, PAT: a.PAT})
	if err != nil {
		return math.Inf(-1)
	}
	f, ok := out.(float64)
	if !ok {
		return math.Inf(-1)
	}
	return f
}
