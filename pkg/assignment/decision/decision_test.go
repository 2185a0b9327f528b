package decision

import (
	"math"
	"math/rand"
	"testing"
)

func sumProbabilities(p []float64) float64 {
	total := 0.0
	for _, v := range p {
		total += v
	}
	return total
}

func TestLogitAssignsZeroToUnreachableAlternatives(t *testing.T) {
	m := Logit{Beta: 1}
	alts := []Alternative{
		{Label: "board", PAT: 10},
		{Label: "walk", PAT: math.Inf(1)},
	}
	p := m.Distribute(alts, rand.New(rand.NewSource(1)))
	if p[1] != 0 {
		t.Errorf("unreachable alternative got probability %v, want 0", p[1])
	}
	if math.Abs(sumProbabilities(p)-1) > 1e-9 {
		t.Errorf("probabilities sum to %v, want 1", sumProbabilities(p))
	}
}

func TestLogitPrefersLowerPAT(t *testing.T) {
	m := Logit{Beta: 1}
	alts := []Alternative{
		{Label: "cheap", PAT: 10},
		{Label: "expensive", PAT: 20},
	}
	p := m.Distribute(alts, rand.New(rand.NewSource(1)))
	if !(p[0] > p[1]) {
		t.Errorf("lower-PAT alternative should get more probability: p=%v", p)
	}
}

func TestLogitAllUnreachableReturnsAllZero(t *testing.T) {
	m := Logit{Beta: 1}
	alts := []Alternative{{Label: "a", PAT: math.Inf(1)}, {Label: "b", PAT: math.Inf(1)}}
	p := m.Distribute(alts, rand.New(rand.NewSource(1)))
	if sumProbabilities(p) != 0 {
		t.Errorf("with no reachable alternatives probabilities should sum to 0, got %v", sumProbabilities(p))
	}
}

func TestKirchhoffPrefersLowerPAT(t *testing.T) {
	m := Kirchhoff{Power: 2}
	alts := []Alternative{
		{Label: "cheap", PAT: 5},
		{Label: "expensive", PAT: 50},
	}
	p := m.Distribute(alts, rand.New(rand.NewSource(1)))
	if !(p[0] > p[1]) {
		t.Errorf("Kirchhoff should weight the lower-PAT alternative higher: p=%v", p)
	}
	if math.Abs(sumProbabilities(p)-1) > 1e-9 {
		t.Errorf("probabilities sum to %v, want 1", sumProbabilities(p))
	}
}

func TestRelativeLogitIsScaleInvariant(t *testing.T) {
	m := RelativeLogit{Beta: 2}
	base := []Alternative{{Label: "a", PAT: 10}, {Label: "b", PAT: 20}}
	shifted := []Alternative{{Label: "a", PAT: 110}, {Label: "b", PAT: 220}}

	p1 := m.Distribute(base, rand.New(rand.NewSource(1)))
	p2 := m.Distribute(shifted, rand.New(rand.NewSource(1)))

	for i := range p1 {
		if math.Abs(p1[i]-p2[i]) > 1e-9 {
			t.Errorf("RelativeLogit should depend only on the relative spread of PATs: p1=%v p2=%v", p1, p2)
		}
	}
}

func TestOptimalPicksMinimumPAT(t *testing.T) {
	m, err := NewOptimal("")
	if err != nil {
		t.Fatalf("NewOptimal: %v", err)
	}
	alts := []Alternative{
		{Label: "board", PAT: 30},
		{Label: "walk", PAT: 10},
		{Label: "transfer", PAT: 20},
	}
	p := m.Distribute(alts, rand.New(rand.NewSource(1)))
	if p[1] != 1 {
		t.Errorf("Optimal should assign all probability to the minimum-PAT alternative, got p=%v", p)
	}
}

func TestOptimalBreaksTiesByLabelWithoutExpression(t *testing.T) {
	m, err := NewOptimal("")
	if err != nil {
		t.Fatalf("NewOptimal: %v", err)
	}
	alts := []Alternative{
		{Label: "transfer", PAT: 10},
		{Label: "board", PAT: 10},
	}
	p := m.Distribute(alts, rand.New(rand.NewSource(1)))
	if p[1] != 1 {
		t.Errorf("tie should be broken in favor of the alphabetically-first label (board), got p=%v", p)
	}
}

func TestOptimalBreaksTiesWithExpression(t *testing.T) {
	m, err := NewOptimal(`label == "transfer" ? 1.0 : 0.0`)
	if err != nil {
		t.Fatalf("NewOptimal: %v", err)
	}
	alts := []Alternative{
		{Label: "transfer", PAT: 10},
		{Label: "board", PAT: 10},
	}
	p := m.Distribute(alts, rand.New(rand.NewSource(1)))
	if p[0] != 1 {
		t.Errorf("tie-break expression should favor transfer (score 1 over 0), got p=%v", p)
	}
}

func TestOptimalDeterministicAcrossRepeatedCalls(t *testing.T) {
	m, err := NewOptimal("")
	if err != nil {
		t.Fatalf("NewOptimal: %v", err)
	}
	alts := []Alternative{{Label: "a", PAT: 5}, {Label: "b", PAT: 5}}

	first := m.Distribute(alts, rand.New(rand.NewSource(1)))
	second := m.Distribute(alts, rand.New(rand.NewSource(99)))
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Optimal's choice must not depend on rng draw, got %v vs %v", first, second)
		}
	}
}

func TestChooseReturnsAnIndexWithinRange(t *testing.T) {
	m := Logit{Beta: 1}
	alts := []Alternative{{Label: "a", PAT: 1}, {Label: "b", PAT: 2}, {Label: "c", PAT: 3}}
	for seed := int64(0); seed < 20; seed++ {
		i := Choose(m, alts, rand.New(rand.NewSource(seed)))
		if i < 0 || i >= len(alts) {
			t.Fatalf("Choose returned out-of-range index %d", i)
		}
	}
}
