package assignment

import (
	"math"
	"testing"
)

func TestRelativeLoad(t *testing.T) {
	d := ConnectionLoadData{Load: []float64{50, 0}, Capacity: []float64{100, 0}}
	if got := d.RelativeLoad(0); got != 0.5 {
		t.Errorf("RelativeLoad(0) = %v, want 0.5", got)
	}
	if got := d.RelativeLoad(1); !math.IsInf(got, 1) {
		t.Errorf("RelativeLoad with zero capacity = %v, want +Inf", got)
	}
}

func loadFactorSettings() Settings {
	s := DefaultSettings()
	s.LoadFactorCutoff = 0.5
	s.LoadFactorSwitchPoint = 1.0
	s.LoadFactorCoefficient1 = 2
	s.LoadFactorCoefficient2 = 3
	return s
}

func TestLoadFactorZeroBelowCutoff(t *testing.T) {
	s := loadFactorSettings()
	if got := LoadFactor(0.2, s); got != 0 {
		t.Errorf("LoadFactor below cutoff = %v, want 0", got)
	}
	if got := LoadFactor(s.LoadFactorCutoff, s); got != 0 {
		t.Errorf("LoadFactor at cutoff = %v, want 0", got)
	}
}

func TestLoadFactorQuadraticBetweenCutoffAndSwitch(t *testing.T) {
	s := loadFactorSettings()
	// rho = 0.75 -> delta = 0.25, phi = coeff1 * delta^2 = 2 * 0.0625 = 0.125
	got := LoadFactor(0.75, s)
	if math.Abs(got-0.125) > 1e-9 {
		t.Errorf("LoadFactor(0.75) = %v, want 0.125", got)
	}
}

func TestLoadFactorContinuousAtSwitchPoint(t *testing.T) {
	s := loadFactorSettings()
	justBelow := LoadFactor(s.LoadFactorSwitchPoint-1e-9, s)
	at := LoadFactor(s.LoadFactorSwitchPoint, s)
	justAbove := LoadFactor(s.LoadFactorSwitchPoint+1e-9, s)

	if math.Abs(justBelow-at) > 1e-6 {
		t.Errorf("LoadFactor discontinuous approaching the switch point from below: %v vs %v", justBelow, at)
	}
	if math.Abs(at-justAbove) > 1e-6 {
		t.Errorf("LoadFactor discontinuous approaching the switch point from above: %v vs %v", at, justAbove)
	}
}

func TestLoadFactorExponentialAboveSwitchPointIsIncreasing(t *testing.T) {
	s := loadFactorSettings()
	a := LoadFactor(1.5, s)
	b := LoadFactor(2.0, s)
	if !(b > a) {
		t.Errorf("LoadFactor should strictly increase with rho above the switch point: LoadFactor(1.5)=%v, LoadFactor(2.0)=%v", a, b)
	}
}

func TestBoardingProbability(t *testing.T) {
	if got := BoardingProbability(50, 100); got != 1 {
		t.Errorf("BoardingProbability under capacity = %v, want 1", got)
	}
	if got := BoardingProbability(100, 100); got != 1 {
		t.Errorf("BoardingProbability exactly at capacity = %v, want 1", got)
	}
	if got := BoardingProbability(200, 100); got != 0.5 {
		t.Errorf("BoardingProbability(200, 100) = %v, want 0.5", got)
	}
	if got := BoardingProbability(10, 0); got != 0 {
		t.Errorf("BoardingProbability with zero capacity = %v, want 0", got)
	}
}

func TestBoardingProbabilityDecreasesWithLoad(t *testing.T) {
	low := BoardingProbability(120, 100)
	high := BoardingProbability(300, 100)
	if !(low > high) {
		t.Errorf("BoardingProbability must decrease as load grows past capacity: %v (load120) vs %v (load300)", low, high)
	}
}
