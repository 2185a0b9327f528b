package assignment

import "math"

// ConnectionLoadData is the read-only load snapshot the PAT builder scans
// against: current per-connection load and capacity from the previous
// iteration's MSA average.
type ConnectionLoadData struct {
	Load     []float64
	Capacity []float64
}

// NewConnectionLoadData builds a load snapshot of the given size with
// every connection unloaded.
func NewConnectionLoadData(capacity []float64) ConnectionLoadData {
	return ConnectionLoadData{
		Load:     make([]float64, len(capacity)),
		Capacity: capacity,
	}
}

// RelativeLoad returns rho(c) = L[c] / cap[c].
func (d ConnectionLoadData) RelativeLoad(c int) float64 {
	if d.Capacity[c] <= 0 {
		return math.Inf(1)
	}
	return d.Load[c] / d.Capacity[c]
}

// LoadFactor computes phi(rho) per settings: zero below the cutoff,
// quadratic between cutoff and the switch point, exponential above it,
// continuous at the switch point by construction of k.
func LoadFactor(rho float64, s Settings) float64 {
	switch {
	case rho <= s.LoadFactorCutoff:
		return 0
	case rho <= s.LoadFactorSwitchPoint:
		delta := rho - s.LoadFactorCutoff
		return s.LoadFactorCoefficient1 * delta * delta
	default:
		switchDelta := s.LoadFactorSwitchPoint - s.LoadFactorCutoff
		k := s.LoadFactorCoefficient1*switchDelta*switchDelta - s.LoadFactorCoefficient2
		return s.LoadFactorCoefficient2*math.Exp(rho-s.LoadFactorSwitchPoint) + k
	}
}

// BoardingProbability is the probability a passenger attempting to board
// connection c succeeds, a decreasing function of relative load: 1 while
// uncongested, falling off as capacity/load once load exceeds capacity.
func BoardingProbability(load, capacity float64) float64 {
	if capacity <= 0 {
		return 0
	}
	if load <= capacity {
		return 1
	}
	return capacity / load
}
