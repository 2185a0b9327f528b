package assignment

import "fmt"

// DepartureTimeChoice selects how a demand entry's earliest-departure
// window is turned into a concrete departure decision.
type DepartureTimeChoice int

const (
	Equal DepartureTimeChoice = iota
	DecisionModelWithoutAdaption
	DecisionModelWithAdaption
	Rooftop
)

// DecisionModelKind selects which decision-model variant the worker
// queries when choosing between alternatives.
type DecisionModelKind int

const (
	OptimalModel DecisionModelKind = iota
	LogitModel
	KirchhoffModel
	RelativeLogitModel
)

// Settings holds every tunable of the assignment run. Field names mirror
// spec.md §6 directly so a config file can be written against that list
// without translation.
type Settings struct {
	PassengerMultiplier int
	RandomSeed          int64

	ConvergenceLimit float64
	MaxIterations    int

	MaxDelay int64

	WaitingCosts          float64
	WalkingCosts          float64
	TransferCosts         float64
	FailureCosts          float64
	StrandingWaitingTime  float64

	CongestionEnterCosts  float64
	CongestionTravelCosts float64
	CongestionExitCosts   float64

	LoadFactorCutoff       float64
	LoadFactorSwitchPoint  float64
	LoadFactorCoefficient1 float64
	LoadFactorCoefficient2 float64

	AllowDepartureStops    bool
	DepartureTimeChoice    DepartureTimeChoice
	UseTransferBufferTimes bool

	DecisionModelKind   DecisionModelKind
	DecisionModelBeta   float64 // logit
	DecisionModelPower  float64 // kirchhoff
	OptimalTieBreakExpr string  // expr-lang expression, evaluated over tied alternatives

	NumThreads    int
	PinMultiplier int

	CheckpointEnabled bool
	CheckpointTTL     int64 // seconds
}

// DefaultSettings returns a Settings value with conservative, uncongested
// defaults: zero weighting costs, no congestion penalty, a single thread.
func DefaultSettings() Settings {
	return Settings{
		PassengerMultiplier:    1,
		RandomSeed:             1,
		ConvergenceLimit:       0.01,
		MaxIterations:          50,
		MaxDelay:               0,
		WaitingCosts:           0,
		WalkingCosts:           0,
		TransferCosts:          0,
		FailureCosts:           0,
		StrandingWaitingTime:   0,
		CongestionEnterCosts:   0,
		CongestionTravelCosts:  0,
		CongestionExitCosts:    0,
		LoadFactorCutoff:       0.8,
		LoadFactorSwitchPoint:  1.0,
		LoadFactorCoefficient1: 1,
		LoadFactorCoefficient2: 1,
		AllowDepartureStops:    true,
		DepartureTimeChoice:    Equal,
		UseTransferBufferTimes: false,
		DecisionModelKind:      OptimalModel,
		DecisionModelBeta:      1,
		DecisionModelPower:     2,
		NumThreads:             1,
		PinMultiplier:          1,
	}
}

// Validate enforces the invariants spec.md §6 places on settings. A
// violation is an input-shape error: fatal at setup, never retried.
func (s Settings) Validate() error {
	if s.PassengerMultiplier < 1 {
		return fmt.Errorf("assignment: passengerMultiplier must be >= 1, got %d", s.PassengerMultiplier)
	}
	if s.ConvergenceLimit <= 0 {
		return fmt.Errorf("assignment: convergenceLimit must be > 0, got %f", s.ConvergenceLimit)
	}
	if s.MaxDelay < 0 {
		return fmt.Errorf("assignment: maxDelay must be >= 0, got %d", s.MaxDelay)
	}
	for name, v := range map[string]float64{
		"waitingCosts": s.WaitingCosts, "walkingCosts": s.WalkingCosts,
		"transferCosts": s.TransferCosts, "failureCosts": s.FailureCosts,
		"strandingWaitingTime": s.StrandingWaitingTime,
		"congestionEnterCosts": s.CongestionEnterCosts, "congestionTravelCosts": s.CongestionTravelCosts,
		"congestionExitCosts": s.CongestionExitCosts,
		"loadFactorCoefficient1": s.LoadFactorCoefficient1, "loadFactorCoefficient2": s.LoadFactorCoefficient2,
	} {
		if v < 0 {
			return fmt.Errorf("assignment: %s must be >= 0, got %f", name, v)
		}
	}
	if s.LoadFactorCutoff > s.LoadFactorSwitchPoint {
		return fmt.Errorf("assignment: loadFactorCutoff (%f) must be <= loadFactorSwitchPoint (%f)", s.LoadFactorCutoff, s.LoadFactorSwitchPoint)
	}
	if s.NumThreads < 1 {
		return fmt.Errorf("assignment: numThreads must be >= 1, got %d", s.NumThreads)
	}
	if s.PinMultiplier < 1 {
		return fmt.Errorf("assignment: pinMultiplier must be >= 1, got %d", s.PinMultiplier)
	}
	return nil
}
