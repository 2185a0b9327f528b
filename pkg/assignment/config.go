package assignment

import (
	"fmt"
	"os"
	"time"

	"github.com/senseyeio/duration"
	"gopkg.in/yaml.v3"
)

// configFile is the YAML shape Settings is loaded from. Duration-valued
// fields accept either a plain integer (already in the engine's time
// unit) or an ISO-8601 duration string ("PT90S"), matching how the rest
// of the config file expresses costs as plain numbers.
type configFile struct {
	PassengerMultiplier int     `yaml:"passengerMultiplier"`
	RandomSeed          int64   `yaml:"randomSeed"`
	ConvergenceLimit    float64 `yaml:"convergenceLimit"`
	MaxIterations       int     `yaml:"maxIterations"`

	MaxDelay             yamlDuration `yaml:"maxDelay"`
	StrandingWaitingTime float64      `yaml:"strandingWaitingTime"`

	WaitingCosts  float64 `yaml:"waitingCosts"`
	WalkingCosts  float64 `yaml:"walkingCosts"`
	TransferCosts float64 `yaml:"transferCosts"`
	FailureCosts  float64 `yaml:"failureCosts"`

	CongestionEnterCosts  float64 `yaml:"congestionEnterCosts"`
	CongestionTravelCosts float64 `yaml:"congestionTravelCosts"`
	CongestionExitCosts   float64 `yaml:"congestionExitCosts"`

	LoadFactorCutoff       float64 `yaml:"loadFactorCutoff"`
	LoadFactorSwitchPoint  float64 `yaml:"loadFactorSwitchPoint"`
	LoadFactorCoefficient1 float64 `yaml:"loadFactorCoefficient1"`
	LoadFactorCoefficient2 float64 `yaml:"loadFactorCoefficient2"`

	AllowDepartureStops    bool   `yaml:"allowDepartureStops"`
	DepartureTimeChoice    string `yaml:"departureTimeChoice"`
	UseTransferBufferTimes bool   `yaml:"useTransferBufferTimes"`

	DecisionModel       string  `yaml:"decisionModel"`
	DecisionModelBeta   float64 `yaml:"decisionModelBeta"`
	DecisionModelPower  float64 `yaml:"decisionModelPower"`
	OptimalTieBreakExpr string  `yaml:"optimalTieBreakExpr"`

	NumThreads    int `yaml:"numThreads"`
	PinMultiplier int `yaml:"pinMultiplier"`

	CheckpointEnabled bool         `yaml:"checkpointEnabled"`
	CheckpointTTL     yamlDuration `yaml:"checkpointTTL"`
}

// yamlDuration accepts either a bare integer (seconds, already in the
// engine's time unit) or an ISO-8601 duration string.
type yamlDuration int64

func (d *yamlDuration) UnmarshalYAML(value *yaml.Node) error {
	var asInt int64
	if err := value.Decode(&asInt); err == nil {
		*d = yamlDuration(asInt)
		return nil
	}

	var asString string
	if err := value.Decode(&asString); err != nil {
		return fmt.Errorf("assignment: duration value must be an integer or ISO-8601 string: %w", err)
	}

	parsed, err := duration.ParseISO8601(asString)
	if err != nil {
		return fmt.Errorf("assignment: parsing ISO-8601 duration %q: %w", asString, err)
	}
	epoch := time.Unix(0, 0).UTC()
	*d = yamlDuration(parsed.Shift(epoch).Sub(epoch) / time.Second)
	return nil
}

var departureTimeChoiceByName = map[string]DepartureTimeChoice{
	"Equal":                        Equal,
	"DecisionModelWithoutAdaption": DecisionModelWithoutAdaption,
	"DecisionModelWithAdaption":    DecisionModelWithAdaption,
	"Rooftop":                      Rooftop,
}

var decisionModelByName = map[string]DecisionModelKind{
	"Optimal":       OptimalModel,
	"Logit":         LogitModel,
	"Kirchhoff":     KirchhoffModel,
	"RelativeLogit": RelativeLogitModel,
}

// LoadSettings reads a YAML settings file, applies DefaultSettings for
// anything the file leaves at its zero value, validates the result, and
// returns it. A malformed or invariant-violating file is an input-shape
// error per spec.md §7.
func LoadSettings(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assignment: reading settings file: %w", err)
	}

	var file configFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("assignment: parsing settings file: %w", err)
	}

	settings := DefaultSettings()
	if file.PassengerMultiplier != 0 {
		settings.PassengerMultiplier = file.PassengerMultiplier
	}
	if file.RandomSeed != 0 {
		settings.RandomSeed = file.RandomSeed
	}
	if file.ConvergenceLimit != 0 {
		settings.ConvergenceLimit = file.ConvergenceLimit
	}
	if file.MaxIterations != 0 {
		settings.MaxIterations = file.MaxIterations
	}
	settings.MaxDelay = int64(file.MaxDelay)
	settings.StrandingWaitingTime = file.StrandingWaitingTime
	settings.WaitingCosts = file.WaitingCosts
	settings.WalkingCosts = file.WalkingCosts
	settings.TransferCosts = file.TransferCosts
	settings.FailureCosts = file.FailureCosts
	settings.CongestionEnterCosts = file.CongestionEnterCosts
	settings.CongestionTravelCosts = file.CongestionTravelCosts
	settings.CongestionExitCosts = file.CongestionExitCosts
	if file.LoadFactorCutoff != 0 {
		settings.LoadFactorCutoff = file.LoadFactorCutoff
	}
	if file.LoadFactorSwitchPoint != 0 {
		settings.LoadFactorSwitchPoint = file.LoadFactorSwitchPoint
	}
	if file.LoadFactorCoefficient1 != 0 {
		settings.LoadFactorCoefficient1 = file.LoadFactorCoefficient1
	}
	if file.LoadFactorCoefficient2 != 0 {
		settings.LoadFactorCoefficient2 = file.LoadFactorCoefficient2
	}
	settings.AllowDepartureStops = file.AllowDepartureStops
	settings.UseTransferBufferTimes = file.UseTransferBufferTimes
	if file.DepartureTimeChoice != "" {
		choice, ok := departureTimeChoiceByName[file.DepartureTimeChoice]
		if !ok {
			return nil, fmt.Errorf("assignment: unknown departureTimeChoice %q", file.DepartureTimeChoice)
		}
		settings.DepartureTimeChoice = choice
	}
	if file.DecisionModel != "" {
		kind, ok := decisionModelByName[file.DecisionModel]
		if !ok {
			return nil, fmt.Errorf("assignment: unknown decisionModel %q", file.DecisionModel)
		}
		settings.DecisionModelKind = kind
	}
	if file.DecisionModelBeta != 0 {
		settings.DecisionModelBeta = file.DecisionModelBeta
	}
	if file.DecisionModelPower != 0 {
		settings.DecisionModelPower = file.DecisionModelPower
	}
	settings.OptimalTieBreakExpr = file.OptimalTieBreakExpr
	if file.NumThreads != 0 {
		settings.NumThreads = file.NumThreads
	}
	if file.PinMultiplier != 0 {
		settings.PinMultiplier = file.PinMultiplier
	}
	settings.CheckpointEnabled = file.CheckpointEnabled
	settings.CheckpointTTL = int64(file.CheckpointTTL)

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}
