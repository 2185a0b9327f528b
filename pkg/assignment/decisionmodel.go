package assignment

import (
	"fmt"

	"github.com/travigo/capacity-assignment/pkg/assignment/decision"
)

// NewDecisionModel builds the decision.Model named by settings, compiling
// OptimalTieBreakExpr when the Optimal variant is selected.
func NewDecisionModel(s Settings) (decision.Model, error) {
	switch s.DecisionModelKind {
	case OptimalModel:
		return decision.NewOptimal(s.OptimalTieBreakExpr)
	case LogitModel:
		return decision.Logit{Beta: s.DecisionModelBeta}, nil
	case KirchhoffModel:
		return decision.Kirchhoff{Power: s.DecisionModelPower}, nil
	case RelativeLogitModel:
		return decision.RelativeLogit{Beta: s.DecisionModelBeta}, nil
	default:
		return nil, fmt.Errorf("assignment: unknown decision model kind %d", s.DecisionModelKind)
	}
}
