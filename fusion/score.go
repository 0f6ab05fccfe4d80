package fusion

import "fmt"

// Strategy is a named confidence-adjustment policy applied during scoring.
type Strategy string

const (
	// StrategyConservative discounts base confidence (multiplier 0.8).
	StrategyConservative Strategy = "conservative"
	// StrategyComprehensive leaves base confidence unchanged (multiplier 1.0).
	StrategyComprehensive Strategy = "comprehensive"
	// StrategyAggressive inflates base confidence (multiplier 1.2).
	StrategyAggressive Strategy = "aggressive"
)

// Multiplier returns the strategy's base-confidence multiplier.
func (s Strategy) Multiplier() (float64, error) {
	switch s {
	case StrategyConservative:
		return 0.8, nil
	case StrategyComprehensive, "":
		return 1.0, nil
	case StrategyAggressive:
		return 1.2, nil
	default:
		return 0, fmt.Errorf("unknown fusion strategy %q", string(s))
	}
}

const (
	maxSourceBonus       = 0.2
	perSourceBonus       = 0.05
	completenessBonusCap = 0.2
)

// Score computes the entity's final confidence:
//
//	min(1.0, base*multiplier + min(0.2, sources*0.05) + completeness*0.2)
//
// and writes it back onto the entity. Enrich must run first so completeness
// and source diversity are populated.
func Score(e *Entity, strategy Strategy) error {
	mult, err := strategy.Multiplier()
	if err != nil {
		return err
	}

	sourceBonus := float64(e.SourceDiversity) * perSourceBonus
	if sourceBonus > maxSourceBonus {
		sourceBonus = maxSourceBonus
	}
	completenessBonus := e.Completeness * completenessBonusCap

	final := e.Confidence*mult + sourceBonus + completenessBonus
	if final > 1.0 {
		final = 1.0
	}
	if final < 0 {
		final = 0
	}
	e.Confidence = final
	return nil
}

// ScoreAll applies Score to every entity, stopping on the first error.
func ScoreAll(entities []*Entity, strategy Strategy) error {
	for _, e := range entities {
		if err := Score(e, strategy); err != nil {
			return err
		}
	}
	return nil
}
