package strategy

import (
	"fmt"
)

// StrategyManager builds the evaluator for a run from its kind and
// parameters. Kinds form a closed set; an unknown kind is a configuration
// error, not a fallback.
type StrategyManager struct{}

func NewStrategyManager() *StrategyManager {
	return &StrategyManager{}
}

// Evaluator returns a fresh evaluator for the kind. Each run gets its own
// instance so recovery trackers never leak between runs.
func (m *StrategyManager) Evaluator(kind StrategyKind, params StrategyParams) (Evaluator, error) {
	switch kind {
	case StrategyRSIMACD:
		return NewRSIMACDStrategy(params), nil
	case StrategyW:
		return NewWStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", kind)
	}
}

// Validate rejects parameter combinations the simulation cannot run with.
func (m *StrategyManager) Validate(params StrategyParams) error {
	if params.RSIPeriod <= 0 {
		return fmt.Errorf("rsiPeriod must be positive, got %d", params.RSIPeriod)
	}
	if params.MACDSlow <= params.MACDFast {
		return fmt.Errorf("macdSlow %d must exceed macdFast %d", params.MACDSlow, params.MACDFast)
	}
	if params.MACDSignal <= 0 {
		return fmt.Errorf("macdSignal must be positive, got %d", params.MACDSignal)
	}
	if params.MaxPositionSize <= 0 || params.MaxPositionSize > 1 {
		return fmt.Errorf("maxPositionSize must be in (0,1], got %.4f", params.MaxPositionSize)
	}
	if params.MaxTotalExposure <= 0 || params.MaxTotalExposure > 1 {
		return fmt.Errorf("maxTotalExposure must be in (0,1], got %.4f", params.MaxTotalExposure)
	}
	if params.StopLoss <= 0 || params.StopProfit <= 0 {
		return fmt.Errorf("stopLoss and stopProfit must be positive")
	}
	return nil
}
