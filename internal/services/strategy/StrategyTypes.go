package strategy

import (
	"time"

	"StockBacktest/internal/models"
)

// StrategyKind selects which signal logic a run uses. The set is closed;
// adding a kind means adding a case to Manager.Evaluator.
type StrategyKind string

const (
	StrategyRSIMACD StrategyKind = "rsi_macd"
	StrategyW       StrategyKind = "w"
)

// StrategyParams is the immutable per-run configuration. Default values
// match the service's documented defaults and are applied with
// creasty/defaults before validation.
type StrategyParams struct {
	RSIPeriod               int     `json:"rsiPeriod" default:"14" validate:"gt=0"`
	RSIOversold             float64 `json:"rsiOversold" default:"35" validate:"gt=0,lte=100"`
	MACDFast                int     `json:"macdFast" default:"12" validate:"gt=0"`
	MACDSlow                int     `json:"macdSlow" default:"26" validate:"gtfield=MACDFast"`
	MACDSignal              int     `json:"macdSignal" default:"9" validate:"gt=0"`
	VolumeThreshold         float64 `json:"volumeThreshold" default:"1.5" validate:"gt=0"`
	VolumeLimit             float64 `json:"volumeLimit" default:"500" validate:"gte=0"`
	MaxPositionSize         float64 `json:"maxPositionSize" default:"0.25" validate:"gt=0,lte=1"`
	StopLoss                float64 `json:"stopLoss" default:"0.06" validate:"gt=0,lt=1"`
	StopProfit              float64 `json:"stopProfit" default:"0.12" validate:"gt=0"`
	ConfidenceThreshold     float64 `json:"confidenceThreshold" default:"0.6" validate:"gte=0,lte=1"`
	EnableTrailingStop      bool    `json:"enableTrailingStop" default:"true"`
	TrailingStopPercent     float64 `json:"trailingStopPercent" default:"0.05" validate:"gt=0,lt=1"`
	TrailingActivatePercent float64 `json:"trailingActivatePercent" default:"0.03" validate:"gte=0,lt=1"`
	EnableATRStop           bool    `json:"enableATRStop" default:"true"`
	ATRPeriod               int     `json:"atrPeriod" default:"14" validate:"gt=0"`
	ATRMultiplier           float64 `json:"atrMultiplier" default:"2.0" validate:"gt=0"`
	MinHoldingDays          int     `json:"minHoldingDays" default:"5" validate:"gte=0"`
	EnablePriceMomentum     bool    `json:"enablePriceMomentum" default:"true"`
	PriceMomentumPeriod     int     `json:"priceMomentumPeriod" default:"5" validate:"gt=0"`
	PriceMomentumThreshold  float64 `json:"priceMomentumThreshold" default:"0.03" validate:"gte=0"`
	EnableMA60              bool    `json:"enableMA60" default:"false"`
	MaxTotalExposure        float64 `json:"maxTotalExposure" default:"0.75" validate:"gt=0,lte=1"`
	HierarchicalDecision    bool    `json:"hierarchicalDecision" default:"true"`
	DynamicPositionSize     bool    `json:"dynamicPositionSize" default:"true"`
}

// BuySignal is the outcome of one buy evaluation.
type BuySignal struct {
	Signal     bool
	Reason     string
	Confidence float64
}

// SellSignal is the outcome of one sell evaluation.
type SellSignal struct {
	Signal bool
	Reason string
}

// RecoveryTracker follows one symbol's oversold episode across the whole
// run. It is reset when a buy fires or the recovery window is missed.
type RecoveryTracker struct {
	InOversold      bool
	OversoldDate    time.Time
	MinRSI          float64
	WaitingRecovery bool
}

func (t *RecoveryTracker) reset() {
	*t = RecoveryTracker{}
}

// Evaluator turns annotated bars into buy and sell intents. prev may be nil
// on the first bar of a series.
type Evaluator interface {
	EvaluateBuy(prev, bar *models.StockBar) BuySignal
	EvaluateSell(bar, prevBar *models.StockBar, pos *models.Position) SellSignal
}

func noBuy(reason string) BuySignal {
	return BuySignal{Signal: false, Reason: reason}
}

func noSell() SellSignal {
	return SellSignal{Signal: false}
}
