package backtest

import (
	"errors"
	"time"

	"StockBacktest/internal/models"
	"StockBacktest/internal/services/strategy"
)

// Taiwan market trading constants. Fees are baked into the execution
// multipliers: brokerage on both sides, transaction tax on the sell side.
const (
	BuyFeeMultiplier  = 1.001425
	SellFeeMultiplier = 0.995575
	LotSize           = 1000    // shares per lot
	MinNotional       = 10000.0 // NT$, orders at or below are skipped
	OrderLookaheadDay = 10      // calendar days to find an execution day
	ProfitFactorCap   = 999.0   // sentinel when there are wins but no losses
)

var (
	// ErrInsufficientData means no instrument in the run had usable history.
	ErrInsufficientData = errors.New("no usable price history for any stock")
	// ErrInvalidConfig means the run was rejected before simulating.
	ErrInvalidConfig = errors.New("invalid backtest configuration")
	// ErrDataGap marks a missing bar on an expected date; callers skip it.
	ErrDataGap = errors.New("no price bar for requested date")
)

// Config describes one backtest run.
type Config struct {
	Stocks         []string
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	Strategy       strategy.StrategyKind
	Params         strategy.StrategyParams
}

// Trade is one executed transaction in the ledger.
type Trade struct {
	Stock          string    `json:"stock"`
	Action         string    `json:"action"` // "buy" or "sell"
	Date           time.Time `json:"date"`
	Price          float64   `json:"price"`
	Quantity       int64     `json:"quantity"`
	Amount         float64   `json:"amount"`
	BuySignalDate  time.Time `json:"buySignalDate,omitempty"`
	SellSignalDate time.Time `json:"sellSignalDate,omitempty"`
	EntryDate      time.Time `json:"entryDate,omitempty"`
	EntryPrice     float64   `json:"entryPrice,omitempty"`
	HoldingDays    int       `json:"holdingDays,omitempty"`
	Profit         float64   `json:"profit,omitempty"`
	ProfitRate     float64   `json:"profitRate,omitempty"`
	Reason         string    `json:"reason"`
	Confidence     float64   `json:"confidence,omitempty"`
}

// EquityPoint is one day's capital snapshot.
type EquityPoint struct {
	Date      time.Time `json:"date"`
	Value     float64   `json:"value"`
	Cash      float64   `json:"cash"`
	Positions float64   `json:"positions"`
}

// PendingOrder is a buy or sell intent waiting for its execution day.
// TargetDate is nil when no trading day was found within the lookahead
// horizon; such orders are reported unresolved at run end.
type PendingOrder struct {
	Symbol     string           `json:"symbol"`
	Action     string           `json:"action"`
	SignalDate time.Time        `json:"signalDate"`
	TargetDate *time.Time       `json:"targetDate"`
	Confidence float64          `json:"confidence,omitempty"`
	Reason     string           `json:"reason"`
	Position   *models.Position `json:"-"`
}

// Performance is the capital-level summary of a run.
type Performance struct {
	InitialCapital float64 `json:"initialCapital"`
	FinalCapital   float64 `json:"finalCapital"`
	TotalReturn    float64 `json:"totalReturn"`
	AnnualReturn   float64 `json:"annualReturn"`
	TotalProfit    float64 `json:"totalProfit"`
	MaxDrawdown    float64 `json:"maxDrawdown"`
}

// TradeStats summarizes the closed trades of a run.
type TradeStats struct {
	TotalTrades    int     `json:"totalTrades"`
	WinningTrades  int     `json:"winningTrades"`
	LosingTrades   int     `json:"losingTrades"`
	WinRate        float64 `json:"winRate"`
	AvgWin         float64 `json:"avgWin"`
	AvgLoss        float64 `json:"avgLoss"`
	MaxWin         float64 `json:"maxWin"`
	MaxLoss        float64 `json:"maxLoss"`
	AvgHoldingDays float64 `json:"avgHoldingDays"`
	ProfitFactor   float64 `json:"profitFactor"`
}

// StockPerformance is the per-instrument breakdown.
type StockPerformance struct {
	Stock       string  `json:"stock"`
	Trades      int     `json:"trades"`
	WinRate     float64 `json:"winRate"`
	TotalProfit float64 `json:"totalProfit"`
}

// BacktestResults is the full report returned to the caller.
type BacktestResults struct {
	Performance      Performance        `json:"performance"`
	Trades           TradeStats         `json:"trades"`
	DetailedTrades   []Trade            `json:"detailedTrades"`
	EquityCurve      []EquityPoint      `json:"equityCurve"`
	StockPerformance []StockPerformance `json:"stockPerformance"`
	UnresolvedOrders []PendingOrder     `json:"unresolvedOrders,omitempty"`
	ExcludedStocks   []string           `json:"excludedStocks,omitempty"`
}

const (
	ActionBuy  = "buy"
	ActionSell = "sell"
)
