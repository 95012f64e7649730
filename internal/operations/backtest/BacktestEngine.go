package backtest

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"StockBacktest/internal/helpers"
	"StockBacktest/internal/models"
	"StockBacktest/internal/services/indicators"
	"StockBacktest/internal/services/strategy"
)

// warmupDays of extra history are loaded before the start date so the
// longest indicator window (MA60) is populated when the simulation begins.
const warmupDays = 180

// PriceSource supplies chronologically sorted daily bars for one symbol.
type PriceSource interface {
	GetHistory(symbol string, start, end time.Time) ([]models.StockBar, error)
}

// Engine drives one backtest run: it loads and annotates each symbol's
// history, then replays the date range day by day through the signal
// evaluator and the order simulator, and aggregates the report.
type Engine struct {
	source          PriceSource
	indicatorSvc    *indicators.IndicatorService
	strategyManager *strategy.StrategyManager
}

func NewEngine(source PriceSource, strategyManager *strategy.StrategyManager) *Engine {
	return &Engine{
		source:          source,
		indicatorSvc:    indicators.NewIndicatorService(),
		strategyManager: strategyManager,
	}
}

// symbolSeries is one symbol's annotated history plus a date index into it.
type symbolSeries struct {
	symbol string
	bars   []models.StockBar
	byDate map[time.Time]int
}

// Run executes the backtest described by cfg. Symbols whose history cannot
// be loaded are excluded and reported; the run fails only when none remain.
func (e *Engine) Run(cfg Config) (*BacktestResults, error) {
	if err := e.validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	evaluator, err := e.strategyManager.Evaluator(cfg.Strategy, cfg.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	start := NormalizeDate(cfg.StartDate)
	end := NormalizeDate(cfg.EndDate)

	series, excluded := e.loadSeries(cfg, start, end)
	if len(series) == 0 {
		return nil, ErrInsufficientData
	}

	// Market calendar: the union of every loaded symbol's bar dates inside
	// the run window.
	tradingDays := make(map[time.Time]bool)
	for _, ss := range series {
		for d := range ss.byDate {
			if !d.Before(start) && !d.After(end) {
				tradingDays[d] = true
			}
		}
	}
	dates := make([]time.Time, 0, len(tradingDays))
	for d := range tradingDays {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	sim := NewOrderSimulator(cfg.InitialCapital, cfg.Params, tradingDays)
	equityCurve := make([]EquityPoint, 0, len(dates))

	// The day loop is strictly sequential and symbols run in the caller's
	// order: cash is one shared pool, so reordering changes results.
	for _, date := range dates {
		for _, ss := range series {
			if idx, ok := ss.byDate[date]; ok {
				sim.MarkPrice(ss.symbol, ss.bars[idx].Close)
			}
		}

		for _, ss := range series {
			var bar, prev *models.StockBar
			if idx, ok := ss.byDate[date]; ok {
				bar = &ss.bars[idx]
				if idx > 0 {
					prev = &ss.bars[idx-1]
				}
			}

			if err := sim.ExecuteDueSell(ss.symbol, date, bar); errors.Is(err, ErrDataGap) {
				helpers.Logger.Debugf("pending sell pushed past gap: %v", err)
			}
			if err := sim.ExecuteDueBuy(ss.symbol, date, bar); errors.Is(err, ErrDataGap) {
				helpers.Logger.Debugf("pending buy pushed past gap: %v", err)
			}

			if bar != nil {
				if pos := sim.Position(ss.symbol); pos != nil {
					if !sim.HasPendingSell(ss.symbol) {
						if sig := evaluator.EvaluateSell(bar, prev, pos); sig.Signal {
							sim.PlaceSell(ss.symbol, date, sig)
						}
					}
				} else if !sim.HasPendingBuy(ss.symbol) {
					if sig := evaluator.EvaluateBuy(prev, bar); sig.Signal {
						sim.PlaceBuy(ss.symbol, date, sig)
					}
				}
			}

			sim.RefreshStops(ss.symbol, bar)
		}

		equityCurve = append(equityCurve, sim.EquitySnapshot(date))
	}

	results := AggregateResults(cfg.InitialCapital, sim.Trades(), equityCurve, start, end)
	results.UnresolvedOrders = sim.UnresolvedOrders()
	results.ExcludedStocks = excluded

	helpers.Logger.Infof("backtest done: %d trading days, %d trades, final capital %.0f",
		len(dates), len(sim.Trades()), results.Performance.FinalCapital)

	return results, nil
}

// loadSeries fetches and annotates every symbol's history. Failures and
// empty histories exclude the symbol, not the run.
func (e *Engine) loadSeries(cfg Config, start, end time.Time) ([]*symbolSeries, []string) {
	indicatorCfg := indicators.Config{
		RSIPeriod:      cfg.Params.RSIPeriod,
		MACDFast:       cfg.Params.MACDFast,
		MACDSlow:       cfg.Params.MACDSlow,
		MACDSignal:     cfg.Params.MACDSignal,
		ATRPeriod:      cfg.Params.ATRPeriod,
		MomentumPeriod: cfg.Params.PriceMomentumPeriod,
		EnableMA60:     cfg.Params.EnableMA60,
		EnableMomentum: cfg.Params.EnablePriceMomentum,
	}

	extendedStart := start.AddDate(0, 0, -warmupDays)

	var series []*symbolSeries
	var excluded []string
	for _, symbol := range cfg.Stocks {
		bars, err := e.source.GetHistory(symbol, extendedStart, end)
		if err != nil {
			helpers.Logger.Warnf("excluding %s: history load failed: %v", symbol, err)
			excluded = append(excluded, symbol)
			continue
		}
		if len(bars) == 0 {
			helpers.Logger.Warnf("excluding %s: no price history", symbol)
			excluded = append(excluded, symbol)
			continue
		}

		e.indicatorSvc.Annotate(bars, indicatorCfg)

		byDate := make(map[time.Time]int, len(bars))
		for i := range bars {
			byDate[NormalizeDate(bars[i].TradeDate)] = i
		}

		series = append(series, &symbolSeries{
			symbol: symbol,
			bars:   bars,
			byDate: byDate,
		})
	}
	return series, excluded
}

func (e *Engine) validate(cfg Config) error {
	if len(cfg.Stocks) == 0 {
		return fmt.Errorf("no stocks given")
	}
	if cfg.EndDate.Before(cfg.StartDate) {
		return fmt.Errorf("end date %s before start date %s",
			cfg.EndDate.Format("2006-01-02"), cfg.StartDate.Format("2006-01-02"))
	}
	if cfg.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %.2f", cfg.InitialCapital)
	}
	return e.strategyManager.Validate(cfg.Params)
}
