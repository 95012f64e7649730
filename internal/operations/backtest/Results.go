package backtest

import (
	"math"
	"time"
)

// AggregateResults computes the full report from the trade ledger and the
// equity curve. Pure function of its inputs.
func AggregateResults(initialCapital float64, trades []Trade, equityCurve []EquityPoint, start, end time.Time) *BacktestResults {
	finalCapital := initialCapital
	if len(equityCurve) > 0 {
		finalCapital = equityCurve[len(equityCurve)-1].Value
	}

	perf := Performance{
		InitialCapital: initialCapital,
		FinalCapital:   finalCapital,
		TotalProfit:    finalCapital - initialCapital,
		MaxDrawdown:    maxDrawdown(initialCapital, equityCurve),
	}
	if initialCapital > 0 {
		perf.TotalReturn = finalCapital/initialCapital - 1
		days := end.Sub(start).Hours() / 24
		if days > 0 {
			perf.AnnualReturn = math.Pow(finalCapital/initialCapital, 365.25/days) - 1
		}
	}

	return &BacktestResults{
		Performance:      perf,
		Trades:           tradeStats(trades),
		DetailedTrades:   trades,
		EquityCurve:      equityCurve,
		StockPerformance: stockPerformance(trades),
	}
}

// maxDrawdown walks the equity curve forward, tracking the largest
// peak-to-trough fraction.
func maxDrawdown(initialCapital float64, equityCurve []EquityPoint) float64 {
	peak := initialCapital
	worst := 0.0
	for _, point := range equityCurve {
		if point.Value > peak {
			peak = point.Value
		}
		if peak > 0 {
			drawdown := (peak - point.Value) / peak
			if drawdown > worst {
				worst = drawdown
			}
		}
	}
	return worst
}

// tradeStats summarizes closed ("sell") trades only.
func tradeStats(trades []Trade) TradeStats {
	stats := TradeStats{}
	var winRates, lossRates []float64
	var winProfit, lossProfit float64
	var holdingDays int

	for _, t := range trades {
		if t.Action != ActionSell {
			continue
		}
		stats.TotalTrades++
		holdingDays += t.HoldingDays
		if t.Profit > 0 {
			stats.WinningTrades++
			winRates = append(winRates, t.ProfitRate)
			winProfit += t.Profit
		} else {
			stats.LosingTrades++
			lossRates = append(lossRates, t.ProfitRate)
			lossProfit += math.Abs(t.Profit)
		}
	}

	if stats.TotalTrades == 0 {
		return stats
	}

	stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades)
	stats.AvgHoldingDays = float64(holdingDays) / float64(stats.TotalTrades)
	stats.AvgWin, stats.MaxWin = meanAndExtreme(winRates, math.Max)
	stats.AvgLoss, stats.MaxLoss = meanAndExtreme(lossRates, math.Min)

	switch {
	case lossProfit > 0:
		stats.ProfitFactor = winProfit / lossProfit
	case winProfit > 0:
		stats.ProfitFactor = ProfitFactorCap
	default:
		stats.ProfitFactor = 0
	}

	return stats
}

// meanAndExtreme returns the mean of rates and their extreme picked by ext.
func meanAndExtreme(rates []float64, ext func(a, b float64) float64) (mean, extreme float64) {
	if len(rates) == 0 {
		return 0, 0
	}
	sum := 0.0
	extreme = rates[0]
	for _, r := range rates {
		sum += r
		extreme = ext(extreme, r)
	}
	return sum / float64(len(rates)), extreme
}

// stockPerformance breaks closed trades down per symbol, preserving first
// appearance order in the ledger.
func stockPerformance(trades []Trade) []StockPerformance {
	index := make(map[string]int)
	var out []StockPerformance
	wins := make(map[string]int)

	for _, t := range trades {
		if t.Action != ActionSell {
			continue
		}
		i, ok := index[t.Stock]
		if !ok {
			i = len(out)
			index[t.Stock] = i
			out = append(out, StockPerformance{Stock: t.Stock})
		}
		out[i].Trades++
		out[i].TotalProfit += t.Profit
		if t.Profit > 0 {
			wins[t.Stock]++
		}
	}

	for i := range out {
		if out[i].Trades > 0 {
			out[i].WinRate = float64(wins[out[i].Stock]) / float64(out[i].Trades)
		}
	}
	return out
}
