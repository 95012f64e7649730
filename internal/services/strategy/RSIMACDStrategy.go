package strategy

import (
	"fmt"
	"math"
	"time"

	"StockBacktest/internal/models"
)

// RSIMACDStrategy is the oversold-recovery strategy: a buy needs a completed
// oversold episode on the RSI, a recovery into the configured window, MACD
// confirmation and volume support; sells come from layered stop rules.
// One RecoveryTracker per symbol lives for the whole run.
type RSIMACDStrategy struct {
	params   StrategyParams
	trackers map[string]*RecoveryTracker
}

func NewRSIMACDStrategy(params StrategyParams) *RSIMACDStrategy {
	return &RSIMACDStrategy{
		params:   params,
		trackers: make(map[string]*RecoveryTracker),
	}
}

// Tracker returns the symbol's recovery tracker, creating it on first use.
func (s *RSIMACDStrategy) Tracker(symbol string) *RecoveryTracker {
	tr, ok := s.trackers[symbol]
	if !ok {
		tr = &RecoveryTracker{}
		s.trackers[symbol] = tr
	}
	return tr
}

// EvaluateBuy runs the full buy gate for a flat symbol. The gate order is
// load-bearing: the volume floor precedes all oscillator logic, and the
// tracker is only reset on a fired signal or a missed recovery window.
func (s *RSIMACDStrategy) EvaluateBuy(prev, bar *models.StockBar) BuySignal {
	if bar.RSI == nil || bar.MACD == nil || bar.MACDSignal == nil {
		return noBuy("indicators not ready")
	}

	lots := float64(bar.Volume) / 1000
	if lots < s.params.VolumeLimit {
		return noBuy(fmt.Sprintf("volume %.0f lots below minimum %.0f", lots, s.params.VolumeLimit))
	}

	rsi := *bar.RSI
	tr := s.Tracker(bar.Symbol)

	if rsi < 30 {
		if !tr.InOversold {
			tr.InOversold = true
			tr.OversoldDate = bar.TradeDate
			tr.MinRSI = rsi
			tr.WaitingRecovery = true
		} else if rsi < tr.MinRSI {
			tr.MinRSI = rsi
		}
		return noBuy(fmt.Sprintf("RSI %.1f oversold, waiting for recovery", rsi))
	}

	if !tr.WaitingRecovery {
		return noBuy("no oversold episode yet")
	}

	// Recovery event: RSI is back at or above 30 after an episode.
	upperLimit := s.params.RSIOversold
	if s.params.HierarchicalDecision {
		upperLimit = 40
	}
	if rsi > upperLimit {
		tr.reset()
		return noBuy(fmt.Sprintf("RSI %.1f above recovery window %.1f, episode discarded", rsi, upperLimit))
	}

	if prev == nil || prev.RSI == nil || rsi <= *prev.RSI {
		return noBuy("RSI not rising")
	}

	if *bar.MACD <= *bar.MACDSignal {
		return noBuy("MACD below signal line")
	}
	if s.params.HierarchicalDecision && (bar.MACDHistogram == nil || *bar.MACDHistogram <= 0) {
		return noBuy("MACD histogram not positive")
	}

	if bar.VolumeRatio == nil || *bar.VolumeRatio < s.params.VolumeThreshold {
		return noBuy("volume ratio below threshold")
	}

	if bar.Close <= bar.Open {
		return noBuy("not a bullish candle")
	}

	if s.params.HierarchicalDecision && s.params.EnablePriceMomentum &&
		bar.PriceMomentum != nil && *bar.PriceMomentum < 0 {
		return noBuy("negative price momentum")
	}

	if s.params.EnableMA60 {
		if s.params.HierarchicalDecision {
			if bar.MA60 == nil || bar.Close <= *bar.MA60 {
				return noBuy("close below MA60")
			}
		} else {
			if bar.MA20 == nil || bar.Close <= *bar.MA20 {
				return noBuy("close below MA20")
			}
		}
	}

	confidence := s.confidence(prev, bar, tr)
	if confidence < s.params.ConfidenceThreshold {
		return noBuy(fmt.Sprintf("confidence %.2f below threshold %.2f", confidence, s.params.ConfidenceThreshold))
	}

	reason := fmt.Sprintf("RSI recovered to %.1f from oversold low %.1f, MACD bullish, volume ratio %.2f",
		rsi, tr.MinRSI, *bar.VolumeRatio)
	tr.reset()

	return BuySignal{Signal: true, Reason: reason, Confidence: confidence}
}

// confidence scores a passing buy setup in [0, 0.95].
func (s *RSIMACDStrategy) confidence(prev, bar *models.StockBar, tr *RecoveryTracker) float64 {
	score := 0.45
	if s.params.HierarchicalDecision {
		score = 0.30
	}

	// Depth of the oversold episode.
	switch {
	case tr.MinRSI < 20:
		score += 0.20
	case tr.MinRSI < 25:
		score += 0.15
	case tr.MinRSI < 30:
		score += 0.10
	case tr.MinRSI < 35:
		score += 0.05
	default:
		if s.params.HierarchicalDecision {
			score -= 0.05
		}
	}

	// Speed of the recovery versus the previous bar.
	if prev != nil && prev.RSI != nil {
		delta := *bar.RSI - *prev.RSI
		score += math.Min(delta*0.02, 0.10)
	}

	// A brand-new bullish crossover with a positive histogram is worth more
	// than an established one.
	freshCross := prev != nil && prev.MACD != nil && prev.MACDSignal != nil &&
		*prev.MACD <= *prev.MACDSignal
	switch {
	case freshCross && bar.MACDHistogram != nil && *bar.MACDHistogram > 0:
		score += 0.15
	case bar.MACDHistogram != nil && *bar.MACDHistogram > 0:
		score += 0.08
	default:
		score += 0.03
	}

	if bar.VolumeRatio != nil {
		switch {
		case *bar.VolumeRatio >= 2*s.params.VolumeThreshold:
			score += 0.10
		case *bar.VolumeRatio >= s.params.VolumeThreshold:
			score += 0.05
		default:
			if s.params.HierarchicalDecision {
				score -= 0.05
			}
		}
	}

	// Alignment of close > MA5 > MA20 > MA60, counting only computable links.
	aligned := 0
	if bar.MA5 != nil && bar.Close > *bar.MA5 {
		aligned++
	}
	if bar.MA5 != nil && bar.MA20 != nil && *bar.MA5 > *bar.MA20 {
		aligned++
	}
	if bar.MA20 != nil && bar.MA60 != nil && *bar.MA20 > *bar.MA60 {
		aligned++
	}
	score += 0.03 * float64(aligned)

	if s.params.EnablePriceMomentum && bar.PriceMomentum != nil {
		switch {
		case *bar.PriceMomentum >= s.params.PriceMomentumThreshold:
			score += 0.08
		case *bar.PriceMomentum > 0:
			score += 0.04
		}
	}

	return math.Max(0, math.Min(score, 0.95))
}

// EvaluateSell runs the layered exit rules for an open position. Inside the
// minimum holding window only the two loss overrides can fire; each is an
// independent trigger.
func (s *RSIMACDStrategy) EvaluateSell(bar, prevBar *models.StockBar, pos *models.Position) SellSignal {
	holdingDays := HoldingDays(pos.EntryDate, bar.TradeDate)
	profitRate := pos.ProfitRate(bar.Close)

	if holdingDays <= s.params.MinHoldingDays {
		if profitRate <= -2*s.params.StopLoss {
			return SellSignal{Signal: true, Reason: fmt.Sprintf("catastrophic loss %.1f%% inside holding window", profitRate*100)}
		}
		if profitRate <= -0.095 {
			return SellSignal{Signal: true, Reason: fmt.Sprintf("limit-down risk %.1f%% inside holding window", profitRate*100)}
		}
		return noSell()
	}

	if bar.Close > pos.HighPriceSinceEntry {
		pos.HighPriceSinceEntry = bar.Close
	}

	if s.params.EnableTrailingStop {
		gainFromEntry := (pos.HighPriceSinceEntry - pos.EntryPrice) / pos.EntryPrice
		if gainFromEntry >= s.params.TrailingActivatePercent {
			pos.TrailingStopPrice = pos.HighPriceSinceEntry * (1 - s.params.TrailingStopPercent)
			if bar.Close <= pos.TrailingStopPrice {
				return SellSignal{Signal: true, Reason: fmt.Sprintf("trailing stop hit at %.2f (high %.2f)", pos.TrailingStopPrice, pos.HighPriceSinceEntry)}
			}
		}
	}

	if s.params.EnableATRStop && pos.ATRStopPrice > 0 && bar.Close <= pos.ATRStopPrice {
		return SellSignal{Signal: true, Reason: fmt.Sprintf("ATR stop hit at %.2f", pos.ATRStopPrice)}
	}

	if profitRate >= s.params.StopProfit {
		return SellSignal{Signal: true, Reason: fmt.Sprintf("take profit %.1f%%", profitRate*100)}
	}
	if profitRate <= -s.params.StopLoss {
		return SellSignal{Signal: true, Reason: fmt.Sprintf("stop loss %.1f%%", profitRate*100)}
	}

	if bar.RSI != nil && *bar.RSI > 70 {
		return SellSignal{Signal: true, Reason: fmt.Sprintf("RSI %.1f overbought", *bar.RSI)}
	}

	if s.bearishCross(prevBar, bar) {
		return SellSignal{Signal: true, Reason: "bearish MACD crossover"}
	}

	if holdingDays > 30 {
		return SellSignal{Signal: true, Reason: fmt.Sprintf("max holding period reached (%d days)", holdingDays)}
	}

	return noSell()
}

func (s *RSIMACDStrategy) bearishCross(prev, bar *models.StockBar) bool {
	if prev == nil || prev.MACD == nil || prev.MACDSignal == nil {
		return false
	}
	if bar.MACD == nil || bar.MACDSignal == nil || bar.MACDHistogram == nil {
		return false
	}
	return *prev.MACD >= *prev.MACDSignal &&
		*bar.MACD < *bar.MACDSignal &&
		*bar.MACDHistogram < 0
}

// HoldingDays counts calendar days since entry, rounded up.
func HoldingDays(entry, current time.Time) int {
	return int(math.Ceil(current.Sub(entry).Hours() / 24))
}
