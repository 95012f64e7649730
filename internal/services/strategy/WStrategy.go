package strategy

import "StockBacktest/internal/models"

// WStrategy is a placeholder variant kept so the strategy enumeration stays
// exhaustive while the W-pattern logic is designed. It never signals.
type WStrategy struct{}

func NewWStrategy() *WStrategy {
	return &WStrategy{}
}

func (s *WStrategy) EvaluateBuy(prev, bar *models.StockBar) BuySignal {
	return noBuy("w strategy not implemented")
}

func (s *WStrategy) EvaluateSell(bar, prevBar *models.StockBar, pos *models.Position) SellSignal {
	return noSell()
}
