package models

import "time"

// Position is one open holding inside a simulation run. Quantity is always
// a whole multiple of the 1000-share lot; there is at most one open
// position per symbol.
type Position struct {
	Symbol              string
	EntryDate           time.Time
	EntryPrice          float64
	Quantity            int64
	InvestAmount        float64
	Confidence          float64
	BuySignalDate       time.Time
	HighPriceSinceEntry float64
	TrailingStopPrice   float64
	ATRStopPrice        float64
	EntryATR            float64
}

// MarketValue is the mark-to-market value of the position at a price.
func (p *Position) MarketValue(price float64) float64 {
	return price * float64(p.Quantity)
}

// ProfitRate is the unrealized return of the position at a price.
func (p *Position) ProfitRate(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice
}
