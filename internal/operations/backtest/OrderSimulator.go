package backtest

import (
	"fmt"
	"time"

	"StockBacktest/internal/helpers"
	"StockBacktest/internal/models"
	"StockBacktest/internal/services/strategy"
)

// OrderSimulator owns the pending-order book, the open positions and the
// single shared cash pool. Every mutation happens through the day loop in
// the engine, strictly in the caller's symbol order: a later symbol's buy
// sizing sees cash already spent by earlier symbols the same day.
type OrderSimulator struct {
	params strategy.StrategyParams

	cash         float64
	positions    map[string]*models.Position
	pendingBuys  map[string]*PendingOrder
	pendingSells map[string]*PendingOrder
	trades       []Trade

	// Market calendar: union of all instruments' bar dates.
	tradingDays map[time.Time]bool

	// Last seen close per symbol, for exposure and equity marks.
	lastClose map[string]float64
}

func NewOrderSimulator(initialCash float64, params strategy.StrategyParams, tradingDays map[time.Time]bool) *OrderSimulator {
	return &OrderSimulator{
		params:       params,
		cash:         initialCash,
		positions:    make(map[string]*models.Position),
		pendingBuys:  make(map[string]*PendingOrder),
		pendingSells: make(map[string]*PendingOrder),
		tradingDays:  tradingDays,
		lastClose:    make(map[string]float64),
	}
}

func (s *OrderSimulator) Cash() float64 {
	return s.cash
}

func (s *OrderSimulator) Position(symbol string) *models.Position {
	return s.positions[symbol]
}

func (s *OrderSimulator) HasPendingBuy(symbol string) bool {
	return s.pendingBuys[symbol] != nil
}

func (s *OrderSimulator) HasPendingSell(symbol string) bool {
	return s.pendingSells[symbol] != nil
}

func (s *OrderSimulator) Trades() []Trade {
	return s.trades
}

// MarkPrice records the day's close for a symbol before the symbol pipeline
// runs, so exposure and equity always use that day's marks.
func (s *OrderSimulator) MarkPrice(symbol string, close float64) {
	s.lastClose[symbol] = close
}

// PlaceBuy enqueues a buy intent for next-day execution. A symbol holds at
// most one pending buy and never both a pending buy and an open position.
func (s *OrderSimulator) PlaceBuy(symbol string, signalDate time.Time, sig strategy.BuySignal) {
	if s.positions[symbol] != nil || s.pendingBuys[symbol] != nil {
		return
	}
	s.pendingBuys[symbol] = &PendingOrder{
		Symbol:     symbol,
		Action:     ActionBuy,
		SignalDate: signalDate,
		TargetDate: s.nextTradingDay(signalDate),
		Confidence: sig.Confidence,
		Reason:     sig.Reason,
	}
}

// PlaceSell enqueues a sell intent tied to the symbol's open position.
func (s *OrderSimulator) PlaceSell(symbol string, signalDate time.Time, sig strategy.SellSignal) {
	pos := s.positions[symbol]
	if pos == nil || s.pendingSells[symbol] != nil {
		return
	}
	snapshot := *pos
	s.pendingSells[symbol] = &PendingOrder{
		Symbol:     symbol,
		Action:     ActionSell,
		SignalDate: signalDate,
		TargetDate: s.nextTradingDay(signalDate),
		Reason:     sig.Reason,
		Position:   &snapshot,
	}
}

// nextTradingDay scans forward day by day, up to the lookahead horizon, for
// the first date on which the market traded. nil when none exists.
func (s *OrderSimulator) nextTradingDay(after time.Time) *time.Time {
	for i := 1; i <= OrderLookaheadDay; i++ {
		d := NormalizeDate(after.AddDate(0, 0, i))
		if s.tradingDays[d] {
			return &d
		}
	}
	return nil
}

// ExecuteDueSell settles the symbol's pending sell when its target day has
// arrived. bar is nil when the symbol itself has no bar that day; the order
// is then pushed to the next trading day and ErrDataGap is returned.
func (s *OrderSimulator) ExecuteDueSell(symbol string, date time.Time, bar *models.StockBar) error {
	order := s.pendingSells[symbol]
	if order == nil || order.TargetDate == nil || order.TargetDate.After(date) {
		return nil
	}
	if bar == nil {
		order.TargetDate = s.nextTradingDay(date)
		return fmt.Errorf("%w: %s on %s", ErrDataGap, symbol, date.Format("2006-01-02"))
	}

	pos := s.positions[symbol]
	if pos == nil {
		delete(s.pendingSells, symbol)
		return nil
	}

	price := bar.Open
	proceeds := price * float64(pos.Quantity) * SellFeeMultiplier
	profit := proceeds - pos.InvestAmount
	profitRate := 0.0
	if pos.InvestAmount > 0 {
		profitRate = profit / pos.InvestAmount
	}

	s.cash += proceeds
	s.trades = append(s.trades, Trade{
		Stock:          symbol,
		Action:         ActionSell,
		Date:           date,
		Price:          price,
		Quantity:       pos.Quantity,
		Amount:         proceeds,
		BuySignalDate:  pos.BuySignalDate,
		SellSignalDate: order.SignalDate,
		EntryDate:      pos.EntryDate,
		EntryPrice:     pos.EntryPrice,
		HoldingDays:    strategy.HoldingDays(pos.EntryDate, date),
		Profit:         profit,
		ProfitRate:     profitRate,
		Reason:         order.Reason,
		Confidence:     pos.Confidence,
	})

	helpers.Logger.Debugf("sell %s x%d @ %.2f on %s: profit %.0f (%.2f%%) - %s",
		symbol, pos.Quantity, price, date.Format("2006-01-02"), profit, profitRate*100, order.Reason)

	delete(s.positions, symbol)
	delete(s.pendingSells, symbol)
	return nil
}

// ExecuteDueBuy settles the symbol's pending buy when its target day has
// arrived, applying confidence-based sizing, the buy-side fee multiplier
// and whole-lot rounding. A missing bar pushes the order to the next
// trading day and returns ErrDataGap.
func (s *OrderSimulator) ExecuteDueBuy(symbol string, date time.Time, bar *models.StockBar) error {
	order := s.pendingBuys[symbol]
	if order == nil || order.TargetDate == nil || order.TargetDate.After(date) {
		return nil
	}
	if bar == nil {
		order.TargetDate = s.nextTradingDay(date)
		return fmt.Errorf("%w: %s on %s", ErrDataGap, symbol, date.Format("2006-01-02"))
	}

	defer delete(s.pendingBuys, symbol)

	fraction := s.sizingFraction(order.Confidence)
	invest := s.cash * fraction
	if limit := s.cash * s.params.MaxPositionSize; invest > limit {
		invest = limit
	}

	price := bar.Open
	costPerShare := price * BuyFeeMultiplier
	if costPerShare <= 0 {
		return nil
	}

	quantity := int64(invest/costPerShare) / LotSize * LotSize
	if quantity <= 0 {
		return nil
	}

	notional := price * float64(quantity)
	cost := costPerShare * float64(quantity)
	if notional <= MinNotional || cost > s.cash {
		helpers.Logger.Debugf("skip buy %s on %s: notional %.0f cost %.0f cash %.0f",
			symbol, date.Format("2006-01-02"), notional, cost, s.cash)
		return nil
	}

	pos := &models.Position{
		Symbol:              symbol,
		EntryDate:           date,
		EntryPrice:          price,
		Quantity:            quantity,
		InvestAmount:        cost,
		Confidence:          order.Confidence,
		BuySignalDate:       order.SignalDate,
		HighPriceSinceEntry: price,
	}
	if s.params.EnableATRStop && bar.ATR != nil {
		pos.EntryATR = *bar.ATR
		pos.ATRStopPrice = price - *bar.ATR*s.params.ATRMultiplier
	}

	s.cash -= cost
	s.positions[symbol] = pos
	s.trades = append(s.trades, Trade{
		Stock:         symbol,
		Action:        ActionBuy,
		Date:          date,
		Price:         price,
		Quantity:      quantity,
		Amount:        cost,
		BuySignalDate: order.SignalDate,
		Reason:        order.Reason,
		Confidence:    order.Confidence,
	})

	helpers.Logger.Debugf("buy %s x%d @ %.2f on %s: cost %.0f, confidence %.2f",
		symbol, quantity, price, date.Format("2006-01-02"), cost, order.Confidence)
	return nil
}

// sizingFraction maps signal confidence to the fraction of cash to deploy.
// With dynamic sizing on, the base fraction is scaled by a confidence tier
// and damped as portfolio exposure grows.
func (s *OrderSimulator) sizingFraction(confidence float64) float64 {
	if !s.params.DynamicPositionSize {
		switch {
		case confidence > 0.8:
			return 0.225
		case confidence > 0.65:
			return 0.15
		default:
			return 0.105
		}
	}

	fraction := 0.15
	switch {
	case confidence > 0.8:
		fraction *= 1.5
	case confidence > 0.65:
		fraction *= 1.0
	default:
		fraction *= 0.7
	}

	exposure := s.Exposure()
	if exposure > s.params.MaxTotalExposure {
		fraction *= 0.5
	} else if exposure > 0.6 {
		fraction *= 0.75
	}

	if fraction > s.params.MaxPositionSize {
		fraction = s.params.MaxPositionSize
	}
	return fraction
}

// Exposure is deployed capital over total equity at the current marks.
func (s *OrderSimulator) Exposure() float64 {
	value := s.PositionsValue()
	total := s.cash + value
	if total <= 0 {
		return 0
	}
	return value / total
}

// PositionsValue marks every open position at its last seen close.
func (s *OrderSimulator) PositionsValue() float64 {
	value := 0.0
	for symbol, pos := range s.positions {
		mark := s.lastClose[symbol]
		if mark == 0 {
			mark = pos.EntryPrice
		}
		value += pos.MarketValue(mark)
	}
	return value
}

// RefreshStops runs once per symbol per day after signal evaluation:
// extends the high-water mark, arms the trailing stop once activated, and
// tracks the ATR stop while fresh ATR values exist.
func (s *OrderSimulator) RefreshStops(symbol string, bar *models.StockBar) {
	pos := s.positions[symbol]
	if pos == nil || bar == nil {
		return
	}

	if bar.Close > pos.HighPriceSinceEntry {
		pos.HighPriceSinceEntry = bar.Close
	}

	if s.params.EnableTrailingStop {
		gain := (pos.HighPriceSinceEntry - pos.EntryPrice) / pos.EntryPrice
		if gain >= s.params.TrailingActivatePercent {
			pos.TrailingStopPrice = pos.HighPriceSinceEntry * (1 - s.params.TrailingStopPercent)
		}
	}

	if s.params.EnableATRStop && bar.ATR != nil {
		pos.ATRStopPrice = pos.EntryPrice - *bar.ATR*s.params.ATRMultiplier
	}
}

// EquitySnapshot records the day's total equity: cash plus every open
// position marked at that day's close.
func (s *OrderSimulator) EquitySnapshot(date time.Time) EquityPoint {
	value := s.PositionsValue()
	return EquityPoint{
		Date:      date,
		Value:     s.cash + value,
		Cash:      s.cash,
		Positions: value,
	}
}

// UnresolvedOrders reports intents that never found an execution day.
func (s *OrderSimulator) UnresolvedOrders() []PendingOrder {
	var out []PendingOrder
	for _, o := range s.pendingBuys {
		out = append(out, *o)
	}
	for _, o := range s.pendingSells {
		out = append(out, *o)
	}
	return out
}

// NormalizeDate truncates a timestamp to its UTC calendar day.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
