package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockBacktest/internal/models"
	"StockBacktest/internal/services/strategy"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func simParams() strategy.StrategyParams {
	return strategy.StrategyParams{
		RSIPeriod:               14,
		RSIOversold:             35,
		MACDFast:                12,
		MACDSlow:                26,
		MACDSignal:              9,
		VolumeThreshold:         1.5,
		MaxPositionSize:         0.25,
		StopLoss:                0.06,
		StopProfit:              0.12,
		ConfidenceThreshold:     0.6,
		EnableTrailingStop:      true,
		TrailingStopPercent:     0.05,
		TrailingActivatePercent: 0.03,
		EnableATRStop:           true,
		ATRPeriod:               14,
		ATRMultiplier:           2.0,
		MinHoldingDays:          5,
		MaxTotalExposure:        0.75,
		DynamicPositionSize:     true,
	}
}

// weekdays builds a trading calendar of consecutive days.
func calendar(from time.Time, n int) map[time.Time]bool {
	days := make(map[time.Time]bool, n)
	for i := 0; i < n; i++ {
		days[NormalizeDate(from.AddDate(0, 0, i))] = true
	}
	return days
}

func barAt(symbol string, d time.Time, open, close float64) *models.StockBar {
	return &models.StockBar{
		Symbol:    symbol,
		TradeDate: d,
		Open:      open,
		High:      close + 1,
		Low:       open - 1,
		Close:     close,
		Volume:    1_000_000,
	}
}

func TestNextTradingDaySkipsGaps(t *testing.T) {
	// Friday 2024-03-01; market closed over the weekend.
	days := map[time.Time]bool{
		date(2024, 3, 1): true,
		date(2024, 3, 4): true,
		date(2024, 3, 5): true,
	}
	sim := NewOrderSimulator(1_000_000, simParams(), days)

	next := sim.nextTradingDay(date(2024, 3, 1))
	require.NotNil(t, next)
	assert.Equal(t, date(2024, 3, 4), *next)
}

func TestNextTradingDayNilBeyondLookahead(t *testing.T) {
	days := map[time.Time]bool{date(2024, 3, 1): true}
	sim := NewOrderSimulator(1_000_000, simParams(), days)

	assert.Nil(t, sim.nextTradingDay(date(2024, 3, 1)))
}

func TestBuyExecutesNextDayAtOpen(t *testing.T) {
	days := calendar(date(2024, 3, 1), 5)
	sim := NewOrderSimulator(1_000_000, simParams(), days)

	sim.PlaceBuy("2330", date(2024, 3, 1), strategy.BuySignal{
		Signal: true, Reason: "setup", Confidence: 0.9,
	})
	require.True(t, sim.HasPendingBuy("2330"))

	// Not due on the signal day itself.
	sim.ExecuteDueBuy("2330", date(2024, 3, 1), barAt("2330", date(2024, 3, 1), 49, 50))
	assert.Nil(t, sim.Position("2330"))

	sim.ExecuteDueBuy("2330", date(2024, 3, 2), barAt("2330", date(2024, 3, 2), 50, 51))
	pos := sim.Position("2330")
	require.NotNil(t, pos)

	// Confidence 0.9 with dynamic sizing and zero exposure: 0.15*1.5 of
	// cash = 225000. At 50*1.001425 per share that is 4493 shares, rounded
	// down to 4 whole lots.
	assert.Equal(t, int64(4000), pos.Quantity)
	assert.Equal(t, 50.0, pos.EntryPrice)
	assert.InDelta(t, 4000*50*BuyFeeMultiplier, pos.InvestAmount, 1e-6)
	assert.InDelta(t, 1_000_000-pos.InvestAmount, sim.Cash(), 1e-6)
	assert.False(t, sim.HasPendingBuy("2330"))

	trades := sim.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, ActionBuy, trades[0].Action)
	assert.Equal(t, date(2024, 3, 1), trades[0].BuySignalDate)
	assert.Equal(t, date(2024, 3, 2), trades[0].Date)
}

func TestBuySkippedBelowMinNotional(t *testing.T) {
	days := calendar(date(2024, 3, 1), 5)
	// Low confidence on 95.5k cash sizes one lot of a 10-dollar stock:
	// a 10000 notional, at the skip threshold.
	sim := NewOrderSimulator(95_500, simParams(), days)

	sim.PlaceBuy("2330", date(2024, 3, 1), strategy.BuySignal{Signal: true, Confidence: 0.5})
	sim.ExecuteDueBuy("2330", date(2024, 3, 2), barAt("2330", date(2024, 3, 2), 10, 10.2))

	assert.Nil(t, sim.Position("2330"))
	assert.False(t, sim.HasPendingBuy("2330"), "the order is consumed, not retried")
	assert.InDelta(t, 95_500, sim.Cash(), 1e-9)
	assert.Empty(t, sim.Trades())
}

func TestBuyRetargetsWhenSymbolHasNoBar(t *testing.T) {
	days := calendar(date(2024, 3, 1), 5)
	sim := NewOrderSimulator(1_000_000, simParams(), days)

	sim.PlaceBuy("2330", date(2024, 3, 1), strategy.BuySignal{Signal: true, Confidence: 0.9})

	// The market traded on the 2nd but this symbol did not.
	err := sim.ExecuteDueBuy("2330", date(2024, 3, 2), nil)
	assert.ErrorIs(t, err, ErrDataGap)
	require.True(t, sim.HasPendingBuy("2330"))

	require.NoError(t, sim.ExecuteDueBuy("2330", date(2024, 3, 3), barAt("2330", date(2024, 3, 3), 50, 51)))
	require.NotNil(t, sim.Position("2330"))
	assert.Equal(t, date(2024, 3, 3), sim.Position("2330").EntryDate)
}

func TestSellRetargetsOnDataGap(t *testing.T) {
	days := calendar(date(2024, 3, 1), 10)
	sim := NewOrderSimulator(1_000_000, simParams(), days)

	sim.PlaceBuy("2330", date(2024, 3, 1), strategy.BuySignal{Signal: true, Confidence: 0.9})
	require.NoError(t, sim.ExecuteDueBuy("2330", date(2024, 3, 2), barAt("2330", date(2024, 3, 2), 50, 51)))

	sim.PlaceSell("2330", date(2024, 3, 8), strategy.SellSignal{Signal: true, Reason: "stop"})

	err := sim.ExecuteDueSell("2330", date(2024, 3, 9), nil)
	assert.ErrorIs(t, err, ErrDataGap)
	require.True(t, sim.HasPendingSell("2330"))
	require.NotNil(t, sim.Position("2330"))

	// A day before the target is no gap, just not due yet.
	sim2 := NewOrderSimulator(1_000_000, simParams(), days)
	sim2.PlaceBuy("2330", date(2024, 3, 1), strategy.BuySignal{Signal: true, Confidence: 0.9})
	assert.NoError(t, sim2.ExecuteDueBuy("2330", date(2024, 3, 1), nil))

	require.NoError(t, sim.ExecuteDueSell("2330", date(2024, 3, 10), barAt("2330", date(2024, 3, 10), 56, 57)))
	assert.Nil(t, sim.Position("2330"))
}

func TestSharedCashPoolAcrossSameDayBuys(t *testing.T) {
	days := calendar(date(2024, 3, 1), 5)
	sim := NewOrderSimulator(1_000_000, simParams(), days)

	sim.PlaceBuy("2330", date(2024, 3, 1), strategy.BuySignal{Signal: true, Confidence: 0.9})
	sim.PlaceBuy("2317", date(2024, 3, 1), strategy.BuySignal{Signal: true, Confidence: 0.9})

	d := date(2024, 3, 2)
	sim.MarkPrice("2330", 51)
	sim.MarkPrice("2317", 102)
	sim.ExecuteDueBuy("2330", d, barAt("2330", d, 50, 51))
	cashAfterFirst := sim.Cash()
	sim.ExecuteDueBuy("2317", d, barAt("2317", d, 100, 102))

	first := sim.Position("2330")
	second := sim.Position("2317")
	require.NotNil(t, first)
	require.NotNil(t, second)

	// The second sizing ran against the already reduced pool.
	assert.Less(t, cashAfterFirst, 1_000_000.0)
	assert.LessOrEqual(t, second.InvestAmount, cashAfterFirst*0.25+1e-6)
	assert.Greater(t, sim.Cash(), 0.0)
}

func TestSellExecutionSettlesPosition(t *testing.T) {
	days := calendar(date(2024, 3, 1), 10)
	sim := NewOrderSimulator(1_000_000, simParams(), days)

	sim.PlaceBuy("2330", date(2024, 3, 1), strategy.BuySignal{Signal: true, Confidence: 0.9})
	sim.ExecuteDueBuy("2330", date(2024, 3, 2), barAt("2330", date(2024, 3, 2), 50, 51))
	pos := sim.Position("2330")
	require.NotNil(t, pos)
	invested := pos.InvestAmount
	cashAfterBuy := sim.Cash()

	sim.PlaceSell("2330", date(2024, 3, 8), strategy.SellSignal{Signal: true, Reason: "take profit"})
	require.True(t, sim.HasPendingSell("2330"))

	sim.ExecuteDueSell("2330", date(2024, 3, 9), barAt("2330", date(2024, 3, 9), 56, 57))

	assert.Nil(t, sim.Position("2330"))
	assert.False(t, sim.HasPendingSell("2330"))

	proceeds := 56.0 * 4000 * SellFeeMultiplier
	assert.InDelta(t, cashAfterBuy+proceeds, sim.Cash(), 1e-6)

	trades := sim.Trades()
	require.Len(t, trades, 2)
	sell := trades[1]
	assert.Equal(t, ActionSell, sell.Action)
	assert.Equal(t, 56.0, sell.Price)
	assert.InDelta(t, proceeds-invested, sell.Profit, 1e-6)
	assert.InDelta(t, (proceeds-invested)/invested, sell.ProfitRate, 1e-9)
	assert.Equal(t, date(2024, 3, 2), sell.EntryDate)
	assert.Equal(t, date(2024, 3, 8), sell.SellSignalDate)
	assert.Equal(t, 7, sell.HoldingDays)
}

func TestPlaceSellWithoutPositionIsNoop(t *testing.T) {
	sim := NewOrderSimulator(1_000_000, simParams(), calendar(date(2024, 3, 1), 5))

	sim.PlaceSell("2330", date(2024, 3, 1), strategy.SellSignal{Signal: true, Reason: "stop"})
	assert.False(t, sim.HasPendingSell("2330"))
}

func TestPlaceBuyRejectedWhileHoldingOrPending(t *testing.T) {
	days := calendar(date(2024, 3, 1), 5)
	sim := NewOrderSimulator(1_000_000, simParams(), days)

	sim.PlaceBuy("2330", date(2024, 3, 1), strategy.BuySignal{Signal: true, Confidence: 0.9, Reason: "first"})
	sim.PlaceBuy("2330", date(2024, 3, 1), strategy.BuySignal{Signal: true, Confidence: 0.5, Reason: "second"})

	sim.ExecuteDueBuy("2330", date(2024, 3, 2), barAt("2330", date(2024, 3, 2), 50, 51))
	trades := sim.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, "first", trades[0].Reason)

	// Holding: further intents are dropped.
	sim.PlaceBuy("2330", date(2024, 3, 2), strategy.BuySignal{Signal: true, Confidence: 0.9})
	assert.False(t, sim.HasPendingBuy("2330"))
}

func TestSizingFractionFixedTiers(t *testing.T) {
	params := simParams()
	params.DynamicPositionSize = false
	sim := NewOrderSimulator(1_000_000, params, calendar(date(2024, 3, 1), 5))

	assert.InDelta(t, 0.225, sim.sizingFraction(0.85), 1e-9)
	assert.InDelta(t, 0.15, sim.sizingFraction(0.7), 1e-9)
	assert.InDelta(t, 0.105, sim.sizingFraction(0.6), 1e-9)
}

func TestSizingFractionDampedByExposure(t *testing.T) {
	days := calendar(date(2024, 3, 1), 5)
	sim := NewOrderSimulator(1_000_000, simParams(), days)

	// No exposure yet: full tier.
	assert.InDelta(t, 0.15*1.5, sim.sizingFraction(0.9), 1e-9)

	// Put ~70% of equity into a position, mark it, and size again.
	sim.positions["2330"] = &models.Position{Symbol: "2330", EntryPrice: 100, Quantity: 7000}
	sim.cash = 300_000
	sim.MarkPrice("2330", 100)

	assert.InDelta(t, 0.15*1.0*0.75, sim.sizingFraction(0.7), 1e-9)
}

func TestEquitySnapshotIsCashPlusMarks(t *testing.T) {
	days := calendar(date(2024, 3, 1), 5)
	sim := NewOrderSimulator(1_000_000, simParams(), days)

	sim.PlaceBuy("2330", date(2024, 3, 1), strategy.BuySignal{Signal: true, Confidence: 0.9})
	sim.ExecuteDueBuy("2330", date(2024, 3, 2), barAt("2330", date(2024, 3, 2), 50, 51))
	sim.MarkPrice("2330", 53)

	pos := sim.Position("2330")
	require.NotNil(t, pos)

	point := sim.EquitySnapshot(date(2024, 3, 3))
	assert.InDelta(t, sim.Cash()+53*float64(pos.Quantity), point.Value, 1e-6)
	assert.InDelta(t, sim.Cash(), point.Cash, 1e-9)
	assert.InDelta(t, 53*float64(pos.Quantity), point.Positions, 1e-6)
}

func TestRefreshStopsArmsTrailAndTracksATR(t *testing.T) {
	days := calendar(date(2024, 3, 1), 5)
	sim := NewOrderSimulator(1_000_000, simParams(), days)
	sim.positions["2330"] = &models.Position{
		Symbol:              "2330",
		EntryPrice:          100,
		Quantity:            1000,
		HighPriceSinceEntry: 100,
	}

	bar := barAt("2330", date(2024, 3, 3), 104, 105)
	atr := 2.5
	bar.ATR = &atr
	sim.RefreshStops("2330", bar)

	pos := sim.Position("2330")
	assert.Equal(t, 105.0, pos.HighPriceSinceEntry)
	assert.InDelta(t, 105*0.95, pos.TrailingStopPrice, 1e-9)
	assert.InDelta(t, 100-2.5*2.0, pos.ATRStopPrice, 1e-9)
}

func TestUnresolvedOrdersReported(t *testing.T) {
	// Single trading day: nothing within the lookahead horizon after it.
	days := map[time.Time]bool{date(2024, 3, 1): true}
	sim := NewOrderSimulator(1_000_000, simParams(), days)

	sim.PlaceBuy("2330", date(2024, 3, 1), strategy.BuySignal{Signal: true, Confidence: 0.9})
	require.True(t, sim.HasPendingBuy("2330"))

	unresolved := sim.UnresolvedOrders()
	require.Len(t, unresolved, 1)
	assert.Equal(t, ActionBuy, unresolved[0].Action)
	assert.Nil(t, unresolved[0].TargetDate)
}

func TestNormalizeDate(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 30, 12, 0, time.UTC)
	assert.Equal(t, date(2024, 3, 5), NormalizeDate(ts))
}
