package indicators

import (
	"math"

	"StockBacktest/internal/models"
)

// ATRService computes the Wilder-smoothed average true range.
type ATRService struct{}

func NewATRService() *ATRService {
	return &ATRService{}
}

// Calculate returns one ATR value per bar, nil until `period` true ranges
// exist. The seed (at index == period) is the simple mean of the first
// `period` true ranges; later values are smoothed as
// atr*(period-1)/period + tr/period.
func (s *ATRService) Calculate(bars []models.StockBar, period int) []*float64 {
	atr := make([]*float64, len(bars))
	if period <= 0 || len(bars) <= period {
		return atr
	}

	seed := 0.0
	for i := 1; i <= period; i++ {
		seed += trueRange(bars[i], bars[i-1])
	}
	current := seed / float64(period)
	atr[period] = fptr(current)

	for i := period + 1; i < len(bars); i++ {
		tr := trueRange(bars[i], bars[i-1])
		current = current*float64(period-1)/float64(period) + tr/float64(period)
		atr[i] = fptr(current)
	}
	return atr
}

func trueRange(bar, prev models.StockBar) float64 {
	hl := bar.High - bar.Low
	hc := math.Abs(bar.High - prev.Close)
	lc := math.Abs(bar.Low - prev.Close)
	return math.Max(hl, math.Max(hc, lc))
}
