package indicators

import "math"

// RSIService computes the Wilder-smoothed relative strength index.
type RSIService struct{}

func NewRSIService() *RSIService {
	return &RSIService{}
}

// Calculate returns one RSI value per close, nil until the seed window of
// `period` deltas is complete. The first defined value (at index == period)
// seeds the average gain/loss with the simple mean of the first `period`
// deltas; later values use Wilder smoothing:
//
//	avg = avg*(period-1)/period + delta/period
//
// A result outside [0, 100] or NaN falls back to the previous value, or 50
// when there is none.
func (s *RSIService) Calculate(closes []float64, period int) []*float64 {
	rsi := make([]*float64, len(closes))
	if period <= 0 || len(closes) <= period {
		return rsi
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += math.Abs(change)
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	rsi[period] = fptr(s.value(avgGain, avgLoss, rsi, period))

	alpha := 1.0 / float64(period)
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = math.Abs(change)
		}
		avgGain = avgGain*(1-alpha) + gain*alpha
		avgLoss = avgLoss*(1-alpha) + loss*alpha
		rsi[i] = fptr(s.value(avgGain, avgLoss, rsi, i))
	}

	return rsi
}

func (s *RSIService) value(avgGain, avgLoss float64, prev []*float64, i int) float64 {
	var v float64
	if avgLoss == 0 {
		v = 100
	} else {
		rs := avgGain / avgLoss
		v = 100 - 100/(1+rs)
	}

	if math.IsNaN(v) || v < 0 || v > 100 {
		if i > 0 && prev[i-1] != nil {
			return *prev[i-1]
		}
		return 50
	}
	return v
}
