package indicators

// EMAService provides exponential moving average calculations.
type EMAService struct{}

func NewEMAService() *EMAService {
	return &EMAService{}
}

// Calculate computes an EMA over the whole series, seeded with the first
// value. Every output index carries a value.
func (s *EMAService) Calculate(values []float64, period int) []float64 {
	if len(values) == 0 || period <= 0 {
		return nil
	}

	multiplier := s.getMultiplier(period)
	ema := make([]float64, len(values))
	ema[0] = values[0]
	for i := 1; i < len(values); i++ {
		ema[i] = s.calculatePoint(values[i], ema[i-1], multiplier)
	}
	return ema
}

// CalculateFrom computes an EMA seeded at a given start index; indexes
// before start stay zero and are not meaningful.
func (s *EMAService) CalculateFrom(values []float64, period, start int) []float64 {
	if start < 0 || start >= len(values) || period <= 0 {
		return nil
	}

	multiplier := s.getMultiplier(period)
	ema := make([]float64, len(values))
	ema[start] = values[start]
	for i := start + 1; i < len(values); i++ {
		ema[i] = s.calculatePoint(values[i], ema[i-1], multiplier)
	}
	return ema
}

func (s *EMAService) getMultiplier(period int) float64 {
	return 2.0 / float64(period+1)
}

func (s *EMAService) calculatePoint(value, prevEMA, multiplier float64) float64 {
	return (value-prevEMA)*multiplier + prevEMA
}
