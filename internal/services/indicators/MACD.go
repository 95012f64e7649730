package indicators

// MACDService computes the MACD line, its signal line and histogram.
type MACDService struct {
	ema *EMAService
}

type MACDResult struct {
	FastEMA   []float64
	SlowEMA   []float64
	MACD      []*float64
	Signal    []*float64
	Histogram []*float64
}

func NewMACDService() *MACDService {
	return &MACDService{
		ema: NewEMAService(),
	}
}

// Calculate returns MACD values for the whole series. Both EMAs are seeded
// with the first close, so the MACD line itself carries a value on every
// bar; the signal line starts where the slow EMA has warmed up
// (index slowPeriod-1) and the histogram follows the signal line.
func (s *MACDService) Calculate(closes []float64, fastPeriod, slowPeriod, signalPeriod int) *MACDResult {
	if len(closes) == 0 || fastPeriod <= 0 || slowPeriod <= fastPeriod || signalPeriod <= 0 {
		return nil
	}

	fastEMA := s.ema.Calculate(closes, fastPeriod)
	slowEMA := s.ema.Calculate(closes, slowPeriod)

	macdLine := make([]float64, len(closes))
	macd := make([]*float64, len(closes))
	for i := range closes {
		macdLine[i] = fastEMA[i] - slowEMA[i]
		macd[i] = fptr(macdLine[i])
	}

	signal := make([]*float64, len(closes))
	histogram := make([]*float64, len(closes))
	start := slowPeriod - 1
	if start < len(closes) {
		signalLine := s.ema.CalculateFrom(macdLine, signalPeriod, start)
		for i := start; i < len(closes); i++ {
			signal[i] = fptr(signalLine[i])
			histogram[i] = fptr(macdLine[i] - signalLine[i])
		}
	}

	return &MACDResult{
		FastEMA:   fastEMA,
		SlowEMA:   slowEMA,
		MACD:      macd,
		Signal:    signal,
		Histogram: histogram,
	}
}
