package indicators

// MomentumService computes the n-period price momentum ratio.
type MomentumService struct{}

func NewMomentumService() *MomentumService {
	return &MomentumService{}
}

// Calculate returns (close - close[n ago]) / close[n ago] once enough
// history exists.
func (s *MomentumService) Calculate(closes []float64, period int) []*float64 {
	out := make([]*float64, len(closes))
	if period <= 0 {
		return out
	}

	for i := period; i < len(closes); i++ {
		base := closes[i-period]
		if base == 0 {
			continue
		}
		out[i] = fptr((closes[i] - base) / base)
	}
	return out
}
