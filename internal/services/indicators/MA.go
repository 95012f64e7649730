package indicators

// MAService computes simple moving averages over price and volume.
type MAService struct{}

func NewMAService() *MAService {
	return &MAService{}
}

// SMA returns the simple rolling mean; nil until the window is fully
// populated. Window sizes here are small, so the naive O(n*window) walk
// is fine.
func (s *MAService) SMA(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		out[i] = fptr(sum / float64(window))
	}
	return out
}

// VolumeRatio divides each volume by its rolling mean; nil while the mean
// is undefined or zero.
func (s *MAService) VolumeRatio(volumes []float64, volumeMA []*float64) []*float64 {
	out := make([]*float64, len(volumes))
	for i := range volumes {
		if volumeMA[i] == nil || *volumeMA[i] == 0 {
			continue
		}
		out[i] = fptr(volumes[i] / *volumeMA[i])
	}
	return out
}
