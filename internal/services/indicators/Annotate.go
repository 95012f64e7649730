package indicators

import (
	"StockBacktest/internal/models"
)

// Config carries the indicator periods and feature switches a run uses.
type Config struct {
	RSIPeriod      int
	MACDFast       int
	MACDSlow       int
	MACDSignal     int
	ATRPeriod      int
	MomentumPeriod int
	EnableMA60     bool
	EnableMomentum bool
}

// IndicatorService annotates a chronological bar series with every derived
// value the strategy reads. It is a pure function of the series; values are
// computed once and cached on the bars.
type IndicatorService struct {
	rsi      *RSIService
	macd     *MACDService
	ma       *MAService
	atr      *ATRService
	momentum *MomentumService
}

func NewIndicatorService() *IndicatorService {
	return &IndicatorService{
		rsi:      NewRSIService(),
		macd:     NewMACDService(),
		ma:       NewMAService(),
		atr:      NewATRService(),
		momentum: NewMomentumService(),
	}
}

// Annotate fills the indicator fields on every bar in place. The series
// must be ordered ascending by trade date.
func (s *IndicatorService) Annotate(bars []models.StockBar, cfg Config) {
	if len(bars) == 0 {
		return
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i := range bars {
		closes[i] = bars[i].Close
		volumes[i] = float64(bars[i].Volume)
	}

	rsi := s.rsi.Calculate(closes, cfg.RSIPeriod)
	macd := s.macd.Calculate(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	ma5 := s.ma.SMA(closes, 5)
	ma20 := s.ma.SMA(closes, 20)
	volumeMA20 := s.ma.SMA(volumes, 20)
	volumeRatio := s.ma.VolumeRatio(volumes, volumeMA20)
	atr := s.atr.Calculate(bars, cfg.ATRPeriod)

	var ma60 []*float64
	if cfg.EnableMA60 {
		ma60 = s.ma.SMA(closes, 60)
	}
	var momentum []*float64
	if cfg.EnableMomentum {
		momentum = s.momentum.Calculate(closes, cfg.MomentumPeriod)
	}

	for i := range bars {
		bars[i].RSI = rsi[i]
		bars[i].MA5 = ma5[i]
		bars[i].MA20 = ma20[i]
		bars[i].VolumeMA20 = volumeMA20[i]
		bars[i].VolumeRatio = volumeRatio[i]
		bars[i].ATR = atr[i]
		if macd != nil {
			bars[i].EMA12 = fptr(macd.FastEMA[i])
			bars[i].EMA26 = fptr(macd.SlowEMA[i])
			bars[i].MACD = macd.MACD[i]
			bars[i].MACDSignal = macd.Signal[i]
			bars[i].MACDHistogram = macd.Histogram[i]
		}
		if ma60 != nil {
			bars[i].MA60 = ma60[i]
		}
		if momentum != nil {
			bars[i].PriceMomentum = momentum[i]
		}
	}
}

func fptr(v float64) *float64 {
	return &v
}
