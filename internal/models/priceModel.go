package models

import (
	"time"
)

// DailyPrice is one day of OHLCV data for a listed stock.
type DailyPrice struct {
	ID        uint      `gorm:"primaryKey"`
	StockID   uint      `gorm:"index:idx_stock_date,unique;not null"`
	TradeDate time.Time `gorm:"index:idx_stock_date,unique;not null"`
	Open      float64   `gorm:"type:decimal(12,2)"`
	High      float64   `gorm:"type:decimal(12,2)"`
	Low       float64   `gorm:"type:decimal(12,2)"`
	Close     float64   `gorm:"type:decimal(12,2)"`
	Volume    int64
}

// TableName sets the table name for DailyPrice model
func (DailyPrice) TableName() string {
	return "daily_prices"
}

// StockBar is the in-memory bar the simulation works on. Indicator fields
// stay nil until the corresponding window has warmed up.
type StockBar struct {
	Symbol    string
	TradeDate time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64

	RSI           *float64
	EMA12         *float64
	EMA26         *float64
	MACD          *float64
	MACDSignal    *float64
	MACDHistogram *float64
	MA5           *float64
	MA20          *float64
	MA60          *float64
	VolumeMA20    *float64
	VolumeRatio   *float64
	ATR           *float64
	PriceMomentum *float64
}

// Bar converts a stored daily price row to a simulation bar.
func (p *DailyPrice) Bar(symbol string) StockBar {
	return StockBar{
		Symbol:    symbol,
		TradeDate: p.TradeDate,
		Open:      p.Open,
		High:      p.High,
		Low:       p.Low,
		Close:     p.Close,
		Volume:    p.Volume,
	}
}
