package models

import "time"

// Stock is the listed-company master record.
type Stock struct {
	ID           uint   `gorm:"primaryKey"`
	Symbol       string `gorm:"uniqueIndex;not null"`
	CompanyName  string
	Industry     string
	IndustryName string
	Market       string // TSE, OTC, ESB, PSB
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName sets the table name for Stock model
func (Stock) TableName() string {
	return "stocks"
}

// Markets supported by the snapshot updater.
const (
	MarketTSE = "TSE"
	MarketOTC = "OTC"
	MarketESB = "ESB"
	MarketPSB = "PSB"
)
