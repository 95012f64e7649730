package repositories

import (
	"errors"
	"fmt"
	"time"

	"StockBacktest/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PriceRepository struct {
	db *gorm.DB
}

// NewPriceRepository creates a new instance of PriceRepository
func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// Create adds a new DailyPrice record to the database
func (r *PriceRepository) Create(price *models.DailyPrice) error {
	if price == nil {
		return errors.New("price cannot be nil")
	}
	return r.db.Create(price).Error
}

// CreateBatch upserts a batch of daily prices, replacing rows that already
// exist for the same stock and trade date
func (r *PriceRepository) CreateBatch(prices []models.DailyPrice) error {
	if len(prices) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stock_id"}, {Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).CreateInBatches(&prices, 500).Error
}

// GetPriceHistory gets daily prices for a stock within a date range,
// ordered ascending by trade date
func (r *PriceRepository) GetPriceHistory(stockID uint, start, end time.Time) ([]models.DailyPrice, error) {
	var prices []models.DailyPrice
	err := r.db.Where("stock_id = ? AND trade_date BETWEEN ? AND ?",
		stockID, start, end).
		Order("trade_date ASC").
		Find(&prices).Error
	return prices, err
}

// GetLatestPrice gets the most recent daily price for a stock
func (r *PriceRepository) GetLatestPrice(stockID uint) (*models.DailyPrice, error) {
	var price models.DailyPrice
	err := r.db.Where("stock_id = ?", stockID).
		Order("trade_date DESC").
		First(&price).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &price, err
}

// BarSource adapts the repositories to the backtest engine's PriceSource:
// it resolves a symbol to its stock row and returns simulation bars.
type BarSource struct {
	stockRepo *StockRepository
	priceRepo *PriceRepository
}

func NewBarSource(stockRepo *StockRepository, priceRepo *PriceRepository) *BarSource {
	return &BarSource{stockRepo: stockRepo, priceRepo: priceRepo}
}

// GetHistory returns the symbol's bars ordered ascending by trade date.
func (s *BarSource) GetHistory(symbol string, start, end time.Time) ([]models.StockBar, error) {
	stock, err := s.stockRepo.FindBySymbol(symbol)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, fmt.Errorf("stock %s not found", symbol)
	}

	prices, err := s.priceRepo.GetPriceHistory(stock.ID, start, end)
	if err != nil {
		return nil, err
	}

	bars := make([]models.StockBar, 0, len(prices))
	for i := range prices {
		bars = append(bars, prices[i].Bar(symbol))
	}
	return bars, nil
}
