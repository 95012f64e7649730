package repositories

import (
	"errors"

	"StockBacktest/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository struct {
	db *gorm.DB
}

// NewStockRepository creates a new instance of StockRepository
func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

// Create adds a new Stock record to the database
func (r *StockRepository) Create(stock *models.Stock) error {
	if stock == nil {
		return errors.New("stock cannot be nil")
	}
	return r.db.Create(stock).Error
}

// Upsert inserts or refreshes a batch of stock master records by symbol
func (r *StockRepository) Upsert(stocks []models.Stock) error {
	if len(stocks) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"company_name", "industry", "industry_name", "market", "updated_at"}),
	}).Create(&stocks).Error
}

// FindBySymbol retrieves a Stock by its market symbol
func (r *StockRepository) FindBySymbol(symbol string) (*models.Stock, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var stock models.Stock
	err := r.db.Where("symbol = ?", symbol).First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &stock, err
}

// FindBySymbols retrieves stocks for a symbol list, keyed by symbol
func (r *StockRepository) FindBySymbols(symbols []string) (map[string]*models.Stock, error) {
	var stocks []models.Stock
	err := r.db.Where("symbol IN ?", symbols).Find(&stocks).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]*models.Stock, len(stocks))
	for i := range stocks {
		result[stocks[i].Symbol] = &stocks[i]
	}
	return result, nil
}

// FindAll retrieves all Stock records
func (r *StockRepository) FindAll() ([]models.Stock, error) {
	var stocks []models.Stock
	err := r.db.Order("symbol ASC").Find(&stocks).Error
	return stocks, err
}
