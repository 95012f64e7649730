package stocklist

import (
	"context"

	"StockBacktest/internal/helpers"
	"StockBacktest/internal/models"
	"StockBacktest/internal/operations/fubon"
)

// Markets whose ticker directories feed the stock master table.
var syncMarkets = []string{
	models.MarketTSE,
	models.MarketOTC,
	models.MarketESB,
	models.MarketPSB,
}

// TickerSource lists the provider's ticker directory for one market.
type TickerSource interface {
	GetStockList(ctx context.Context, market, industry string) ([]fubon.StockInfo, error)
}

// StockStore persists stock master records.
type StockStore interface {
	Upsert(stocks []models.Stock) error
}

// Syncer refreshes the stock master table from the provider's per-market
// ticker directories.
type Syncer struct {
	source TickerSource
	store  StockStore
}

func NewSyncer(source TickerSource, store StockStore) *Syncer {
	return &Syncer{source: source, store: store}
}

// Sync walks every market's directory and upserts the listed companies,
// returning how many were stored. A market whose directory fails is logged
// and skipped; the sync errors out only when no market yielded anything.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	total := 0
	var lastErr error
	for _, market := range syncMarkets {
		infos, err := s.source.GetStockList(ctx, market, "")
		if err != nil {
			helpers.Logger.Errorf("ticker directory for %s failed: %v", market, err)
			lastErr = err
			continue
		}

		stocks := make([]models.Stock, 0, len(infos))
		for _, info := range infos {
			stocks = append(stocks, models.Stock{
				Symbol:       info.Symbol,
				CompanyName:  info.Name,
				Industry:     info.Industry,
				IndustryName: info.IndustryName,
				Market:       market,
			})
		}

		if err := s.store.Upsert(stocks); err != nil {
			return total, err
		}
		total += len(stocks)
		helpers.Logger.Infof("synced %d tickers for %s", len(stocks), market)
	}

	if total == 0 && lastErr != nil {
		return 0, lastErr
	}
	return total, nil
}
