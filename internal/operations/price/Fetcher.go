package price

import (
	"context"
	"time"

	"StockBacktest/internal/helpers"
	"StockBacktest/internal/models"
	"StockBacktest/internal/operations/fubon"
	"StockBacktest/internal/repositories"
	"StockBacktest/internal/services/status"
)

// Fetcher pulls historical daily candles from the market-data provider and
// stores them. The provider limits each query to one year, so long ranges
// are walked year by year.
type Fetcher struct {
	client    *fubon.Client
	stockRepo *repositories.StockRepository
	priceRepo *repositories.PriceRepository
	status    *status.StatusService
}

func NewFetcher(client *fubon.Client, stockRepo *repositories.StockRepository, priceRepo *repositories.PriceRepository, statusSvc *status.StatusService) *Fetcher {
	return &Fetcher{
		client:    client,
		stockRepo: stockRepo,
		priceRepo: priceRepo,
		status:    statusSvc,
	}
}

// FetchAndStore loads and persists the history of every symbol in the
// range. A symbol that fails is logged and skipped; the rest proceed.
func (f *Fetcher) FetchAndStore(ctx context.Context, symbols []string, start, end time.Time) error {
	f.status.Start(len(symbols), 1)
	defer f.status.Finish("price history fetch complete")

	for i, symbol := range symbols {
		f.status.Update(i+1, "fetching "+symbol)
		if err := f.fetchSymbol(ctx, symbol, start, end); err != nil {
			helpers.Logger.Errorf("history fetch for %s failed: %v", symbol, err)
			continue
		}
	}
	return nil
}

func (f *Fetcher) fetchSymbol(ctx context.Context, symbol string, start, end time.Time) error {
	stock, err := f.stockRepo.FindBySymbol(symbol)
	if err != nil {
		return err
	}
	if stock == nil {
		helpers.Logger.Warnf("stock %s not in database, skipping", symbol)
		return nil
	}

	var rows []models.DailyPrice
	for year := start.Year(); year <= end.Year(); year++ {
		chunkStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		chunkEnd := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
		if chunkStart.Before(start) {
			chunkStart = start
		}
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		resp, err := f.client.GetCandles(ctx, symbol, chunkStart, chunkEnd)
		if err != nil {
			return err
		}

		for _, candle := range resp.Data {
			tradeDate, err := time.Parse("2006-01-02", candle.Date)
			if err != nil {
				helpers.Logger.Warnf("bad candle date %q for %s: %v", candle.Date, symbol, err)
				continue
			}
			rows = append(rows, models.DailyPrice{
				StockID:   stock.ID,
				TradeDate: tradeDate,
				Open:      candle.Open,
				High:      candle.High,
				Low:       candle.Low,
				Close:     candle.Close,
				Volume:    candle.Volume,
			})
		}
	}

	if len(rows) == 0 {
		helpers.Logger.Infof("no candles for %s in range", symbol)
		return nil
	}

	if err := f.priceRepo.CreateBatch(rows); err != nil {
		return err
	}
	helpers.Logger.Infof("stored %d candles for %s", len(rows), symbol)
	return nil
}
