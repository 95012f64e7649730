package price

import (
	"context"
	"time"

	"StockBacktest/internal/helpers"
	"StockBacktest/internal/models"
	"StockBacktest/internal/operations/fubon"
	"StockBacktest/internal/repositories"
)

// Markets whose snapshots feed the daily price table.
var snapshotMarkets = []string{
	models.MarketTSE,
	models.MarketOTC,
	models.MarketESB,
	models.MarketPSB,
}

// Recorder ingests the end-of-day market snapshot into the daily price
// table, once per evening after the session closes.
type Recorder struct {
	client    *fubon.Client
	stockRepo *repositories.StockRepository
	priceRepo *repositories.PriceRepository
	location  *time.Location
}

func NewRecorder(client *fubon.Client, stockRepo *repositories.StockRepository, priceRepo *repositories.PriceRepository) *Recorder {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		loc = time.FixedZone("CST", 8*60*60)
	}
	return &Recorder{
		client:    client,
		stockRepo: stockRepo,
		priceRepo: priceRepo,
		location:  loc,
	}
}

// StartRecording runs the daily snapshot update at 22:00 Taipei time until
// the context is cancelled. Weekends are skipped outright; a weekday with
// no snapshot data is a market holiday and stores nothing.
func (r *Recorder) StartRecording(ctx context.Context) {
	helpers.Logger.Info("starting daily snapshot recording")
	for {
		next := r.nextRun(time.Now().In(r.location))
		select {
		case <-ctx.Done():
			helpers.Logger.Info("stopping daily snapshot recording")
			return
		case <-time.After(time.Until(next)):
			if err := r.UpdateByDate(ctx); err != nil {
				helpers.Logger.Errorf("snapshot update failed: %v", err)
			}
		}
	}
}

func (r *Recorder) nextRun(now time.Time) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), 22, 0, 0, 0, r.location)
	if !run.After(now) {
		run = run.AddDate(0, 0, 1)
	}
	return run
}

// UpdateByDate pulls every market's snapshot and writes the day's rows.
func (r *Recorder) UpdateByDate(ctx context.Context) error {
	now := time.Now().In(r.location)
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		helpers.Logger.Info("non-trading day, skipping snapshot update")
		return nil
	}

	var quotes []fubon.SnapshotQuote
	var snapshotDate time.Time
	for _, market := range snapshotMarkets {
		snapshot, err := r.client.GetSnapshot(ctx, market)
		if err != nil {
			return err
		}
		if snapshot.Date != "" {
			if d, err := time.Parse("2006-01-02", snapshot.Date); err == nil {
				snapshotDate = d
			}
		}
		quotes = append(quotes, snapshot.Data...)
	}

	if len(quotes) == 0 {
		helpers.Logger.Info("snapshot empty, nothing to store")
		return nil
	}
	if snapshotDate.IsZero() {
		snapshotDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	symbols := make([]string, 0, len(quotes))
	for _, q := range quotes {
		symbols = append(symbols, q.Symbol)
	}
	stocks, err := r.stockRepo.FindBySymbols(symbols)
	if err != nil {
		return err
	}

	rows := make([]models.DailyPrice, 0, len(quotes))
	for _, q := range quotes {
		stock, ok := stocks[q.Symbol]
		if !ok {
			continue
		}
		rows = append(rows, models.DailyPrice{
			StockID:   stock.ID,
			TradeDate: snapshotDate,
			Open:      q.OpenPrice,
			High:      q.HighPrice,
			Low:       q.LowPrice,
			Close:     q.ClosePrice,
			Volume:    q.TradeVolume,
		})
	}

	if err := r.priceRepo.CreateBatch(rows); err != nil {
		return err
	}
	helpers.Logger.Infof("snapshot update stored %d rows for %s", len(rows), snapshotDate.Format("2006-01-02"))
	return nil
}
