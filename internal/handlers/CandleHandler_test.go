package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockBacktest/internal/models"
)

type fakeStocks struct {
	stocks map[string]*models.Stock
}

func (f *fakeStocks) FindAll() ([]models.Stock, error) {
	var out []models.Stock
	for _, s := range f.stocks {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeStocks) FindBySymbol(symbol string) (*models.Stock, error) {
	return f.stocks[symbol], nil
}

type fakePrices struct {
	history []models.DailyPrice
}

func (f *fakePrices) GetPriceHistory(stockID uint, start, end time.Time) ([]models.DailyPrice, error) {
	var out []models.DailyPrice
	for _, p := range f.history {
		if p.StockID == stockID && !p.TradeDate.Before(start) && !p.TradeDate.After(end) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePrices) GetLatestPrice(stockID uint) (*models.DailyPrice, error) {
	var latest *models.DailyPrice
	for i := range f.history {
		p := &f.history[i]
		if p.StockID != stockID {
			continue
		}
		if latest == nil || p.TradeDate.After(latest.TradeDate) {
			latest = p
		}
	}
	return latest, nil
}

func candleFixtures() (*fakeStocks, *fakePrices) {
	stocks := &fakeStocks{stocks: map[string]*models.Stock{
		"2330": {ID: 1, Symbol: "2330", CompanyName: "台積電", Market: models.MarketTSE},
	}}
	prices := &fakePrices{history: []models.DailyPrice{
		{StockID: 1, TradeDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Close: 100},
		{StockID: 1, TradeDate: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Close: 102},
		{StockID: 1, TradeDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Close: 104},
	}}
	return stocks, prices
}

func getCandles(t *testing.T, h *CandleHandler, symbol, query string, latest bool) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	e := echo.New()
	target := "/historical-candles/" + symbol
	if latest {
		target += "/latest"
	}
	if query != "" {
		target += "?" + query
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("symbol")
	c.SetParamValues(symbol)

	if latest {
		require.NoError(t, h.GetLatestCandle(c))
	} else {
		require.NoError(t, h.GetCandles(c))
	}

	var envelope Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func TestGetCandlesBoundsByQueryDates(t *testing.T) {
	h := NewCandleHandler(candleFixtures())

	rec, envelope := getCandles(t, h, "2330", "startDate=2024-03-02&endDate=2024-03-04", false)
	assert.Equal(t, http.StatusOK, rec.Code)

	payload := envelope.Data.(map[string]interface{})
	assert.Equal(t, "2330", payload["symbol"])
	candles := payload["candles"].([]interface{})
	assert.Len(t, candles, 1)
}

func TestGetCandlesRejectsBadDates(t *testing.T) {
	h := NewCandleHandler(candleFixtures())

	rec, _ := getCandles(t, h, "2330", "startDate=03-02-2024", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCandlesUnknownSymbol(t *testing.T) {
	h := NewCandleHandler(candleFixtures())

	rec, envelope := getCandles(t, h, "0000", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, envelope.Message, "unknown stock symbol")
}

func TestGetLatestCandleReturnsNewest(t *testing.T) {
	h := NewCandleHandler(candleFixtures())

	rec, envelope := getCandles(t, h, "2330", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)

	payload := envelope.Data.(map[string]interface{})
	candle := payload["candle"].(map[string]interface{})
	assert.Equal(t, 104.0, candle["Close"])
}

func TestGetLatestCandleEmptyHistory(t *testing.T) {
	stocks, _ := candleFixtures()
	h := NewCandleHandler(stocks, &fakePrices{})

	rec, envelope := getCandles(t, h, "2330", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, envelope.Message, "no candles stored")
}
