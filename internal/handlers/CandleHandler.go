package handlers

import (
	"time"

	"StockBacktest/internal/models"

	"github.com/labstack/echo/v4"
)

// stockReader is the slice of the stock repository the candle routes read.
type stockReader interface {
	FindAll() ([]models.Stock, error)
	FindBySymbol(symbol string) (*models.Stock, error)
}

// priceReader is the slice of the price repository the candle routes read.
type priceReader interface {
	GetPriceHistory(stockID uint, start, end time.Time) ([]models.DailyPrice, error)
	GetLatestPrice(stockID uint) (*models.DailyPrice, error)
}

// CandleHandler serves the stored stock directory and daily candles.
type CandleHandler struct {
	stockRepo stockReader
	priceRepo priceReader
}

func NewCandleHandler(stockRepo stockReader, priceRepo priceReader) *CandleHandler {
	return &CandleHandler{
		stockRepo: stockRepo,
		priceRepo: priceRepo,
	}
}

func (h *CandleHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/historical-candles", h.ListStocks)
	e.GET("/historical-candles/:symbol", h.GetCandles)
	e.GET("/historical-candles/:symbol/latest", h.GetLatestCandle)
}

// ListStocks returns the stock master list.
func (h *CandleHandler) ListStocks(c echo.Context) error {
	stocks, err := h.stockRepo.FindAll()
	if err != nil {
		return serverError(c, "loading stock list failed", err)
	}
	return ok(c, "stock list", stocks)
}

// GetCandles returns a symbol's stored candles, optionally bounded by
// startDate/endDate query parameters (YYYY-MM-DD).
func (h *CandleHandler) GetCandles(c echo.Context) error {
	stock, err := h.lookupStock(c)
	if stock == nil {
		return err
	}

	start := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Now()
	if v := c.QueryParam("startDate"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return badRequest(c, "bad startDate", err)
		}
		start = d
	}
	if v := c.QueryParam("endDate"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return badRequest(c, "bad endDate", err)
		}
		end = d
	}

	prices, err := h.priceRepo.GetPriceHistory(stock.ID, start, end)
	if err != nil {
		return serverError(c, "loading candles failed", err)
	}
	return ok(c, "candles", map[string]interface{}{
		"symbol":  stock.Symbol,
		"market":  stock.Market,
		"candles": prices,
	})
}

// GetLatestCandle returns a symbol's most recent stored candle.
func (h *CandleHandler) GetLatestCandle(c echo.Context) error {
	stock, err := h.lookupStock(c)
	if stock == nil {
		return err
	}

	price, err := h.priceRepo.GetLatestPrice(stock.ID)
	if err != nil {
		return serverError(c, "loading latest candle failed", err)
	}
	if price == nil {
		return badRequest(c, "no candles stored for symbol", echo.NewHTTPError(echo.ErrNotFound.Code, stock.Symbol))
	}
	return ok(c, "latest candle", map[string]interface{}{
		"symbol": stock.Symbol,
		"market": stock.Market,
		"candle": price,
	})
}

// lookupStock resolves the :symbol route parameter. On a nil stock the
// returned error is the response already written.
func (h *CandleHandler) lookupStock(c echo.Context) (*models.Stock, error) {
	symbol := c.Param("symbol")
	stock, err := h.stockRepo.FindBySymbol(symbol)
	if err != nil {
		return nil, serverError(c, "looking up stock failed", err)
	}
	if stock == nil {
		return nil, badRequest(c, "unknown stock symbol", echo.NewHTTPError(echo.ErrNotFound.Code, symbol))
	}
	return stock, nil
}
