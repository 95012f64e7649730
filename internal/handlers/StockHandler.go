package handlers

import (
	"StockBacktest/internal/operations/stocklist"

	"github.com/labstack/echo/v4"
)

// StockHandler exposes the stock master maintenance trigger.
type StockHandler struct {
	syncer *stocklist.Syncer
}

func NewStockHandler(syncer *stocklist.Syncer) *StockHandler {
	return &StockHandler{syncer: syncer}
}

func (h *StockHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/stocks/sync", h.Sync)
}

// Sync refreshes the stock master table from the provider's directory.
func (h *StockHandler) Sync(c echo.Context) error {
	count, err := h.syncer.Sync(c.Request().Context())
	if err != nil {
		return serverError(c, "stock list sync failed", err)
	}
	return ok(c, "stock list synced", map[string]int{"stocks": count})
}
