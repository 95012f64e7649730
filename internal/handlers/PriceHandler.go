package handlers

import (
	"context"
	"time"

	"StockBacktest/internal/helpers"
	"StockBacktest/internal/operations/price"
	"StockBacktest/internal/services/status"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RefreshRequest asks the service to pull and store history for symbols.
type RefreshRequest struct {
	Symbols   []string `json:"symbols" validate:"required,min=1,dive,required"`
	StartDate string   `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string   `json:"endDate" validate:"required,datetime=2006-01-02"`
}

// PriceHandler exposes ingestion triggers and their progress.
type PriceHandler struct {
	fetcher  *price.Fetcher
	recorder *price.Recorder
	status   *status.StatusService
	validate *validator.Validate
}

func NewPriceHandler(fetcher *price.Fetcher, recorder *price.Recorder, statusSvc *status.StatusService) *PriceHandler {
	return &PriceHandler{
		fetcher:  fetcher,
		recorder: recorder,
		status:   statusSvc,
		validate: validator.New(),
	}
}

func (h *PriceHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/prices/refresh", h.Refresh)
	e.POST("/prices/snapshot", h.Snapshot)
	e.GET("/status", h.Status)
}

// Refresh starts a background history fetch for the requested symbols.
func (h *PriceHandler) Refresh(c echo.Context) error {
	req := &RefreshRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "malformed request body", err)
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "request validation failed", err)
	}
	if h.status.Get().IsProcessing {
		return badRequest(c, "a fetch is already running", echo.ErrTooManyRequests)
	}

	startDate, _ := time.Parse("2006-01-02", req.StartDate)
	endDate, _ := time.Parse("2006-01-02", req.EndDate)

	// Detached from the request context: the fetch outlives the response.
	go func() {
		if err := h.fetcher.FetchAndStore(context.Background(), req.Symbols, startDate, endDate); err != nil {
			helpers.Logger.Errorf("background fetch failed: %v", err)
		}
	}()

	return ok(c, "history fetch started", map[string]int{"symbols": len(req.Symbols)})
}

// Snapshot triggers an immediate end-of-day snapshot ingestion.
func (h *PriceHandler) Snapshot(c echo.Context) error {
	if err := h.recorder.UpdateByDate(c.Request().Context()); err != nil {
		return serverError(c, "snapshot update failed", err)
	}
	return ok(c, "snapshot stored", nil)
}

// Status reports the progress of the running ingestion job, if any.
func (h *PriceHandler) Status(c echo.Context) error {
	return ok(c, "processing status", h.status.Get())
}
