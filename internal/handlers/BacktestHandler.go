package handlers

import (
	"errors"
	"time"

	"StockBacktest/internal/helpers"
	"StockBacktest/internal/operations/backtest"
	"StockBacktest/internal/services/strategy"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// BacktestRequest is the POST /backtest/run payload. Omitted strategy
// parameters take the documented defaults.
type BacktestRequest struct {
	Stocks         []string                 `json:"stocks" validate:"required,min=1,dive,required"`
	StartDate      string                   `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate        string                   `json:"endDate" validate:"required,datetime=2006-01-02"`
	InitialCapital float64                  `json:"initialCapital" validate:"required,gt=0"`
	Strategy       string                   `json:"strategy" validate:"omitempty,oneof=rsi_macd w"`
	StrategyParams *strategy.StrategyParams `json:"strategyParams"`
}

type BacktestHandler struct {
	engine   *backtest.Engine
	validate *validator.Validate
}

func NewBacktestHandler(engine *backtest.Engine) *BacktestHandler {
	return &BacktestHandler{
		engine:   engine,
		validate: validator.New(),
	}
}

func (h *BacktestHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/backtest/run", h.Run)
}

// Run executes a backtest and returns the full report.
func (h *BacktestHandler) Run(c echo.Context) error {
	req := &BacktestRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "malformed request body", err)
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "request validation failed", err)
	}

	// Parameters are all-or-nothing: a request without strategyParams runs
	// on the documented defaults, a request with them must be complete.
	params := strategy.StrategyParams{}
	if req.StrategyParams == nil {
		if err := defaults.Set(&params); err != nil {
			return serverError(c, "applying default parameters failed", err)
		}
	} else {
		params = *req.StrategyParams
		if err := h.validate.Struct(&params); err != nil {
			return badRequest(c, "strategy parameter validation failed", err)
		}
	}

	kind := strategy.StrategyKind(req.Strategy)
	if kind == "" {
		kind = strategy.StrategyRSIMACD
	}

	startDate, _ := time.Parse("2006-01-02", req.StartDate)
	endDate, _ := time.Parse("2006-01-02", req.EndDate)

	cfg := backtest.Config{
		Stocks:         req.Stocks,
		StartDate:      startDate,
		EndDate:        endDate,
		InitialCapital: req.InitialCapital,
		Strategy:       kind,
		Params:         params,
	}

	helpers.Logger.Infof("running backtest: %d stocks, %s to %s, capital %.0f",
		len(cfg.Stocks), req.StartDate, req.EndDate, cfg.InitialCapital)

	results, err := h.engine.Run(cfg)
	if err != nil {
		if errors.Is(err, backtest.ErrInvalidConfig) {
			return badRequest(c, "backtest rejected", err)
		}
		return serverError(c, "backtest failed", err)
	}

	return ok(c, "backtest completed", results)
}
