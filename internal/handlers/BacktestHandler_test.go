package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockBacktest/internal/models"
	"StockBacktest/internal/operations/backtest"
	"StockBacktest/internal/services/strategy"
)

// flatSource serves a flat 100-dollar history for every symbol except the
// ones listed in missing.
type flatSource struct {
	missing map[string]bool
}

func (f *flatSource) GetHistory(symbol string, start, end time.Time) ([]models.StockBar, error) {
	if f.missing[symbol] {
		return nil, nil
	}
	var bars []models.StockBar
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		bars = append(bars, models.StockBar{
			Symbol:    symbol,
			TradeDate: d,
			Open:      99.5,
			High:      101,
			Low:       99,
			Close:     100,
			Volume:    1_000_000,
		})
	}
	return bars, nil
}

func newTestHandler(source backtest.PriceSource) *BacktestHandler {
	engine := backtest.NewEngine(source, strategy.NewStrategyManager())
	return NewBacktestHandler(engine)
}

func doRun(t *testing.T, h *BacktestHandler, body string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/backtest/run", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Run(e.NewContext(req, rec)))

	var envelope Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func TestRunRejectsMalformedBody(t *testing.T) {
	h := newTestHandler(&flatSource{})

	rec, envelope := doRun(t, h, `{"stocks": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, envelope.Error)
}

func TestRunValidatesRequest(t *testing.T) {
	h := newTestHandler(&flatSource{})

	cases := []struct {
		name string
		body string
	}{
		{"no stocks", `{"stocks":[],"startDate":"2024-01-01","endDate":"2024-03-01","initialCapital":1000000}`},
		{"bad date", `{"stocks":["2330"],"startDate":"01/01/2024","endDate":"2024-03-01","initialCapital":1000000}`},
		{"zero capital", `{"stocks":["2330"],"startDate":"2024-01-01","endDate":"2024-03-01","initialCapital":0}`},
		{"unknown strategy", `{"stocks":["2330"],"startDate":"2024-01-01","endDate":"2024-03-01","initialCapital":1000000,"strategy":"bollinger"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, envelope := doRun(t, h, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, http.StatusBadRequest, envelope.StatusCode)
			assert.NotEmpty(t, envelope.Error)
		})
	}
}

func TestRunAppliesDefaultParameters(t *testing.T) {
	h := newTestHandler(&flatSource{})

	body := `{"stocks":["2330"],"startDate":"2024-01-01","endDate":"2024-03-01","initialCapital":1000000}`
	rec, envelope := doRun(t, h, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, envelope.StatusCode)
	require.NotNil(t, envelope.Data)

	// A flat series never signals: the run completes with zero trades and
	// the initial capital intact.
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var results backtest.BacktestResults
	require.NoError(t, json.Unmarshal(data, &results))
	assert.Zero(t, results.Trades.TotalTrades)
	assert.Equal(t, 1_000_000.0, results.Performance.FinalCapital)
}

func TestRunRejectsIncompleteExplicitParameters(t *testing.T) {
	h := newTestHandler(&flatSource{})

	// Explicit parameters are all-or-nothing; an empty object fails the
	// parameter validator instead of silently running on zeros.
	body := `{"stocks":["2330"],"startDate":"2024-01-01","endDate":"2024-03-01","initialCapital":1000000,"strategyParams":{}}`
	rec, envelope := doRun(t, h, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, envelope.Message, "parameter")
}

func TestRunReportsEngineFailure(t *testing.T) {
	h := newTestHandler(&flatSource{missing: map[string]bool{"9999": true}})

	body := `{"stocks":["9999"],"startDate":"2024-01-01","endDate":"2024-03-01","initialCapital":1000000}`
	rec, envelope := doRun(t, h, body)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, envelope.Error)
}
