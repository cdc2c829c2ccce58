package notify

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/marketlens/internal/domain"
)

func TestConsole_NotifyScan(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false, false)

	err := c.NotifyScan([]domain.ScanResult{
		{Ticker: "AAPL", Score: 82.5, Signal: domain.SignalStrongBuy,
			Details: map[string]string{"entry": "HMR@M10(0d)"}},
		{Ticker: "MSFT", Score: 41.0, Signal: domain.SignalBuy,
			Details: map[string]string{"entry": "APR@M20(1d)"}},
	}, "entry_point")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "82.5")
	assert.Contains(t, out, "STRONG_BUY")
	assert.Contains(t, out, "HMR@M10(0d)")
	assert.Contains(t, out, "entry_point")
}

func TestConsole_NotifyScan_Empty(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false, false)

	require.NoError(t, c.NotifyScan(nil, "entry_point"))
	assert.Contains(t, buf.String(), "No results")
}

func TestConsole_NotifySimulation(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false, false)

	res := &domain.SimulationResult{
		Ticker:         "AAPL",
		TotalReturnPct: 12.5,
		WinRatePct:     66.7,
		NumTrades:      3,
		Trades: []domain.Trade{
			{Ticker: "AAPL", EntryPrice: 100, ExitPrice: 110, ReturnPct: 10,
				ExitReason: domain.ExitProfitTarget,
				EntryDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				ExitDate:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		},
	}

	require.NoError(t, c.NotifySimulation([]*domain.SimulationResult{res}, "entry_point"))

	out := buf.String()
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "AGGREGATE")
	// Single result always gets a trade log.
	assert.Contains(t, out, "Trade Log: AAPL")
	assert.Contains(t, out, "PROFIT_TARGET")
}

func TestConsole_NotifyPortfolio(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true, true)

	result := &domain.PortfolioResult{
		ScannerName:     "entry_point",
		InitialCapital:  100_000,
		FinalEquity:     110_000,
		TotalReturnPct:  10,
		NumTrades:       1,
		WinRatePct:      100,
		MaxPositions:    10,
		PositionSizePct: 0.10,
		StartDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		ExitBreakdown:   map[string]int{domain.ExitProfitTarget: 1},
		TickerBreakdown: map[string]domain.TickerStats{
			"AAPL": {NumTrades: 1, WinRatePct: 100, AvgReturnPct: 10, TotalReturnPct: 10},
		},
		Trades: []domain.Trade{
			{Ticker: "AAPL", EntryPrice: 100, ExitPrice: 110, ReturnPct: 10,
				ExitReason: domain.ExitProfitTarget,
				EntryDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				ExitDate:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		},
	}

	require.NoError(t, c.NotifyPortfolio(result))

	out := buf.String()
	assert.Contains(t, out, "Portfolio Simulation: entry_point")
	assert.Contains(t, out, "Exit Reasons")
	assert.Contains(t, out, "Per-Ticker Breakdown")
	assert.Contains(t, out, "Trade Log")
	assert.Contains(t, out, "AAPL")
}

func TestConsole_NotifyPortfolio_NoTrades(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false, false)

	require.NoError(t, c.NotifyPortfolio(&domain.PortfolioResult{}))
	assert.Contains(t, buf.String(), "No trades generated")
}
