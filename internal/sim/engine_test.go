package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/marketlens/internal/domain"
	"github.com/alejandrodnm/marketlens/internal/scanner"
)

// scriptedScanner fires entries and exits on fixed dates, keyed by ticker.
type scriptedScanner struct {
	entries map[string]map[time.Time]domain.EntrySignal
	exits   map[string]map[time.Time]domain.ExitSignal
}

func (s *scriptedScanner) Name() string                   { return "scripted" }
func (s *scriptedScanner) Description() string            { return "test double" }
func (s *scriptedScanner) Configure(scanner.Params) error { return nil }
func (s *scriptedScanner) Clone() scanner.Scanner         { return s }
func (s *scriptedScanner) PrepareSimulation(string, domain.Series, domain.Fundamentals) error {
	return nil
}

func (s *scriptedScanner) Scan(ticker string, series domain.Series, _ domain.Fundamentals) *domain.ScanResult {
	return nil
}

func (s *scriptedScanner) CheckEntrySignal(ticker string, _ domain.Series, _ domain.Fundamentals, asOf time.Time) *domain.EntrySignal {
	if entry, ok := s.entries[ticker][asOf]; ok {
		return &entry
	}
	return nil
}

func (s *scriptedScanner) CheckExitSignal(ticker string, _ domain.Series, _ domain.EntrySignal, current time.Time) *domain.ExitSignal {
	if exit, ok := s.exits[ticker][current]; ok {
		return &exit
	}
	return nil
}

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func weekdaySeries(ticker string, start time.Time, n int, fn func(i int) float64) domain.Series {
	bars := make([]domain.Bar, 0, n)
	date := start
	for i := 0; i < n; {
		if wd := date.Weekday(); wd != time.Saturday && wd != time.Sunday {
			c := fn(i)
			bars = append(bars, domain.Bar{
				Date: date, Open: c - 0.2, High: c + 0.5, Low: c - 0.5,
				Close: c, Volume: 1_000_000,
			})
			i++
		}
		date = date.AddDate(0, 0, 1)
	}
	return domain.Series{Ticker: ticker, Bars: bars}
}

func entryAt(series domain.Series, idx int, score float64) domain.EntrySignal {
	bar := series.Bars[idx]
	return domain.EntrySignal{Date: bar.Date, Price: bar.Close, Reason: domain.SignalBuy, Score: score}
}

func TestEngine_ForceCloseAtEndOfData(t *testing.T) {
	series := weekdaySeries("T", day(2024, 1, 1), 10, func(i int) float64 {
		return 100 + float64(i)
	})
	s := &scriptedScanner{
		entries: map[string]map[time.Time]domain.EntrySignal{
			"T": {series.Bars[2].Date: entryAt(series, 2, 50)},
		},
	}

	engine := NewEngine(s, 100_000, 1.0)
	res, err := engine.SimulateTicker("T", series, nil, series.Bars[0].Date, series.LastDate())
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.Equal(t, domain.ExitEndOfData, trade.ExitReason)
	assert.Equal(t, 102.0, trade.EntryPrice)
	assert.Equal(t, 109.0, trade.ExitPrice)
	// (109 - 102) / 102 * 100 rounded to 2 decimals
	assert.InDelta(t, 6.86, trade.ReturnPct, 0.001)

	assert.Len(t, res.EquityCurve, 10)
	last := res.EquityCurve[len(res.EquityCurve)-1]
	assert.Equal(t, last.Cash, last.Equity)
	assert.Equal(t, 0.0, last.PositionValue)
	assert.Greater(t, res.TotalReturnPct, 0.0)
	assert.Equal(t, 10, res.TotalDays)
}

func TestEngine_StopLossTrade(t *testing.T) {
	series := weekdaySeries("T", day(2024, 1, 1), 10, func(i int) float64 { return 100 })
	exitDate := series.Bars[6].Date
	s := &scriptedScanner{
		entries: map[string]map[time.Time]domain.EntrySignal{
			"T": {series.Bars[2].Date: entryAt(series, 2, 50)},
		},
		exits: map[string]map[time.Time]domain.ExitSignal{
			"T": {exitDate: {Date: exitDate, Price: 89, Reason: domain.ExitStopLoss}},
		},
	}

	engine := NewEngine(s, 100_000, 1.0)
	res, err := engine.SimulateTicker("T", series, nil, series.Bars[0].Date, series.LastDate())
	require.NoError(t, err)

	require.Equal(t, 1, res.NumTrades)
	assert.Equal(t, -11.0, res.Trades[0].ReturnPct)
	assert.Equal(t, 0.0, res.WinRatePct)
	assert.Equal(t, map[string]int{domain.ExitStopLoss: 1}, res.ExitBreakdown)

	// Cash after the round trip: 100k spent at 100, back at 89.
	last := res.EquityCurve[len(res.EquityCurve)-1]
	assert.InDelta(t, 89_000, last.Equity, 0.01)
	assert.InDelta(t, -11.0, res.TotalReturnPct, 0.001)
}

func TestEngine_NoSignalsNoTrades(t *testing.T) {
	series := weekdaySeries("T", day(2024, 1, 1), 10, func(i int) float64 { return 100 })
	engine := NewEngine(&scriptedScanner{}, 100_000, 1.0)

	res, err := engine.SimulateTicker("T", series, nil, series.Bars[0].Date, series.LastDate())
	require.NoError(t, err)

	assert.Zero(t, res.NumTrades)
	assert.Zero(t, res.TotalReturnPct)
	assert.Len(t, res.EquityCurve, 10)
	for _, p := range res.EquityCurve {
		assert.Equal(t, 100_000.0, p.Equity)
	}
}

func TestMaxDrawdown(t *testing.T) {
	curve := []domain.EquityPoint{
		{Equity: 100}, {Equity: 120}, {Equity: 90}, {Equity: 130}, {Equity: 110},
	}
	// Worst decline: 120 -> 90 = -25%.
	assert.InDelta(t, -25.0, maxDrawdown(curve), 1e-9)
	assert.Equal(t, 0.0, maxDrawdown(nil))
}
