package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/marketlens/internal/domain"
)

func TestPortfolio_PicksHighestScoreWhenSlotsAreScarce(t *testing.T) {
	seriesA := weekdaySeries("AAA", day(2024, 1, 1), 10, func(i int) float64 { return 100 })
	seriesB := weekdaySeries("BBB", day(2024, 1, 1), 10, func(i int) float64 { return 50 })
	signalDay := seriesA.Bars[2].Date

	s := &scriptedScanner{
		entries: map[string]map[time.Time]domain.EntrySignal{
			"AAA": {signalDay: entryAt(seriesA, 2, 80)},
			"BBB": {signalDay: entryAt(seriesB, 2, 60)},
		},
	}

	p := NewPortfolio(s, 100_000, 1, 0.10, 1)
	result := p.Simulate(
		[]string{"AAA", "BBB"},
		map[string]domain.Series{"AAA": seriesA, "BBB": seriesB},
		map[string]domain.Fundamentals{},
		seriesA.Bars[0].Date, seriesA.LastDate(),
	)

	require.Equal(t, 1, result.NumTrades)
	assert.Equal(t, "AAA", result.Trades[0].Ticker)
	assert.Equal(t, domain.ExitEndOfData, result.Trades[0].ExitReason)
	assert.Contains(t, result.TickerBreakdown, "AAA")
	assert.NotContains(t, result.TickerBreakdown, "BBB")
}

func TestPortfolio_CashGateStopsEntries(t *testing.T) {
	seriesA := weekdaySeries("AAA", day(2024, 1, 1), 10, func(i int) float64 { return 100 })
	seriesB := weekdaySeries("BBB", day(2024, 1, 1), 10, func(i int) float64 { return 50 })
	signalDay := seriesA.Bars[2].Date

	s := &scriptedScanner{
		entries: map[string]map[time.Time]domain.EntrySignal{
			"AAA": {signalDay: entryAt(seriesA, 2, 80)},
			"BBB": {signalDay: entryAt(seriesB, 2, 60)},
		},
	}

	// Position size eats all cash: the second candidate cannot fund a
	// meaningful position and is skipped.
	p := NewPortfolio(s, 100_000, 2, 1.0, 1)
	result := p.Simulate(
		[]string{"AAA", "BBB"},
		map[string]domain.Series{"AAA": seriesA, "BBB": seriesB},
		map[string]domain.Fundamentals{},
		seriesA.Bars[0].Date, seriesA.LastDate(),
	)

	require.Equal(t, 1, result.NumTrades)
	assert.Equal(t, "AAA", result.Trades[0].Ticker)
}

func TestPortfolio_EquityCurveAndFinalRow(t *testing.T) {
	series := weekdaySeries("AAA", day(2024, 1, 1), 10, func(i int) float64 {
		return 100 + float64(i)
	})
	s := &scriptedScanner{
		entries: map[string]map[time.Time]domain.EntrySignal{
			"AAA": {series.Bars[2].Date: entryAt(series, 2, 80)},
		},
	}

	p := NewPortfolio(s, 100_000, 10, 0.10, 1)
	result := p.Simulate(
		[]string{"AAA"},
		map[string]domain.Series{"AAA": series},
		map[string]domain.Fundamentals{},
		series.Bars[0].Date, series.LastDate(),
	)

	assert.Equal(t, 10, result.TotalDays)
	require.Len(t, result.EquityCurve, 10)

	// Before the entry day the portfolio is all cash.
	assert.Equal(t, 100_000.0, result.EquityCurve[0].Equity)
	assert.Equal(t, 0, result.EquityCurve[0].NumPositions)

	// While the position is open the curve marks it to market.
	mid := result.EquityCurve[5]
	assert.Equal(t, 1, mid.NumPositions)
	assert.InDelta(t, mid.Cash+mid.PositionValue, mid.Equity, 1e-9)

	// Force-close flattens the final row.
	last := result.EquityCurve[9]
	assert.Equal(t, 0, last.NumPositions)
	assert.Equal(t, last.Cash, last.Equity)
	assert.Equal(t, 0.0, last.PositionValue)

	// 10k invested at 102, closed at 109.
	require.Equal(t, 1, result.NumTrades)
	assert.InDelta(t, 6.86, result.Trades[0].ReturnPct, 0.001)
	assert.Greater(t, result.FinalEquity, result.InitialCapital)
}

func TestPortfolio_NoValidTickers(t *testing.T) {
	p := NewPortfolio(&scriptedScanner{}, 100_000, 10, 0.10, 1)
	result := p.Simulate(nil, map[string]domain.Series{}, map[string]domain.Fundamentals{}, time.Time{}, time.Time{})

	assert.Zero(t, result.NumTrades)
	assert.Equal(t, 100_000.0, result.FinalEquity)
	assert.Empty(t, result.EquityCurve)
}

func TestUnionDates_MergesAndSorts(t *testing.T) {
	a := weekdaySeries("A", day(2024, 1, 1), 3, func(i int) float64 { return 1 })
	b := weekdaySeries("B", day(2024, 1, 2), 3, func(i int) float64 { return 1 })

	dates := unionDates([]string{"A", "B"}, map[string]domain.Series{"A": a, "B": b})

	// Jan 1, 2, 3 from A; Jan 2, 3, 4 from B; union is 4 unique days.
	require.Len(t, dates, 4)
	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i-1].Before(dates[i]))
	}
}
