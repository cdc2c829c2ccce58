package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/marketlens/internal/domain"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// weekdaySeries generates n consecutive weekday bars starting at start,
// with close(i) produced by fn.
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

func TestRegistry_HasEntryPoint(t *testing.T) {
	r := NewRegistry()

	s, ok := r.Get("entry_point")
	require.True(t, ok)
	assert.Equal(t, "entry_point", s.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestDefaultExitSignal_StopLoss(t *testing.T) {
	series := weekdaySeries("T", day(2024, 1, 1), 10, func(i int) float64 {
		if i == 9 {
			return 88 // below the 10% stop from 100
		}
		return 100
	})
	entry := domain.EntrySignal{Date: series.Bars[2].Date, Price: 100}

	exit := DefaultExitSignal(series, entry, series.LastDate())

	require.NotNil(t, exit)
	assert.Equal(t, domain.ExitStopLoss, exit.Reason)
	assert.Equal(t, 88.0, exit.Price)
}

func TestDefaultExitSignal_TimeExit(t *testing.T) {
	series := weekdaySeries("T", day(2024, 1, 1), 40, func(i int) float64 { return 100 })
	entry := domain.EntrySignal{Date: series.Bars[0].Date, Price: 100}

	last := series.LastDate()
	require.GreaterOrEqual(t, int(last.Sub(entry.Date).Hours()/24), 30)

	exit := DefaultExitSignal(series, entry, last)
	require.NotNil(t, exit)
	assert.Equal(t, domain.ExitTime, exit.Reason)
}

func TestDefaultExitSignal_HoldsOtherwise(t *testing.T) {
	series := weekdaySeries("T", day(2024, 1, 1), 10, func(i int) float64 { return 100 })
	entry := domain.EntrySignal{Date: series.Bars[2].Date, Price: 100}

	assert.Nil(t, DefaultExitSignal(series, entry, series.LastDate()))
}

func TestDefaultEntrySignal_RequiresHistory(t *testing.T) {
	s := NewEntryPoint()
	series := weekdaySeries("T", day(2024, 1, 1), 30, func(i int) float64 { return 100 })

	entry := DefaultEntrySignal(s, "T", series, domain.Fundamentals{}, series.LastDate())
	assert.Nil(t, entry)
}
