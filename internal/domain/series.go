package domain

import (
	"sort"
	"time"
)

// Bar is one daily OHLCV candle.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is the daily price history of one ticker: bars sorted by date
// ascending, unique dates. The series is owned by the caller; engines and
// scanners only read it.
type Series struct {
	Ticker string
	Bars   []Bar
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Empty reports whether the series has no bars.
func (s Series) Empty() bool { return len(s.Bars) == 0 }

// IndexOf returns the position of the bar traded exactly on date.
func (s Series) IndexOf(date time.Time) (int, bool) {
	i := sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Date.Before(date)
	})
	if i < len(s.Bars) && s.Bars[i].Date.Equal(date) {
		return i, true
	}
	return 0, false
}

// SearchDate returns the index of the first bar on or after date.
// Returns Len() if every bar is earlier.
func (s Series) SearchDate(date time.Time) int {
	return sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Date.Before(date)
	})
}

// TruncateTo returns the prefix of the series up to and including date.
// The returned series shares the underlying bar storage.
func (s Series) TruncateTo(date time.Time) Series {
	i := sort.Search(len(s.Bars), func(i int) bool {
		return s.Bars[i].Date.After(date)
	})
	return Series{Ticker: s.Ticker, Bars: s.Bars[:i]}
}

// Slice returns the sub-series in the closed date range [start, end],
// sharing the underlying storage.
func (s Series) Slice(start, end time.Time) Series {
	lo := s.SearchDate(start)
	hi := sort.Search(len(s.Bars), func(i int) bool {
		return s.Bars[i].Date.After(end)
	})
	if lo > hi {
		lo = hi
	}
	return Series{Ticker: s.Ticker, Bars: s.Bars[lo:hi]}
}

// Last returns the most recent bar. Callers must check Empty first.
func (s Series) Last() Bar { return s.Bars[len(s.Bars)-1] }

// LastDate returns the date of the most recent bar, or the zero time.
func (s Series) LastDate() time.Time {
	if s.Empty() {
		return time.Time{}
	}
	return s.Last().Date
}

// CloseAt returns the close of the bar traded on date, if any.
func (s Series) CloseAt(date time.Time) (float64, bool) {
	i, ok := s.IndexOf(date)
	if !ok {
		return 0, false
	}
	return s.Bars[i].Close, true
}

// LastCloseBefore returns the close of the last bar on or before date.
func (s Series) LastCloseBefore(date time.Time) (float64, bool) {
	i := sort.Search(len(s.Bars), func(i int) bool {
		return s.Bars[i].Date.After(date)
	})
	if i == 0 {
		return 0, false
	}
	return s.Bars[i-1].Close, true
}

// Fundamentals is a sparse per-ticker key→value record (e.g. "marketCap").
// May be empty; readers fall back to zero for missing keys.
type Fundamentals map[string]float64

// Get returns the value for key, or 0 if absent.
func (f Fundamentals) Get(key string) float64 { return f[key] }
