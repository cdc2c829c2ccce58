// Package indicator computes derived time series from a daily OHLCV series:
// simple moving averages at several windows, the expanding all-time high,
// a rolling volume average, and weekly-resampled moving averages projected
// back onto the daily index with forward fill.
//
// All outputs are aligned to the input index. Positions inside an
// indicator's warm-up window hold NaN; use Defined to check.
package indicator

import (
	"errors"
	"math"
	"time"

	"github.com/alejandrodnm/marketlens/internal/domain"
)

// ErrInsufficientData is returned when the series is shorter than the
// longest lookback required. Callers treat it as "no verdict", not a fault.
var ErrInsufficientData = errors.New("indicator: insufficient data")

// Config holds the window lengths for one computation.
type Config struct {
	DailyXFast int // shortest daily MA
	DailyFast  int
	DailyMid   int
	DailySlow  int // longest daily MA, dominates the warm-up requirement
	WeeklyFast int
	WeeklyMid  int
	VolumeWin  int // rolling volume average window
}

// Set is the bundle of daily-aligned indicator series for one ticker.
// Every slice has the same length as the input series.
type Set struct {
	DailyXFast []float64
	DailyFast  []float64
	DailyMid   []float64
	DailySlow  []float64
	ATH        []float64 // expanding max of highs
	VolumeAvg  []float64

	// Weekly values forward-filled onto daily dates. A daily date carries
	// the value of the last completed week, so these lag by up to a week.
	WeeklyClose []float64
	WeeklyFast  []float64
	WeeklyMid   []float64
}

// Defined reports whether an indicator value is outside its warm-up window.
func Defined(v float64) bool { return !math.IsNaN(v) }

// Compute derives the full indicator set for a series. It returns
// ErrInsufficientData when the series cannot support the longest daily
// lookback plus the weekly resample buffer.
func Compute(series domain.Series, cfg Config) (*Set, error) {
	if series.Len() < cfg.DailySlow+20 {
		return nil, ErrInsufficientData
	}

	n := series.Len()
	closes := make([]float64, n)
	highs := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range series.Bars {
		closes[i] = b.Close
		highs[i] = b.High
		volumes[i] = b.Volume
	}

	set := &Set{
		DailyXFast: SMA(closes, cfg.DailyXFast),
		DailyFast:  SMA(closes, cfg.DailyFast),
		DailyMid:   SMA(closes, cfg.DailyMid),
		DailySlow:  SMA(closes, cfg.DailySlow),
		ATH:        ExpandingMax(highs),
		VolumeAvg:  SMA(volumes, cfg.VolumeWin),
	}

	weekly := ResampleWeekly(series)
	if len(weekly) < cfg.WeeklyMid+2 {
		return nil, ErrInsufficientData
	}

	weeklyCloses := make([]float64, len(weekly))
	for i, b := range weekly {
		weeklyCloses[i] = b.Close
	}

	set.WeeklyClose = projectWeekly(series, weekly, weeklyCloses)
	set.WeeklyFast = projectWeekly(series, weekly, SMA(weeklyCloses, cfg.WeeklyFast))
	set.WeeklyMid = projectWeekly(series, weekly, SMA(weeklyCloses, cfg.WeeklyMid))

	return set, nil
}

// SMA computes the simple moving average over a trailing window, aligned to
// the input: positions before the window fills hold NaN.
func SMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// ExpandingMax computes the running maximum of the input.
func ExpandingMax(values []float64) []float64 {
	out := make([]float64, len(values))
	max := math.Inf(-1)
	for i, v := range values {
		if v > max {
			max = v
		}
		out[i] = max
	}
	return out
}

// ResampleWeekly aggregates daily bars into calendar weeks: first open,
// max high, min low, last close, summed volume. Each weekly bar is labeled
// with the Sunday that ends its week; weeks without trading days produce
// no bar.
func ResampleWeekly(series domain.Series) []domain.Bar {
	var weekly []domain.Bar
	for _, b := range series.Bars {
		label := weekEnd(b.Date)
		if len(weekly) == 0 || !weekly[len(weekly)-1].Date.Equal(label) {
			weekly = append(weekly, domain.Bar{
				Date: label, Open: b.Open, High: b.High,
				Low: b.Low, Close: b.Close, Volume: b.Volume,
			})
			continue
		}
		w := &weekly[len(weekly)-1]
		if b.High > w.High {
			w.High = b.High
		}
		if b.Low < w.Low {
			w.Low = b.Low
		}
		w.Close = b.Close
		w.Volume += b.Volume
	}
	return weekly
}

// projectWeekly forward-fills a weekly-indexed series onto the daily index:
// each daily date takes the value of the latest week whose end label is on
// or before that date, NaN when no week has completed yet.
func projectWeekly(series domain.Series, weekly []domain.Bar, values []float64) []float64 {
	out := make([]float64, series.Len())
	w := -1
	for i, b := range series.Bars {
		for w+1 < len(weekly) && !weekly[w+1].Date.After(b.Date) {
			w++
		}
		if w < 0 {
			out[i] = math.NaN()
		} else {
			out[i] = values[w]
		}
	}
	return out
}

// weekEnd returns the Sunday ending the week that contains date.
func weekEnd(date time.Time) time.Time {
	offset := (7 - int(date.Weekday())) % 7
	return date.AddDate(0, 0, offset)
}
