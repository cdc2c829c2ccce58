package scanner

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alejandrodnm/marketlens/internal/domain"
	"github.com/alejandrodnm/marketlens/internal/indicator"
)

// EntryPoint detects actionable entry points on stocks in a confirmed
// uptrend: price approaching or touching the daily fast/mid MA with signs
// of holding support, either a candle near the MA or a hammer (dragonfly
// doji) whose wick tested it and got rejected.
//
// Trend gate (must pass): daily xfast MA > fast MA > mid MA, and weekly
// close above the weekly mid MA. A hammer at the MA is the strongest
// signal. Price slightly below the fast MA is allowed since that IS the
// entry zone; the mid MA is a hard floor for the close.
type EntryPoint struct {
	// Daily MA windows.
	dXFast int
	dFast  int
	dMid   int
	dSlow  int
	// Weekly MA windows.
	wFast int
	wMid  int
	// Detection thresholds.
	approachPct float64 // close within X% of the MA counts as approaching
	touchPct    float64 // low within X% of the MA counts as a touch
	lookback    int     // candles scanned for signals
	// Hammer detection.
	wickBodyRatio float64 // lower wick must be >= N x body size
	upperWickMax  float64 // upper wick < this fraction of total range

	// Per-ticker simulation state, populated by PrepareSimulation.
	simTicker  string
	simReady   bool
	simInd     *indicator.Set
	simEntries map[time.Time]domain.EntrySignal
}

// NewEntryPoint returns an EntryPoint scanner with default thresholds.
func NewEntryPoint() *EntryPoint {
	return &EntryPoint{
		dXFast:        5,
		dFast:         10,
		dMid:          20,
		dSlow:         50,
		wFast:         10,
		wMid:          20,
		approachPct:   3.0,
		touchPct:      0.5,
		lookback:      3,
		wickBodyRatio: 2.0,
		upperWickMax:  0.3,
	}
}

func (s *EntryPoint) Name() string { return "entry_point" }

func (s *EntryPoint) Description() string {
	return "Trend entry: approaching/touching fast/mid MA or hammer at MA"
}

// Configure applies typed overrides; unknown keys are rejected.
func (s *EntryPoint) Configure(params Params) error {
	b := NewBinder(params)
	b.Int("d_xfast", &s.dXFast)
	b.Int("d_fast", &s.dFast)
	b.Int("d_mid", &s.dMid)
	b.Int("d_slow", &s.dSlow)
	b.Int("w_fast", &s.wFast)
	b.Int("w_mid", &s.wMid)
	b.Int("lookback", &s.lookback)
	b.Float("approach_pct", &s.approachPct)
	b.Float("touch_pct", &s.touchPct)
	b.Float("wick_body_ratio", &s.wickBodyRatio)
	b.Float("upper_wick_max", &s.upperWickMax)
	if err := b.Finish(); err != nil {
		return fmt.Errorf("scanner %s: %w", s.Name(), err)
	}
	return nil
}

// Clone returns a copy with the same thresholds and no simulation state.
func (s *EntryPoint) Clone() Scanner {
	clone := *s
	clone.simTicker = ""
	clone.simReady = false
	clone.simInd = nil
	clone.simEntries = nil
	return &clone
}

// minIndex is the first bar index with enough history for a verdict:
// the slow MA window plus the resample warm-up buffer.
func (s *EntryPoint) minIndex() int { return s.dSlow + 20 }

func (s *EntryPoint) indicatorConfig() indicator.Config {
	return indicator.Config{
		DailyXFast: s.dXFast,
		DailyFast:  s.dFast,
		DailyMid:   s.dMid,
		DailySlow:  s.dSlow,
		WeeklyFast: s.wFast,
		WeeklyMid:  s.wMid,
		VolumeWin:  20,
	}
}

// entryEval is the raw outcome of evaluating one bar index.
type entryEval struct {
	score           float64 // rounded, clamped to 100
	signal          string  // STRONG_BUY | BUY | WATCH
	label           string  // e.g. "HMR@M10(0d)"
	closeDistPct    float64
	lowDistPct      float64
	candleAgo       int
	pctFromATH      float64
	weeklyFullAlign bool
}

// Scan evaluates the ticker at the last bar of the series.
func (s *EntryPoint) Scan(ticker string, series domain.Series, fund domain.Fundamentals) *domain.ScanResult {
	ind, err := indicator.Compute(series, s.indicatorConfig())
	if err != nil {
		return nil
	}

	ev := s.checkEntryAt(series.Len()-1, series, ind)
	if ev == nil {
		return nil
	}

	weekly := ""
	if ev.weeklyFullAlign {
		weekly = "Y"
	}
	result := domain.NewScanResult(ticker, ev.score, ev.signal, map[string]string{
		"entry": ev.label,
		"dist%": fmt.Sprintf("%.1f", ev.closeDistPct),
		"ath%":  fmt.Sprintf("%.1f", ev.pctFromATH),
		"wk":    weekly,
		"cap$B": fmt.Sprintf("%.0f", fund.Get("marketCap")/1e9),
	})
	return &result
}

// checkEntryAt evaluates the entry conditions at one bar index using
// precomputed indicators. Returns nil when any gate fails.
func (s *EntryPoint) checkEntryAt(idx int, series domain.Series, ind *indicator.Set) *entryEval {
	if idx < s.minIndex() {
		return nil
	}

	bar := series.Bars[idx]
	c := bar.Close

	// Weekly gate: close above the weekly mid MA. NaN comparisons are
	// false, so an undefined indicator fails the gate closed.
	wLast := ind.WeeklyClose[idx]
	wFast := ind.WeeklyFast[idx]
	wMid := ind.WeeklyMid[idx]
	if !indicator.Defined(wMid) || !(wLast > wMid) {
		return nil
	}
	weeklyFullAlign := wLast > wFast && wFast > wMid

	// Daily gate: fanned-out MA ordering with the close above the mid MA.
	mxf := ind.DailyXFast[idx]
	mf := ind.DailyFast[idx]
	mm := ind.DailyMid[idx]
	ms := ind.DailySlow[idx]
	if !indicator.Defined(mxf) || !(mxf > mf && mf > mm) {
		return nil
	}
	if c < mm {
		return nil
	}
	slowAligned := mm > ms

	// Signal search over the lookback window: best-scoring classification
	// across all bar × MA combinations wins. A zero score never registers,
	// so a candle whose recency weight decayed to nothing cannot ride the
	// context bonuses into a verdict.
	best := entryEval{}

	start := idx - s.lookback + 1
	if start < s.minIndex() {
		start = s.minIndex()
	}
	fastLabel := fmt.Sprintf("MA%d", s.dFast)
	midLabel := fmt.Sprintf("MA%d", s.dMid)

	for j := start; j <= idx; j++ {
		ago := idx - j
		recency := math.Max(0, 1.0-float64(ago)*0.3)
		bj := series.Bars[j]

		for _, cand := range []struct {
			ma    float64
			label string
		}{
			{ind.DailyFast[j], fastLabel},
			{ind.DailyMid[j], midLabel},
		} {
			closeDist := (bj.Close - cand.ma) / cand.ma * 100
			lowDist := (bj.Low - cand.ma) / cand.ma * 100

			// The mid MA is a hard floor: a close below it never
			// counts as holding support.
			if cand.label == midLabel && bj.Close < cand.ma {
				continue
			}

			isHammer := s.detectHammer(bj.Open, bj.High, bj.Low, bj.Close)
			lowNearMA := math.Abs(lowDist) <= s.touchPct || lowDist <= 0

			record := func(signal string, score float64) {
				if score <= best.score {
					return
				}
				best = entryEval{
					score:        score,
					signal:       signal,
					closeDistPct: closeDist,
					lowDistPct:   math.Abs(lowDist),
					candleAgo:    ago,
					label:        cand.label,
				}
			}

			if isHammer && lowNearMA {
				proximity := math.Max(0, 1-math.Abs(lowDist)/math.Max(s.touchPct, 0.01)) * 20
				record("HAMMER", (40+proximity)*recency)
				continue
			}

			if lowNearMA {
				proximity := math.Max(0, 1-math.Abs(lowDist)/math.Max(s.touchPct, 0.01)) * 15
				record("TOUCH", (25+proximity)*recency)
				continue
			}

			if math.Abs(closeDist) <= s.approachPct {
				proximity := math.Max(0, 1-math.Abs(closeDist)/s.approachPct) * 15
				record("APPROACHING", (10+proximity)*recency)
			}
		}
	}

	if best.signal == "" {
		return nil
	}
	score := best.score
	classification := best.signal
	maLabel := best.label

	// Proximity-to-all-time-high bonus, three tiers.
	ath := ind.ATH[idx]
	pctFromATH := (ath - c) / ath * 100
	switch {
	case pctFromATH <= 3:
		score += 20
	case pctFromATH <= 5:
		score += 15
	case pctFromATH <= 10:
		score += 8
	}

	// Small bonus when the high of the last ~20 bars sits at the ATH.
	recentStart := idx - 20
	if recentStart < 0 {
		recentStart = 0
	}
	recentHigh := math.Inf(-1)
	for j := recentStart; j <= idx; j++ {
		if series.Bars[j].High > recentHigh {
			recentHigh = series.Bars[j].High
		}
	}
	if (ath-recentHigh)/ath*100 <= 2 {
		score += 5
	}

	// Alignment and spread bonuses.
	if slowAligned {
		score += 15
	}
	dSpread := (mxf - mm) / mm * 100
	score += math.Min(15, dSpread*3)
	if indicator.Defined(wFast) {
		wSpread := (wFast - wMid) / wMid * 100
		if weeklyFullAlign {
			score += math.Min(15, wSpread*2+5)
		} else {
			score += math.Min(5, math.Max(0, wSpread))
		}
	}
	if c > bar.Open {
		score += 5
	}

	score = math.Min(100, score)
	signal := domain.SignalWatch
	switch {
	case score >= 65:
		signal = domain.SignalStrongBuy
	case score >= 40:
		signal = domain.SignalBuy
	}

	short := map[string]string{"HAMMER": "HMR", "TOUCH": "TCH", "APPROACHING": "APR"}[classification]
	label := fmt.Sprintf("%s@%s(%dd)",
		short, strings.Replace(maLabel, "MA", "M", 1), best.candleAgo)

	return &entryEval{
		score:           math.Round(score*10) / 10,
		signal:          signal,
		label:           label,
		closeDistPct:    best.closeDistPct,
		lowDistPct:      best.lowDistPct,
		candleAgo:       best.candleAgo,
		pctFromATH:      pctFromATH,
		weeklyFullAlign: weeklyFullAlign,
	}
}

// detectHammer classifies a hammer / dragonfly doji (reversed T) candle:
// small body near the top of the range with a long lower wick.
func (s *EntryPoint) detectHammer(open, high, low, close float64) bool {
	totalRange := high - low
	if totalRange <= 0 {
		return false
	}

	body := math.Abs(close - open)
	bodyTop := math.Max(close, open)
	bodyBottom := math.Min(close, open)
	lowerWick := bodyBottom - low
	upperWick := high - bodyTop

	if body < totalRange*0.05 {
		return lowerWick > totalRange*0.6 && upperWick < totalRange*s.upperWickMax
	}

	return lowerWick >= body*s.wickBodyRatio && upperWick < totalRange*s.upperWickMax
}

// PrepareSimulation precomputes the indicator set and every historical
// entry opportunity keyed by date, so per-day queries during a simulation
// are map lookups instead of full rescans.
func (s *EntryPoint) PrepareSimulation(ticker string, series domain.Series, fund domain.Fundamentals) error {
	s.simTicker = ticker
	s.simReady = true
	s.simInd = nil
	s.simEntries = make(map[time.Time]domain.EntrySignal)

	ind, err := indicator.Compute(series, s.indicatorConfig())
	if err != nil {
		// Not enough history: every entry query will answer "no signal".
		return nil
	}
	s.simInd = ind

	for i := s.minIndex(); i < series.Len(); i++ {
		ev := s.checkEntryAt(i, series, ind)
		if ev == nil {
			continue
		}
		bar := series.Bars[i]
		s.simEntries[bar.Date] = domain.EntrySignal{
			Date:   bar.Date,
			Price:  bar.Close,
			Reason: ev.signal,
			Score:  ev.score,
			Label:  ev.label,
		}
	}
	return nil
}

// CheckEntrySignal answers from the precomputed table when prepared for
// this ticker, otherwise falls back to the truncate-and-rescan default.
func (s *EntryPoint) CheckEntrySignal(ticker string, series domain.Series, fund domain.Fundamentals, asOf time.Time) *domain.EntrySignal {
	if s.simReady && s.simTicker == ticker {
		if entry, ok := s.simEntries[asOf]; ok {
			return &entry
		}
		return nil
	}
	return DefaultEntrySignal(s, ticker, series, fund, asOf)
}

// CheckExitSignal evaluates the exit rules in fixed priority order:
//  1. stop-loss 10% below entry
//  2. profit target 15% above entry
//  3. three consecutive closes below the mid MA
//  4. close more than 5% below the mid MA
//  5. close below the mid MA on 2x the 20-day average volume
//  6. time exit after 30 calendar days
func (s *EntryPoint) CheckExitSignal(ticker string, series domain.Series, entry domain.EntrySignal, current time.Time) *domain.ExitSignal {
	slice := series.TruncateTo(current)
	if slice.Len() < s.dMid+5 {
		return nil
	}

	close := slice.Last().Close
	exit := func(reason string) *domain.ExitSignal {
		return &domain.ExitSignal{Date: current, Price: close, Reason: reason}
	}

	useCache := s.simInd != nil && s.simTicker == ticker
	var idx int
	var midMA float64
	var midSeries []float64

	if useCache {
		i, ok := series.IndexOf(current)
		if !ok {
			return nil
		}
		idx = i
		midMA = s.simInd.DailyMid[idx]
		if !indicator.Defined(midMA) {
			return nil
		}
	} else {
		closes := make([]float64, slice.Len())
		for i, b := range slice.Bars {
			closes[i] = b.Close
		}
		midSeries = indicator.SMA(closes, s.dMid)
		midMA = midSeries[len(midSeries)-1]
	}

	// 1. Stop-loss.
	if close < entry.Price*0.90 {
		return exit(domain.ExitStopLoss)
	}

	// 2. Profit target.
	if close > entry.Price*1.15 {
		return exit(domain.ExitProfitTarget)
	}

	// 3. Mid-MA breakdown: three consecutive closes below.
	if brokeDown := s.midMABreakdown(slice, idx, midSeries, useCache); brokeDown {
		return exit(domain.ExitMABreakdown)
	}

	// 4. Sharp drop: more than 5% below the mid MA.
	if midMA > 0 {
		distPct := (close - midMA) / midMA * 100
		if distPct < -5.0 {
			return exit(domain.ExitSharpDrop)
		}
	}

	// 5. Volume breakdown: close below the mid MA on heavy volume.
	if close < midMA {
		var avgVol, curVol float64
		if useCache {
			avgVol = s.simInd.VolumeAvg[idx]
			curVol = series.Bars[idx].Volume
		} else {
			n := slice.Len()
			if n >= 20 {
				for _, b := range slice.Bars[n-20:] {
					avgVol += b.Volume
				}
				avgVol /= 20
			}
			curVol = slice.Last().Volume
		}
		if avgVol > 0 && curVol > avgVol*2 {
			return exit(domain.ExitVolumeBreakdown)
		}
	}

	// 6. Time exit.
	if daysHeld(entry.Date, current) >= 30 {
		return exit(domain.ExitTime)
	}

	return nil
}

// midMABreakdown reports three consecutive closes below the mid MA ending
// at the current bar.
func (s *EntryPoint) midMABreakdown(slice domain.Series, idx int, midSeries []float64, useCache bool) bool {
	n := slice.Len()
	if n < 3 {
		return false
	}

	if useCache {
		if idx < 2 {
			return false
		}
		for k := 0; k < 3; k++ {
			ma := s.simInd.DailyMid[idx-k]
			if !indicator.Defined(ma) || slice.Bars[n-1-k].Close >= ma {
				return false
			}
		}
		return true
	}

	for k := 0; k < 3; k++ {
		ma := midSeries[n-1-k]
		if !indicator.Defined(ma) || slice.Bars[n-1-k].Close >= ma {
			return false
		}
	}
	return true
}
