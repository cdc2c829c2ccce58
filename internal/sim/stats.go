package sim

import (
	"math"

	"github.com/alejandrodnm/marketlens/internal/domain"
)

func winRate(trades []domain.Trade) float64 {
	wins := 0
	for _, t := range trades {
		if t.IsWin() {
			wins++
		}
	}
	return float64(wins) / float64(len(trades)) * 100
}

func avgReturn(trades []domain.Trade) float64 {
	var sum float64
	for _, t := range trades {
		sum += t.ReturnPct
	}
	return sum / float64(len(trades))
}

func avgHold(trades []domain.Trade) float64 {
	var sum float64
	for _, t := range trades {
		sum += float64(t.HoldDays)
	}
	return sum / float64(len(trades))
}

// maxDrawdown returns the deepest peak-to-trough equity decline as a
// negative percentage, 0 when the curve never declines.
func maxDrawdown(curve []domain.EquityPoint) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (p.Equity - peak) / peak * 100
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func exitBreakdown(trades []domain.Trade) map[string]int {
	breakdown := make(map[string]int)
	for _, t := range trades {
		breakdown[t.ExitReason]++
	}
	return breakdown
}

func tickerBreakdown(trades []domain.Trade) map[string]domain.TickerStats {
	byTicker := make(map[string][]domain.Trade)
	for _, t := range trades {
		byTicker[t.Ticker] = append(byTicker[t.Ticker], t)
	}

	breakdown := make(map[string]domain.TickerStats, len(byTicker))
	for ticker, ts := range byTicker {
		wins := 0
		var sum float64
		for _, t := range ts {
			if t.IsWin() {
				wins++
			}
			sum += t.ReturnPct
		}
		breakdown[ticker] = domain.TickerStats{
			NumTrades:      len(ts),
			WinRatePct:     round1(float64(wins) / float64(len(ts)) * 100),
			AvgReturnPct:   round2(sum / float64(len(ts))),
			TotalReturnPct: round2(sum),
		}
	}
	return breakdown
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
