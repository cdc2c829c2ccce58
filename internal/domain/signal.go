package domain

import "time"

// Signal categories produced by scanners, from strongest to weakest.
const (
	SignalStrongBuy = "STRONG_BUY"
	SignalBuy       = "BUY"
	SignalWatch     = "WATCH"
)

// Exit reason codes shared by the simulation engines.
const (
	ExitStopLoss        = "STOP_LOSS"
	ExitProfitTarget    = "PROFIT_TARGET"
	ExitMABreakdown     = "MA20_BREAKDOWN"
	ExitSharpDrop       = "SHARP_DROP"
	ExitVolumeBreakdown = "VOLUME_BREAKDOWN"
	ExitTime            = "TIME_EXIT"
	ExitEndOfData       = "END_OF_DATA"
)

// ScanResult is a point-in-time verdict on one ticker.
type ScanResult struct {
	Ticker  string
	Score   float64 // always within [0, 100]
	Signal  string  // STRONG_BUY | BUY | WATCH
	Details map[string]string
}

// NewScanResult builds a ScanResult, clamping score into [0, 100].
func NewScanResult(ticker string, score float64, signal string, details map[string]string) ScanResult {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return ScanResult{Ticker: ticker, Score: score, Signal: signal, Details: details}
}

// EntrySignal marks a candidate or realized position entry.
type EntrySignal struct {
	Date   time.Time
	Price  float64
	Reason string
	// Score ranks simultaneous candidates in the portfolio engine;
	// zero when the producing scanner does not score entries.
	Score float64
	// Label is a short human-readable tag, e.g. "HMR@M10(0d)".
	Label string
}

// ExitSignal marks a position close trigger.
type ExitSignal struct {
	Date   time.Time
	Price  float64
	Reason string
}
