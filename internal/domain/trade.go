package domain

import (
	"math"
	"time"
)

// Trade is the immutable record of one completed round trip.
type Trade struct {
	Ticker      string
	EntryDate   time.Time
	EntryPrice  float64
	EntryReason string
	ExitDate    time.Time
	ExitPrice   float64
	ExitReason  string
	ReturnPct   float64
	HoldDays    int
}

// IsWin reports whether the trade closed with a positive return.
func (t Trade) IsWin() bool { return t.ReturnPct > 0 }

// NewTrade builds a Trade from an entry/exit pair, deriving return and
// hold duration. Return is rounded to 2 decimals; hold is calendar days.
func NewTrade(ticker string, entry EntrySignal, exit ExitSignal) Trade {
	returnPct := (exit.Price - entry.Price) / entry.Price * 100
	holdDays := int(exit.Date.Sub(entry.Date).Hours() / 24)
	return Trade{
		Ticker:      ticker,
		EntryDate:   entry.Date,
		EntryPrice:  entry.Price,
		EntryReason: entry.Reason,
		ExitDate:    exit.Date,
		ExitPrice:   exit.Price,
		ExitReason:  exit.Reason,
		ReturnPct:   round2(returnPct),
		HoldDays:    holdDays,
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
