// Package scanner defines the scanner contract and its concrete
// implementations. A Scanner evaluates one ticker at a time: point-in-time
// scoring for ranking, and entry/exit verdicts for the simulation engines.
package scanner

import (
	"time"

	"github.com/alejandrodnm/marketlens/internal/domain"
)

// minEntryBars is the minimum history required before the default entry
// check will produce a verdict.
const minEntryBars = 50

// Default exit policy for scanners that do not override CheckExitSignal.
const (
	defaultStopLossPct = 0.10
	defaultMaxHoldDays = 30
)

// Scanner is the capability set every detection strategy implements.
//
// Scan and CheckEntrySignal return nil when no signal fires or when there
// is not enough history for a verdict; neither case is an error.
type Scanner interface {
	// Name is the short identifier used by the CLI and result storage.
	Name() string

	// Description is a one-line summary for help output.
	Description() string

	// Configure applies typed parameter overrides. Unknown keys and
	// unparseable values are rejected with an error.
	Configure(params Params) error

	// Scan evaluates the ticker at the last date of the series.
	// Pure function of its inputs and the scanner's configuration.
	Scan(ticker string, series domain.Series, fund domain.Fundamentals) *domain.ScanResult

	// Clone returns an independent copy of the scanner carrying the same
	// configuration but none of the per-ticker simulation state. The
	// portfolio engine clones once per ticker so cached precomputation
	// never leaks across tickers.
	Clone() Scanner

	// PrepareSimulation is called once per ticker before a simulation
	// loop. Implementations may precompute indicators and entry
	// opportunities so per-day checks become O(1) lookups.
	PrepareSimulation(ticker string, series domain.Series, fund domain.Fundamentals) error

	// CheckEntrySignal answers whether an entry fires as of a historical
	// date, using only bars up to and including asOf.
	CheckEntrySignal(ticker string, series domain.Series, fund domain.Fundamentals, asOf time.Time) *domain.EntrySignal

	// CheckExitSignal answers whether an open position should close on
	// current, using only bars up to and including current.
	CheckExitSignal(ticker string, series domain.Series, entry domain.EntrySignal, current time.Time) *domain.ExitSignal
}

// DefaultEntrySignal is the fallback entry check: truncate the series to
// asOf, require minEntryBars of history, run the scanner's Scan and wrap a
// positive result. Scanners without precomputation delegate here.
func DefaultEntrySignal(s Scanner, ticker string, series domain.Series, fund domain.Fundamentals, asOf time.Time) *domain.EntrySignal {
	slice := series.TruncateTo(asOf)
	if slice.Len() < minEntryBars {
		return nil
	}

	result := s.Scan(ticker, slice, fund)
	if result == nil {
		return nil
	}

	return &domain.EntrySignal{
		Date:   asOf,
		Price:  slice.Last().Close,
		Reason: result.Signal,
		Score:  result.Score,
		Label:  result.Details["entry"],
	}
}

// DefaultExitSignal is the fallback exit policy: 10% stop-loss from the
// entry price, or a 30-calendar-day time exit.
func DefaultExitSignal(series domain.Series, entry domain.EntrySignal, current time.Time) *domain.ExitSignal {
	slice := series.TruncateTo(current)
	if slice.Empty() {
		return nil
	}

	price := slice.Last().Close
	if price < entry.Price*(1-defaultStopLossPct) {
		return &domain.ExitSignal{Date: current, Price: price, Reason: domain.ExitStopLoss}
	}

	if daysHeld(entry.Date, current) >= defaultMaxHoldDays {
		return &domain.ExitSignal{Date: current, Price: price, Reason: domain.ExitTime}
	}

	return nil
}

func daysHeld(entry, current time.Time) int {
	return int(current.Sub(entry).Hours() / 24)
}

// Registry keeps the available scanners indexed by name.
type Registry map[string]Scanner

// NewRegistry returns a registry with all built-in scanners registered.
func NewRegistry() Registry {
	r := make(Registry)
	r.Register(NewEntryPoint())
	return r
}

// Register adds a scanner to the registry.
func (r Registry) Register(s Scanner) {
	r[s.Name()] = s
}

// Get returns the scanner by name.
func (r Registry) Get(name string) (Scanner, bool) {
	s, ok := r[name]
	return s, ok
}
