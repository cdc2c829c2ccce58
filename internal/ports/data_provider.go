package ports

import (
	"context"

	"github.com/alejandrodnm/marketlens/internal/domain"
)

// DataProvider loads the price history and fundamentals the scanners and
// engines consume.
type DataProvider interface {
	// Tickers lists every symbol the provider has data for.
	Tickers(ctx context.Context) ([]string, error)

	// LoadSeries returns the daily OHLCV history for one ticker, bars
	// sorted ascending with unique dates.
	LoadSeries(ctx context.Context, ticker string) (domain.Series, error)

	// LoadFundamentals returns the fundamentals record for one ticker.
	// A missing record is not an error; it returns an empty map.
	LoadFundamentals(ctx context.Context, ticker string) (domain.Fundamentals, error)
}
