package scanner

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/alejandrodnm/marketlens/internal/domain"
	"github.com/alejandrodnm/marketlens/internal/ports"
)

// ScanAll runs the scanner over every ticker in parallel using a worker
// pool and returns the positive verdicts sorted by score descending,
// ticker scan order breaking ties. A ticker whose data fails to load is
// logged and skipped; it never aborts the run.
//
// If workers <= 0 it uses runtime.NumCPU() x 2.
func ScanAll(ctx context.Context, s Scanner, provider ports.DataProvider, tickers []string, workers int) []domain.ScanResult {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	type work struct {
		idx    int
		ticker string
	}
	type scanned struct {
		idx    int
		result domain.ScanResult
	}

	workCh := make(chan work, len(tickers))
	resultCh := make(chan scanned, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				series, err := provider.LoadSeries(ctx, w.ticker)
				if err != nil {
					slog.Debug("load series failed", "ticker", w.ticker, "err", err)
					continue
				}
				fund, err := provider.LoadFundamentals(ctx, w.ticker)
				if err != nil {
					slog.Debug("load fundamentals failed", "ticker", w.ticker, "err", err)
					fund = domain.Fundamentals{}
				}
				if result := s.Scan(w.ticker, series, fund); result != nil {
					resultCh <- scanned{idx: w.idx, result: *result}
				}
			}
		}()
	}

	for i, ticker := range tickers {
		workCh <- work{idx: i, ticker: ticker}
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var collected []scanned
	for r := range resultCh {
		collected = append(collected, r)
	}

	// Workers return results in completion order; restore the input order
	// first so equal scores rank deterministically.
	sort.Slice(collected, func(i, j int) bool {
		if collected[i].result.Score != collected[j].result.Score {
			return collected[i].result.Score > collected[j].result.Score
		}
		return collected[i].idx < collected[j].idx
	})

	results := make([]domain.ScanResult, len(collected))
	for i, r := range collected {
		results[i] = r.result
	}
	return results
}
