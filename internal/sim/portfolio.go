package sim

import (
	"log/slog"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/marketlens/internal/domain"
	"github.com/alejandrodnm/marketlens/internal/scanner"
)

// Portfolio runs a shared-capital simulation across many tickers. Each day
// it checks exits on open positions first, then fills free slots from the
// highest-scoring entry candidates.
type Portfolio struct {
	scanner        scanner.Scanner
	initialCapital float64
	maxPositions   int
	positionSize   float64 // fraction of initial capital per position
	workers        int
}

// NewPortfolio builds a portfolio engine. workers bounds the concurrent
// per-ticker precomputation; <= 0 means 2x the CPU count.
func NewPortfolio(s scanner.Scanner, initialCapital float64, maxPositions int, positionSize float64, workers int) *Portfolio {
	return &Portfolio{
		scanner:        s,
		initialCapital: initialCapital,
		maxPositions:   maxPositions,
		positionSize:   positionSize,
		workers:        workers,
	}
}

type openPosition struct {
	entry     domain.EntrySignal
	shares    float64
	costBasis float64
}

// Simulate runs the portfolio over [start, end]. Zero end defaults to the
// last date across all tickers, zero start to one year before end.
func (p *Portfolio) Simulate(tickers []string, data map[string]domain.Series, funds map[string]domain.Fundamentals, start, end time.Time) *domain.PortfolioResult {
	// Phase 1: clone and prepare one scanner per ticker, in parallel.
	// Cloning keeps precomputed state from bleeding across tickers.
	perTicker, validTickers := p.prepareScanners(tickers, data, funds)
	if len(validTickers) == 0 {
		return p.emptyResult(start, end)
	}

	// Phase 2: unified trading calendar across all valid tickers.
	allDates := unionDates(validTickers, data)
	if end.IsZero() {
		end = allDates[len(allDates)-1]
	}
	if start.IsZero() {
		start = end.AddDate(-1, 0, 0)
	}
	simDates := filterDates(allDates, start, end)
	if len(simDates) == 0 {
		return p.emptyResult(start, end)
	}

	// Phase 3: day-by-day loop over the shared calendar.
	cash := p.initialCapital
	positionDollarSize := p.initialCapital * p.positionSize
	open := make(map[string]openPosition)
	var trades []domain.Trade
	curve := make([]domain.EquityPoint, 0, len(simDates))

	for _, date := range simDates {

		// Exits first, so freed slots and cash are available for entries
		// on the same day. Sorted iteration keeps trade order stable.
		for _, ticker := range sortedKeys(open) {
			pos := open[ticker]
			series := data[ticker]
			if _, traded := series.IndexOf(date); !traded {
				continue
			}
			exit := perTicker[ticker].CheckExitSignal(ticker, series, pos.entry, date)
			if exit == nil {
				continue
			}
			cash += pos.shares * exit.Price
			trades = append(trades, domain.NewTrade(ticker, pos.entry, *exit))
			delete(open, ticker)
		}

		// Entries: rank every candidate by score and fill the free slots
		// while enough cash remains for a meaningful position.
		slots := p.maxPositions - len(open)
		if slots > 0 && cash >= positionDollarSize*0.5 {
			type candidate struct {
				ticker string
				entry  domain.EntrySignal
			}
			var candidates []candidate

			for _, ticker := range validTickers {
				if _, held := open[ticker]; held {
					continue
				}
				series := data[ticker]
				if _, traded := series.IndexOf(date); !traded {
					continue
				}
				entry := perTicker[ticker].CheckEntrySignal(ticker, series, funds[ticker], date)
				if entry != nil {
					candidates = append(candidates, candidate{ticker: ticker, entry: *entry})
				}
			}

			// Stable sort so equal scores keep ticker scan order.
			sort.SliceStable(candidates, func(i, j int) bool {
				return candidates[i].entry.Score > candidates[j].entry.Score
			})
			if len(candidates) > slots {
				candidates = candidates[:slots]
			}

			for _, c := range candidates {
				invest := math.Min(positionDollarSize, cash)
				if invest < positionDollarSize*0.5 {
					break
				}
				shares := invest / c.entry.Price
				cash -= shares * c.entry.Price
				open[c.ticker] = openPosition{
					entry:     c.entry,
					shares:    shares,
					costBasis: shares * c.entry.Price,
				}
				slog.Debug("portfolio entry", "ticker", c.ticker,
					"date", date.Format("2006-01-02"), "score", c.entry.Score)
			}
		}

		// Mark open positions to market; tickers without a bar today keep
		// their last known close.
		var positionsValue float64
		for ticker, pos := range open {
			price, ok := data[ticker].LastCloseBefore(date)
			if !ok {
				price = pos.entry.Price
			}
			positionsValue += pos.shares * price
		}

		curve = append(curve, domain.EquityPoint{
			Date:          date,
			Equity:        cash + positionsValue,
			Cash:          cash,
			PositionValue: positionsValue,
			NumPositions:  len(open),
		})
	}

	// Phase 4: force-close whatever is still open at the last close.
	lastDate := simDates[len(simDates)-1]
	for _, ticker := range sortedKeys(open) {
		pos := open[ticker]
		price, ok := data[ticker].LastCloseBefore(lastDate)
		if !ok {
			price = pos.entry.Price
		}
		cash += pos.shares * price
		trades = append(trades, domain.NewTrade(ticker, pos.entry, domain.ExitSignal{
			Date: lastDate, Price: price, Reason: domain.ExitEndOfData,
		}))
	}
	if len(open) > 0 && len(curve) > 0 {
		curve[len(curve)-1] = domain.EquityPoint{Date: lastDate, Equity: cash, Cash: cash}
	}

	return p.buildResult(trades, curve, simDates, start, end)
}

// prepareScanners clones the configured scanner per ticker and runs the
// precomputation phase in a bounded worker pool. Tickers whose
// preparation fails are dropped with a warning; input order is preserved.
func (p *Portfolio) prepareScanners(tickers []string, data map[string]domain.Series, funds map[string]domain.Fundamentals) (map[string]scanner.Scanner, []string) {
	workers := p.workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	type prepared struct {
		ticker  string
		scanner scanner.Scanner
		err     error
	}

	workCh := make(chan string, len(tickers))
	resultCh := make(chan prepared, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range workCh {
				clone := p.scanner.Clone()
				err := clone.PrepareSimulation(ticker, data[ticker], funds[ticker])
				resultCh <- prepared{ticker: ticker, scanner: clone, err: err}
			}
		}()
	}

	queued := 0
	for _, ticker := range tickers {
		series, ok := data[ticker]
		if !ok || series.Empty() {
			continue
		}
		workCh <- ticker
		queued++
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	perTicker := make(map[string]scanner.Scanner, queued)
	for res := range resultCh {
		if res.err != nil {
			slog.Warn("prepare failed, ticker excluded", "ticker", res.ticker, "err", res.err)
			continue
		}
		perTicker[res.ticker] = res.scanner
	}

	valid := make([]string, 0, len(perTicker))
	for _, ticker := range tickers {
		if _, ok := perTicker[ticker]; ok {
			valid = append(valid, ticker)
		}
	}
	return perTicker, valid
}

func (p *Portfolio) buildResult(trades []domain.Trade, curve []domain.EquityPoint, simDates []time.Time, start, end time.Time) *domain.PortfolioResult {
	initial := p.initialCapital
	final := p.initialCapital
	if len(curve) > 0 {
		initial = curve[0].Equity
		final = curve[len(curve)-1].Equity
	}

	var elapsed int
	if len(simDates) > 1 {
		elapsed = int(simDates[len(simDates)-1].Sub(simDates[0]).Hours() / 24)
	}
	years := float64(elapsed) / 365.25
	cagr := 0.0
	if years > 0 && final > 0 && initial > 0 {
		cagr = (math.Pow(final/initial, 1/years) - 1) * 100
	}

	res := &domain.PortfolioResult{
		Trades:          trades,
		EquityCurve:     curve,
		InitialCapital:  p.initialCapital,
		FinalEquity:     round2(final),
		TotalReturnPct:  round2((final - initial) / initial * 100),
		CAGRPct:         round2(cagr),
		MaxDrawdownPct:  round2(maxDrawdown(curve)),
		NumTrades:       len(trades),
		TotalDays:       len(simDates),
		ExitBreakdown:   exitBreakdown(trades),
		TickerBreakdown: tickerBreakdown(trades),
		MaxPositions:    p.maxPositions,
		PositionSizePct: p.positionSize,
		ScannerName:     p.scanner.Name(),
		StartDate:       start,
		EndDate:         end,
	}
	if len(trades) > 0 {
		res.WinRatePct = round1(winRate(trades))
		res.AvgReturnPerTradePct = round2(avgReturn(trades))
		res.AvgHoldDays = round1(avgHold(trades))
	}
	return res
}

func (p *Portfolio) emptyResult(start, end time.Time) *domain.PortfolioResult {
	return &domain.PortfolioResult{
		InitialCapital:  p.initialCapital,
		FinalEquity:     p.initialCapital,
		ExitBreakdown:   map[string]int{},
		TickerBreakdown: map[string]domain.TickerStats{},
		MaxPositions:    p.maxPositions,
		PositionSizePct: p.positionSize,
		ScannerName:     p.scanner.Name(),
		StartDate:       start,
		EndDate:         end,
	}
}

// unionDates merges the trading calendars of all tickers, sorted ascending.
func unionDates(tickers []string, data map[string]domain.Series) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, ticker := range tickers {
		for _, bar := range data[ticker].Bars {
			seen[bar.Date] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func filterDates(dates []time.Time, start, end time.Time) []time.Time {
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func sortedKeys(m map[string]openPosition) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
