// Package sim contains the backtesting engines: a single-ticker day-by-day
// simulator and a shared-capital portfolio simulator that ranks competing
// entries across many tickers.
package sim

import (
	"log/slog"
	"time"

	"github.com/alejandrodnm/marketlens/internal/domain"
	"github.com/alejandrodnm/marketlens/internal/scanner"
)

// Engine runs a day-by-day simulation over a single ticker: at most one
// open position at a time, all-in sizing by default.
type Engine struct {
	scanner        scanner.Scanner
	initialCapital float64
	positionSize   float64 // fraction of cash deployed per entry
}

// NewEngine builds a single-ticker engine. positionSize 1.0 means all-in.
func NewEngine(s scanner.Scanner, initialCapital, positionSize float64) *Engine {
	return &Engine{scanner: s, initialCapital: initialCapital, positionSize: positionSize}
}

// SimulateTicker walks each trading day in [start, end], entering when the
// scanner fires and exiting when it says so. Zero start defaults to one
// year before end, but never earlier than bar 50 so the scanner has
// history to work with. Zero end defaults to the last bar.
func (e *Engine) SimulateTicker(ticker string, series domain.Series, fund domain.Fundamentals, start, end time.Time) (*domain.SimulationResult, error) {
	if series.Empty() {
		return buildSimResult(ticker, nil, nil, 0), nil
	}
	if end.IsZero() {
		end = series.LastDate()
	}
	if start.IsZero() {
		idx := series.SearchDate(end.AddDate(-1, 0, 0))
		if idx < 50 {
			idx = 50
		}
		if idx >= series.Len() {
			idx = series.Len() - 1
		}
		start = series.Bars[idx].Date
	}

	window := series.Slice(start, end)

	if err := e.scanner.PrepareSimulation(ticker, series, fund); err != nil {
		return nil, err
	}

	var (
		trades   []domain.Trade
		position *domain.EntrySignal
		shares   float64
		cash     = e.initialCapital
		curve    = make([]domain.EquityPoint, 0, window.Len())
	)

	for _, bar := range window.Bars {
		var positionValue float64

		if position == nil {
			if entry := e.scanner.CheckEntrySignal(ticker, series, fund, bar.Date); entry != nil {
				shares = (cash * e.positionSize) / entry.Price
				cash -= shares * entry.Price
				position = entry
				positionValue = shares * bar.Close
				slog.Debug("entry", "ticker", ticker, "date", bar.Date.Format("2006-01-02"),
					"price", entry.Price, "reason", entry.Reason)
			}
		} else {
			positionValue = shares * bar.Close

			if exit := e.scanner.CheckExitSignal(ticker, series, *position, bar.Date); exit != nil {
				cash += shares * exit.Price
				trades = append(trades, domain.NewTrade(ticker, *position, *exit))
				slog.Debug("exit", "ticker", ticker, "date", bar.Date.Format("2006-01-02"),
					"price", exit.Price, "reason", exit.Reason)
				position = nil
				shares = 0
				positionValue = 0
			}
		}

		curve = append(curve, domain.EquityPoint{
			Date:          bar.Date,
			Equity:        cash + positionValue,
			Cash:          cash,
			PositionValue: positionValue,
		})
	}

	// Force-close anything still open on the last simulated bar.
	if position != nil {
		last := window.Last()
		cash += shares * last.Close
		trades = append(trades, domain.NewTrade(ticker, *position, domain.ExitSignal{
			Date: last.Date, Price: last.Close, Reason: domain.ExitEndOfData,
		}))
		if len(curve) > 0 {
			curve[len(curve)-1] = domain.EquityPoint{
				Date: last.Date, Equity: cash, Cash: cash,
			}
		}
	}

	return buildSimResult(ticker, trades, curve, window.Len()), nil
}

func buildSimResult(ticker string, trades []domain.Trade, curve []domain.EquityPoint, totalDays int) *domain.SimulationResult {
	res := &domain.SimulationResult{
		Ticker:        ticker,
		Trades:        trades,
		EquityCurve:   curve,
		NumTrades:     len(trades),
		TotalDays:     totalDays,
		ExitBreakdown: exitBreakdown(trades),
	}
	if len(trades) == 0 {
		return res
	}

	res.WinRatePct = round1(winRate(trades))
	res.AvgReturnPct = round2(avgReturn(trades))
	res.AvgHoldDays = round1(avgHold(trades))
	res.MaxDrawdownPct = round2(maxDrawdown(curve))

	if len(curve) > 0 {
		initial := curve[0].Equity
		final := curve[len(curve)-1].Equity
		res.TotalReturnPct = round2((final - initial) / initial * 100)
	}
	return res
}
