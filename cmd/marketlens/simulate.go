package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"sort"

	"github.com/alejandrodnm/marketlens/internal/adapters/export"
	"github.com/alejandrodnm/marketlens/internal/adapters/notify"
	"github.com/alejandrodnm/marketlens/internal/domain"
	"github.com/alejandrodnm/marketlens/internal/scanner"
	"github.com/alejandrodnm/marketlens/internal/sim"
)

func runSimulate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	configPath := fs.String("config", "config/config.yaml", "path to config file")
	scannerName := fs.String("scanner", "", "scanner to simulate (default from config)")
	dataDir := fs.String("data", "", "OHLCV directory (overrides config)")
	startStr := fs.String("start", "", "start date (YYYY-MM-DD)")
	endStr := fs.String("end", "", "end date (YYYY-MM-DD)")
	capital := fs.Float64("capital", 100_000, "initial capital")
	positionSize := fs.Float64("position-size", 1.0, "fraction of capital per trade (0-1)")
	top := fs.Int("top", 0, "show only top N results by return")
	csvOut := fs.Bool("csv", false, "export trade log to CSV")
	equityCurve := fs.Bool("equity-curve", false, "export equity curve CSV per ticker")
	verbose := fs.Bool("verbose", false, "set log level to debug")
	var tickers, params stringSlice
	fs.Var(&tickers, "ticker", "ticker(s) to simulate, repeatable")
	fs.Var(&params, "param", "scanner param as key=value, repeatable")
	fs.Parse(args)

	a, err := buildApp(*configPath, *scannerName, *dataDir, params, *verbose)
	if err != nil {
		return err
	}

	start, err := parseDate(*startStr)
	if err != nil {
		return err
	}
	end, err := parseDate(*endStr)
	if err != nil {
		return err
	}

	symbols, err := a.resolveTickers(ctx, tickers)
	if err != nil {
		return err
	}

	// Without explicit tickers, scan first and simulate only symbols
	// signaling now.
	if len(tickers) == 0 {
		slog.Info("scanning for current signals", "scanner", a.scanner.Name(), "tickers", len(symbols))
		scanResults := scanner.ScanAll(ctx, a.scanner, a.provider, symbols, a.cfg.Scan.Workers)
		symbols = symbols[:0]
		for _, r := range scanResults {
			symbols = append(symbols, r.Ticker)
		}
		slog.Info("simulating current signals", "count", len(symbols))
	}

	var results []*domain.SimulationResult
	for _, sym := range symbols {
		series, err := a.provider.LoadSeries(ctx, sym)
		if err != nil {
			slog.Warn("load series failed", "ticker", sym, "err", err)
			continue
		}
		fund, err := a.provider.LoadFundamentals(ctx, sym)
		if err != nil {
			fund = domain.Fundamentals{}
		}

		// Fresh clone per ticker so cached state never crosses symbols.
		engine := sim.NewEngine(a.scanner.Clone(), *capital, *positionSize)
		res, err := engine.SimulateTicker(sym, series, fund, start, end)
		if err != nil {
			slog.Warn("simulation failed", "ticker", sym, "err", err)
			continue
		}
		if res.NumTrades > 0 {
			results = append(results, res)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalReturnPct > results[j].TotalReturnPct
	})
	if *top > 0 && len(results) > *top {
		results = results[:*top]
	}

	console := notify.NewConsole(len(tickers) > 0, false)
	if err := console.NotifySimulation(results, a.scanner.Name()); err != nil {
		return err
	}

	if *csvOut && len(results) > 0 {
		var trades []domain.Trade
		for _, r := range results {
			trades = append(trades, r.Trades...)
		}
		path, err := export.Trades(trades, "sim_"+a.scanner.Name(), a.cfg.Export.Dir)
		if err != nil {
			return err
		}
		fmt.Printf("Trade log CSV exported to %s\n", path)
	}

	if *equityCurve {
		for _, r := range results {
			name := fmt.Sprintf("sim_%s_%s", a.scanner.Name(), r.Ticker)
			if _, err := export.EquityCurve(r.EquityCurve, name, a.cfg.Export.Dir); err != nil {
				return err
			}
		}
		fmt.Printf("Equity curves exported to %s\n", a.cfg.Export.Dir)
	}
	return nil
}
