package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/marketlens/internal/adapters/export"
	"github.com/alejandrodnm/marketlens/internal/adapters/notify"
	"github.com/alejandrodnm/marketlens/internal/adapters/storage"
	"github.com/alejandrodnm/marketlens/internal/domain"
	"github.com/alejandrodnm/marketlens/internal/scanner"
	"github.com/alejandrodnm/marketlens/internal/sim"
)

func runPortfolio(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("portfolio", flag.ExitOnError)
	configPath := fs.String("config", "config/config.yaml", "path to config file")
	scannerName := fs.String("scanner", "", "scanner for entry/exit signals (default from config)")
	dataDir := fs.String("data", "", "OHLCV directory (overrides config)")
	startStr := fs.String("start", "", "start date (YYYY-MM-DD)")
	endStr := fs.String("end", "", "end date (YYYY-MM-DD)")
	capital := fs.Float64("capital", 0, "initial capital (default from config)")
	maxPositions := fs.Int("max-positions", 0, "max concurrent positions (default from config)")
	positionSize := fs.Float64("position-size", 0, "fraction of initial capital per position (default from config)")
	top := fs.Int("top", 0, "limit universe to top N current scanner results")
	csvOut := fs.Bool("csv", false, "export trade log to CSV")
	equityCurve := fs.Bool("equity-curve", false, "export equity curve CSV")
	tickerBreakdown := fs.Bool("ticker-breakdown", false, "show per-ticker performance breakdown")
	save := fs.Bool("save", false, "persist the run summary to the results database")
	verbose := fs.Bool("verbose", false, "set log level to debug")
	var tickers, params stringSlice
	fs.Var(&tickers, "ticker", "specific ticker(s), repeatable; default full universe")
	fs.Var(&params, "param", "scanner param as key=value, repeatable")
	fs.Parse(args)

	a, err := buildApp(*configPath, *scannerName, *dataDir, params, *verbose)
	if err != nil {
		return err
	}
	if *capital <= 0 {
		*capital = a.cfg.Portfolio.InitialCapital
	}
	if *maxPositions <= 0 {
		*maxPositions = a.cfg.Portfolio.MaxPositions
	}
	if *positionSize <= 0 {
		*positionSize = a.cfg.Portfolio.PositionSize
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

	// -top without explicit tickers: scan first, keep the strongest
	// current signals as the simulation universe.
	if len(tickers) == 0 && *top > 0 {
		slog.Info("scanning for current signals", "scanner", a.scanner.Name(), "tickers", len(symbols))
		scanResults := scanner.ScanAll(ctx, a.scanner, a.provider, symbols, a.cfg.Scan.Workers)
		if len(scanResults) > *top {
			scanResults = scanResults[:*top]
		}
		symbols = symbols[:0]
		for _, r := range scanResults {
			symbols = append(symbols, r.Ticker)
		}
		slog.Info("universe selected", "count", len(symbols))
	}

	slog.Info("loading price data", "tickers", len(symbols))
	data := make(map[string]domain.Series, len(symbols))
	funds := make(map[string]domain.Fundamentals, len(symbols))
	loaded := make([]string, 0, len(symbols))
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
		data[sym] = series
		funds[sym] = fund
		loaded = append(loaded, sym)
	}

	slog.Info("running portfolio simulation",
		"scanner", a.scanner.Name(), "tickers", len(loaded),
		"capital", *capital, "max_positions", *maxPositions, "position_size", *positionSize)

	engine := sim.NewPortfolio(a.scanner, *capital, *maxPositions, *positionSize, a.cfg.Scan.Workers)
	result := engine.Simulate(loaded, data, funds, start, end)

	console := notify.NewConsole(len(tickers) > 0 || len(loaded) <= 5, *tickerBreakdown)
	if err := console.NotifyPortfolio(result); err != nil {
		return err
	}

	if *csvOut && result.NumTrades > 0 {
		path, err := export.Trades(result.Trades, "portfolio_"+a.scanner.Name(), a.cfg.Export.Dir)
		if err != nil {
			return err
		}
		fmt.Printf("Trade log CSV exported to %s\n", path)
	}

	if *equityCurve && len(result.EquityCurve) > 0 {
		path, err := export.EquityCurve(result.EquityCurve, "portfolio_"+a.scanner.Name(), a.cfg.Export.Dir)
		if err != nil {
			return err
		}
		fmt.Printf("Equity curve CSV exported to %s\n", path)
	}

	if *save && result.NumTrades > 0 {
		store, err := storage.NewSQLite(a.cfg.Storage.DSN)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.SavePortfolioRun(ctx, result)
		if err != nil {
			return err
		}
		slog.Info("portfolio run saved", "run_id", id)
	}
	return nil
}
