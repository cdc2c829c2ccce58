package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/marketlens/internal/adapters/export"
	"github.com/alejandrodnm/marketlens/internal/adapters/notify"
	"github.com/alejandrodnm/marketlens/internal/adapters/storage"
	"github.com/alejandrodnm/marketlens/internal/scanner"
)

func runAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "config/config.yaml", "path to config file")
	scannerName := fs.String("scanner", "", "scanner to run (default from config)")
	dataDir := fs.String("data", "", "OHLCV directory (overrides config)")
	top := fs.Int("top", 0, "show only top N results")
	csvOut := fs.Bool("csv", false, "export results to CSV")
	save := fs.Bool("save", false, "persist the scan cycle to the results database")
	verbose := fs.Bool("verbose", false, "set log level to debug")
	var tickers, params stringSlice
	fs.Var(&tickers, "ticker", "scan specific ticker(s), repeatable")
	fs.Var(&params, "param", "scanner param as key=value, repeatable")
	fs.Parse(args)

	a, err := buildApp(*configPath, *scannerName, *dataDir, params, *verbose)
	if err != nil {
		return err
	}

	symbols, err := a.resolveTickers(ctx, tickers)
	if err != nil {
		return err
	}

	slog.Info("scanning", "scanner", a.scanner.Name(), "tickers", len(symbols))
	results := scanner.ScanAll(ctx, a.scanner, a.provider, symbols, a.cfg.Scan.Workers)
	if *top > 0 && len(results) > *top {
		results = results[:*top]
	}

	console := notify.NewConsole(false, false)
	if err := console.NotifyScan(results, a.scanner.Name()); err != nil {
		return err
	}

	if *csvOut && len(results) > 0 {
		path, err := export.ScanResults(results, a.scanner.Name(), a.cfg.Export.Dir)
		if err != nil {
			return err
		}
		fmt.Printf("CSV exported to %s\n", path)
	}

	if *save && len(results) > 0 {
		store, err := storage.NewSQLite(a.cfg.Storage.DSN)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.SaveScanCycle(ctx, a.scanner.Name(), results)
		if err != nil {
			return err
		}
		slog.Info("scan cycle saved", "cycle_id", id, "results", len(results))
	}
	return nil
}
