package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/marketlens/config"
	"github.com/alejandrodnm/marketlens/internal/adapters/storage"
	"github.com/alejandrodnm/marketlens/internal/ports"
)

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", "config/config.yaml", "path to config file")
	days := fs.Int("days", 7, "show cycles from the last N days")
	verbose := fs.Bool("verbose", false, "set log level to debug")
	var tickers stringSlice
	fs.Var(&tickers, "ticker", "filter to specific ticker(s), repeatable")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	setupLogger(cfg.Log)

	store, err := storage.NewSQLite(cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	to := time.Now().UTC()
	records, err := store.ScanHistory(ctx, to.AddDate(0, 0, -*days), to)
	if err != nil {
		return err
	}

	if len(tickers) > 0 {
		keep := make(map[string]bool, len(tickers))
		for _, t := range tickers {
			keep[t] = true
		}
		filtered := records[:0]
		for _, r := range records {
			if keep[r.Result.Ticker] {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	printHistory(os.Stdout, records)
	return nil
}

// printHistory renders persisted verdicts newest cycle first, printing the
// scan timestamp only on the first row of each cycle.
func printHistory(w io.Writer, records []ports.ScanRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No scan history in the selected window.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("Scanned At", "Ticker", "Score", "Signal", "Entry")

	lastCycle := ""
	for _, r := range records {
		scannedAt := ""
		if r.CycleID != lastCycle {
			scannedAt = r.ScannedAt.Format("2006-01-02 15:04")
			lastCycle = r.CycleID
		}
		table.Append(scannedAt, r.Result.Ticker,
			fmt.Sprintf("%.1f", r.Result.Score), r.Result.Signal, r.Result.Details["entry"])
	}
	table.Render()

	fmt.Fprintf(w, "\n%d verdicts.\n", len(records))
}
