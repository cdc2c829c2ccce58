// marketlens analyzes US stock price data for technical entry signals and
// backtests them with single-ticker and portfolio simulations.
//
// Usage:
//
//	marketlens <command> [flags]
//
// Commands:
//
//	analyze    scan the universe for current entry signals
//	simulate   day-by-day single-ticker backtest
//	portfolio  shared-capital multi-ticker backtest
//	watch      run scans on a cron schedule
//	history    show persisted scan cycles
//	list       list available scanners
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/alejandrodnm/marketlens/config"
	"github.com/alejandrodnm/marketlens/internal/adapters/csvdir"
	"github.com/alejandrodnm/marketlens/internal/scanner"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch cmd := os.Args[1]; cmd {
	case "analyze":
		err = runAnalyze(ctx, os.Args[2:])
	case "simulate":
		err = runSimulate(ctx, os.Args[2:])
	case "portfolio":
		err = runPortfolio(ctx, os.Args[2:])
	case "watch":
		err = runWatch(ctx, os.Args[2:])
	case "history":
		err = runHistory(ctx, os.Args[2:])
	case "list":
		runList()
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `marketlens - technical signal scanner and backtester

Commands:
  analyze    scan the universe for current entry signals
  simulate   day-by-day single-ticker backtest
  portfolio  shared-capital multi-ticker backtest
  watch      run scans on a cron schedule
  history    show persisted scan cycles
  list       list available scanners

Run 'marketlens <command> -h' for command flags.`)
}

func runList() {
	registry := scanner.NewRegistry()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s, _ := registry.Get(name)
		fmt.Printf("  %-20s %s\n", name, s.Description())
	}
}

// app bundles the pieces every command needs.
type app struct {
	cfg      *config.Config
	provider *csvdir.Provider
	scanner  scanner.Scanner
}

// buildApp loads config, sets up logging, opens the data directory and
// configures the requested scanner.
func buildApp(configPath, scannerName, dataDir string, params []string, verbose bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	setupLogger(cfg.Log)

	if dataDir != "" {
		cfg.Data.OHLCVDir = dataDir
	}
	if scannerName == "" {
		scannerName = cfg.Scan.Scanner
	}

	provider, err := csvdir.NewProvider(cfg.Data.OHLCVDir)
	if err != nil {
		return nil, err
	}

	registry := scanner.NewRegistry()
	s, ok := registry.Get(scannerName)
	if !ok {
		return nil, fmt.Errorf("unknown scanner %q, see 'marketlens list'", scannerName)
	}

	if len(params) > 0 {
		parsed, err := scanner.ParsePairs(params)
		if err != nil {
			return nil, err
		}
		if err := s.Configure(parsed); err != nil {
			return nil, err
		}
	}

	return &app{cfg: cfg, provider: provider, scanner: s}, nil
}

// resolveTickers returns the explicit list or the full data directory.
func (a *app) resolveTickers(ctx context.Context, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	return a.provider.Tickers(ctx)
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q, want YYYY-MM-DD", value)
	}
	return d, nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// stringSlice collects repeated flag values.
type stringSlice []string

func (s *stringSlice) String() string { return strings.Join(*s, ",") }

func (s *stringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}
