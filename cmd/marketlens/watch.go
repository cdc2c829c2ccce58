package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/alejandrodnm/marketlens/internal/adapters/notify"
	"github.com/alejandrodnm/marketlens/internal/adapters/storage"
	"github.com/alejandrodnm/marketlens/internal/scheduler"
)

func runWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", "config/config.yaml", "path to config file")
	scannerName := fs.String("scanner", "", "scanner to run (default from config)")
	dataDir := fs.String("data", "", "OHLCV directory (overrides config)")
	cronSpec := fs.String("cron", "", "cron schedule (overrides config)")
	runOnStart := fs.Bool("now", false, "run one cycle immediately on start")
	verbose := fs.Bool("verbose", false, "set log level to debug")
	var params stringSlice
	fs.Var(&params, "param", "scanner param as key=value, repeatable")
	fs.Parse(args)

	a, err := buildApp(*configPath, *scannerName, *dataDir, params, *verbose)
	if err != nil {
		return err
	}

	spec := a.cfg.Watch.Cron
	if *cronSpec != "" {
		spec = *cronSpec
	}

	store, err := storage.NewSQLite(a.cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	console := notify.NewConsole(false, false)
	sched := scheduler.New(ctx, a.scanner, a.provider, console, store, a.cfg.Scan.Workers)
	if err := sched.Register(spec); err != nil {
		return err
	}

	slog.Info("watch mode", "scanner", a.scanner.Name(), "cron", spec)
	if *runOnStart || a.cfg.Watch.RunOnStart {
		sched.RunNow()
	}

	sched.Start()
	<-ctx.Done()
	sched.Stop()
	slog.Info("marketlens stopped cleanly")
	return nil
}
