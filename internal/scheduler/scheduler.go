// Package scheduler runs recurring scan cycles on a cron schedule for
// watch mode.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/alejandrodnm/marketlens/internal/domain"
	"github.com/alejandrodnm/marketlens/internal/ports"
	"github.com/alejandrodnm/marketlens/internal/scanner"
)

// Scheduler wires a scanner, a data provider, a notifier and optional
// storage behind a cron trigger.
type Scheduler struct {
	cron     *cron.Cron
	scanner  scanner.Scanner
	provider ports.DataProvider
	notifier ports.Notifier
	storage  ports.Storage // nil disables persistence
	workers  int
	ctx      context.Context
}

// New builds a scheduler. storage may be nil.
func New(ctx context.Context, s scanner.Scanner, provider ports.DataProvider, notifier ports.Notifier, storage ports.Storage, workers int) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		scanner:  s,
		provider: provider,
		notifier: notifier,
		storage:  storage,
		workers:  workers,
		ctx:      ctx,
	}
}

// Register schedules the scan cycle with a standard 5-field cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runCycle); err != nil {
		return fmt.Errorf("scheduler.Register: %q: %w", spec, err)
	}
	return nil
}

// Start launches the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started")
}

// Stop halts the cron loop, waiting for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// RunNow executes one scan cycle immediately, for run-on-start mode.
func (s *Scheduler) RunNow() {
	s.runCycle()
}

func (s *Scheduler) runCycle() {
	tickers, err := s.provider.Tickers(s.ctx)
	if err != nil {
		slog.Error("scan cycle: list tickers", "err", err)
		return
	}

	results := scanner.ScanAll(s.ctx, s.scanner, s.provider, tickers, s.workers)
	slog.Info("scan cycle complete",
		"scanner", s.scanner.Name(),
		"tickers", len(tickers),
		"results", len(results),
		"strong_buy", countSignal(results, domain.SignalStrongBuy),
	)

	if err := s.notifier.NotifyScan(results, s.scanner.Name()); err != nil {
		slog.Error("scan cycle: notify", "err", err)
	}

	if s.storage != nil && len(results) > 0 {
		if _, err := s.storage.SaveScanCycle(s.ctx, s.scanner.Name(), results); err != nil {
			slog.Error("scan cycle: persist", "err", err)
		}
	}
}

func countSignal(results []domain.ScanResult, signal string) int {
	n := 0
	for _, r := range results {
		if r.Signal == signal {
			n++
		}
	}
	return n
}
