package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/marketlens/internal/domain"
)

// ScanRecord is one persisted scan verdict within a cycle.
type ScanRecord struct {
	CycleID   string
	ScannedAt time.Time
	Result    domain.ScanResult
}

// Storage persists scan cycles and simulation runs.
type Storage interface {
	// SaveScanCycle persists one scan cycle and its results, returning
	// the cycle id.
	SaveScanCycle(ctx context.Context, scannerName string, results []domain.ScanResult) (string, error)

	// ScanHistory returns the scan records persisted in [from, to].
	ScanHistory(ctx context.Context, from, to time.Time) ([]ScanRecord, error)

	// SavePortfolioRun persists the summary of one portfolio simulation.
	SavePortfolioRun(ctx context.Context, result *domain.PortfolioResult) (string, error)

	// Close releases the underlying database.
	Close() error
}
