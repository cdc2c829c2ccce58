package ports

import "github.com/alejandrodnm/marketlens/internal/domain"

// Notifier presents results to the user. The console implementation
// renders formatted tables.
type Notifier interface {
	// NotifyScan shows scan results sorted by score.
	NotifyScan(results []domain.ScanResult, scannerName string) error

	// NotifySimulation shows per-ticker simulation summaries plus an
	// aggregate over all trades.
	NotifySimulation(results []*domain.SimulationResult, scannerName string) error

	// NotifyPortfolio shows the portfolio summary and exit breakdown.
	NotifyPortfolio(result *domain.PortfolioResult) error
}
