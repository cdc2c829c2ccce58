package domain

import "time"

// EquityPoint is one row of an equity curve: the portfolio state at the end
// of a simulated trading day.
type EquityPoint struct {
	Date          time.Time
	Equity        float64 // cash + mark-to-market position value
	Cash          float64
	PositionValue float64
	NumPositions  int
}

// SimulationResult aggregates a single-ticker simulation.
type SimulationResult struct {
	Ticker      string
	Trades      []Trade
	EquityCurve []EquityPoint

	TotalReturnPct float64
	WinRatePct     float64
	AvgReturnPct   float64
	MaxDrawdownPct float64
	NumTrades      int
	AvgHoldDays    float64
	TotalDays      int
	ExitBreakdown  map[string]int
}

// TickerStats is the per-ticker slice of a portfolio result.
type TickerStats struct {
	NumTrades      int
	WinRatePct     float64
	AvgReturnPct   float64
	TotalReturnPct float64
}

// PortfolioResult aggregates a shared-capital multi-ticker simulation.
type PortfolioResult struct {
	Trades      []Trade
	EquityCurve []EquityPoint

	InitialCapital       float64
	FinalEquity          float64
	TotalReturnPct       float64
	CAGRPct              float64
	MaxDrawdownPct       float64
	WinRatePct           float64
	AvgReturnPerTradePct float64
	NumTrades            int
	AvgHoldDays          float64
	TotalDays            int

	ExitBreakdown   map[string]int
	TickerBreakdown map[string]TickerStats

	MaxPositions    int
	PositionSizePct float64
	ScannerName     string
	StartDate       time.Time
	EndDate         time.Time
}
