package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/marketlens/internal/domain"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_SaveScanCycleRoundTrip(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	results := []domain.ScanResult{
		{Ticker: "AAPL", Score: 82.5, Signal: domain.SignalStrongBuy,
			Details: map[string]string{"entry": "HMR@M10(0d)", "wk": "Y"}},
		{Ticker: "MSFT", Score: 55.0, Signal: domain.SignalBuy},
	}

	id, err := s.SaveScanCycle(ctx, "entry_point", results)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	records, err := s.ScanHistory(ctx,
		time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Highest score first within the cycle.
	assert.Equal(t, "AAPL", records[0].Result.Ticker)
	assert.Equal(t, 82.5, records[0].Result.Score)
	assert.Equal(t, domain.SignalStrongBuy, records[0].Result.Signal)
	assert.Equal(t, "HMR@M10(0d)", records[0].Result.Details["entry"])
	assert.Equal(t, "Y", records[0].Result.Details["wk"])
	assert.Equal(t, id, records[0].CycleID)

	assert.Equal(t, "MSFT", records[1].Result.Ticker)
	assert.Nil(t, records[1].Result.Details)
}

func TestSQLite_ScanHistoryRangeFilter(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	_, err := s.SaveScanCycle(ctx, "entry_point", []domain.ScanResult{
		{Ticker: "AAPL", Score: 50, Signal: domain.SignalBuy},
	})
	require.NoError(t, err)

	records, err := s.ScanHistory(ctx,
		time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLite_SavePortfolioRun(t *testing.T) {
	s := openTestDB(t)

	result := &domain.PortfolioResult{
		ScannerName:     "entry_point",
		InitialCapital:  100_000,
		FinalEquity:     112_345.67,
		TotalReturnPct:  12.35,
		CAGRPct:         12.35,
		MaxDrawdownPct:  -8.2,
		WinRatePct:      58.3,
		NumTrades:       24,
		MaxPositions:    10,
		PositionSizePct: 0.10,
		StartDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}

	id, err := s.SavePortfolioRun(context.Background(), result)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	var count int
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(*) FROM portfolio_runs WHERE id = ?`, id).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDetailsEncoding(t *testing.T) {
	details := map[string]string{"wk": "Y", "entry": "TCH@M20(1d)"}
	assert.Equal(t, "entry=TCH@M20(1d);wk=Y", encodeDetails(details))
	assert.Equal(t, details, decodeDetails(encodeDetails(details)))
	assert.Equal(t, "", encodeDetails(nil))
	assert.Nil(t, decodeDetails(""))
}
