// Package storage persists scan cycles and portfolio runs in SQLite.
//
// Layout:
//   - `scan_cycles`: one row per scan invocation (scanner, counts, best score).
//   - `scan_results`: one row per ticker verdict, keyed to its cycle.
//   - `portfolio_runs`: one row per portfolio simulation summary.
//
// Old rows are pruned on startup so the database stays small on machines
// that scan daily for months.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/marketlens/internal/domain"
	"github.com/alejandrodnm/marketlens/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_cycles (
    id         TEXT PRIMARY KEY,
    scanner    TEXT     NOT NULL,
    scanned_at DATETIME NOT NULL,
    total      INTEGER  NOT NULL DEFAULT 0,
    strong_buy INTEGER  NOT NULL DEFAULT 0,
    buy        INTEGER  NOT NULL DEFAULT 0,
    best_score REAL     NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS scan_results (
    cycle_id   TEXT NOT NULL REFERENCES scan_cycles(id),
    ticker     TEXT NOT NULL,
    score      REAL NOT NULL,
    signal     TEXT NOT NULL,
    details    TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (cycle_id, ticker)
);

CREATE TABLE IF NOT EXISTS portfolio_runs (
    id              TEXT PRIMARY KEY,
    scanner         TEXT     NOT NULL,
    ran_at          DATETIME NOT NULL,
    start_date      DATETIME,
    end_date        DATETIME,
    initial_capital REAL NOT NULL,
    final_equity    REAL NOT NULL,
    total_return    REAL NOT NULL,
    cagr            REAL NOT NULL,
    max_drawdown    REAL NOT NULL,
    win_rate        REAL NOT NULL,
    num_trades      INTEGER NOT NULL,
    max_positions   INTEGER NOT NULL,
    position_size   REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cycles_at     ON scan_cycles(scanned_at DESC);
CREATE INDEX IF NOT EXISTS idx_results_score ON scan_results(score DESC);
CREATE INDEX IF NOT EXISTS idx_runs_at       ON portfolio_runs(ran_at DESC);
`

const retentionCycles = 90 * 24 * time.Hour

// SQLite implements ports.Storage without CGo.
type SQLite struct {
	db *sql.DB
}

var _ ports.Storage = (*SQLite)(nil)

// NewSQLite opens (or creates) the database at path, applies the schema
// and prunes expired cycles.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLite: open %q: %w", path, err)
	}
	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLite: apply schema: %w", err)
	}

	s := &SQLite{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveScanCycle stores the cycle summary plus one row per result.
func (s *SQLite) SaveScanCycle(ctx context.Context, scannerName string, results []domain.ScanResult) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	strongBuy, buy := 0, 0
	bestScore := 0.0
	for _, r := range results {
		switch r.Signal {
		case domain.SignalStrongBuy:
			strongBuy++
		case domain.SignalBuy:
			buy++
		}
		if r.Score > bestScore {
			bestScore = r.Score
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("storage.SaveScanCycle: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scan_cycles (id, scanner, scanned_at, total, strong_buy, buy, best_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, scannerName, now, len(results), strongBuy, buy, bestScore)
	if err != nil {
		return "", fmt.Errorf("storage.SaveScanCycle: insert cycle: %w", err)
	}

	for _, r := range results {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO scan_results (cycle_id, ticker, score, signal, details)
			 VALUES (?, ?, ?, ?, ?)`,
			id, r.Ticker, r.Score, r.Signal, encodeDetails(r.Details))
		if err != nil {
			return "", fmt.Errorf("storage.SaveScanCycle: insert result %s: %w", r.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("storage.SaveScanCycle: commit: %w", err)
	}
	return id, nil
}

// ScanHistory returns the persisted verdicts in [from, to], newest cycle
// first, highest score first within a cycle.
func (s *SQLite) ScanHistory(ctx context.Context, from, to time.Time) ([]ports.ScanRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.scanned_at, r.ticker, r.score, r.signal, r.details
		 FROM scan_results r JOIN scan_cycles c ON c.id = r.cycle_id
		 WHERE c.scanned_at BETWEEN ? AND ?
		 ORDER BY c.scanned_at DESC, r.score DESC`,
		from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.ScanHistory: query: %w", err)
	}
	defer rows.Close()

	var records []ports.ScanRecord
	for rows.Next() {
		var rec ports.ScanRecord
		var details string
		if err := rows.Scan(&rec.CycleID, &rec.ScannedAt,
			&rec.Result.Ticker, &rec.Result.Score, &rec.Result.Signal, &details); err != nil {
			return nil, fmt.Errorf("storage.ScanHistory: scan row: %w", err)
		}
		rec.Result.Details = decodeDetails(details)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SavePortfolioRun stores the summary of one portfolio simulation.
func (s *SQLite) SavePortfolioRun(ctx context.Context, result *domain.PortfolioResult) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO portfolio_runs
		 (id, scanner, ran_at, start_date, end_date, initial_capital, final_equity,
		  total_return, cagr, max_drawdown, win_rate, num_trades, max_positions, position_size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, result.ScannerName, time.Now().UTC(), result.StartDate, result.EndDate,
		result.InitialCapital, result.FinalEquity, result.TotalReturnPct, result.CAGRPct,
		result.MaxDrawdownPct, result.WinRatePct, result.NumTrades,
		result.MaxPositions, result.PositionSizePct)
	if err != nil {
		return "", fmt.Errorf("storage.SavePortfolioRun: %w", err)
	}
	return id, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionCycles)
	s.db.ExecContext(ctx,
		`DELETE FROM scan_results WHERE cycle_id IN
		 (SELECT id FROM scan_cycles WHERE scanned_at < ?)`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM scan_cycles WHERE scanned_at < ?`, cutoff)
}

// encodeDetails flattens the details map as "k=v;k=v" with sorted keys.
func encodeDetails(details map[string]string) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(details[k])
	}
	return sb.String()
}

func decodeDetails(encoded string) map[string]string {
	if encoded == "" {
		return nil
	}
	details := make(map[string]string)
	for _, pair := range strings.Split(encoded, ";") {
		if k, v, ok := strings.Cut(pair, "="); ok {
			details[k] = v
		}
	}
	return details
}
