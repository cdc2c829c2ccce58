// Package export writes results as timestamped CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/alejandrodnm/marketlens/internal/domain"
)

const timestampLayout = "20060102_150405"

// ScanResults writes one row per scan verdict and returns the file path.
func ScanResults(results []domain.ScanResult, scannerName, dir string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("scan_%s_%s.csv",
		scannerName, time.Now().Format(timestampLayout)))

	rows := [][]string{{"ticker", "score", "signal", "details"}}
	for _, r := range results {
		rows = append(rows, []string{
			r.Ticker,
			fmt.Sprintf("%.1f", r.Score),
			r.Signal,
			flattenDetails(r.Details),
		})
	}
	return path, writeCSV(path, rows)
}

// Trades writes the combined trade log of one or more results.
func Trades(trades []domain.Trade, name, dir string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv",
		name, time.Now().Format(timestampLayout)))

	rows := [][]string{{
		"ticker", "entry_date", "entry_price", "entry_reason",
		"exit_date", "exit_price", "exit_reason", "return_pct", "hold_days",
	}}
	for _, t := range trades {
		rows = append(rows, []string{
			t.Ticker,
			t.EntryDate.Format("2006-01-02"),
			fmt.Sprintf("%.2f", t.EntryPrice),
			t.EntryReason,
			t.ExitDate.Format("2006-01-02"),
			fmt.Sprintf("%.2f", t.ExitPrice),
			t.ExitReason,
			fmt.Sprintf("%.2f", t.ReturnPct),
			fmt.Sprintf("%d", t.HoldDays),
		})
	}
	return path, writeCSV(path, rows)
}

// EquityCurve writes one row per simulated day.
func EquityCurve(curve []domain.EquityPoint, name, dir string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_equity_%s.csv",
		name, time.Now().Format(timestampLayout)))

	rows := [][]string{{"date", "equity", "cash", "positions_value", "num_positions"}}
	for _, p := range curve {
		rows = append(rows, []string{
			p.Date.Format("2006-01-02"),
			fmt.Sprintf("%.2f", p.Equity),
			fmt.Sprintf("%.2f", p.Cash),
			fmt.Sprintf("%.2f", p.PositionValue),
			fmt.Sprintf("%d", p.NumPositions),
		})
	}
	return path, writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

func flattenDetails(details map[string]string) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += "; "
		}
		out += k + "=" + details[k]
	}
	return out
}
