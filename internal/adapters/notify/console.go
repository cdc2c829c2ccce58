// Package notify renders results to the terminal.
package notify

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/marketlens/internal/domain"
)

// Console implements ports.Notifier writing formatted tables to a writer.
type Console struct {
	out             io.Writer
	tradeLog        bool // print per-trade detail tables
	tickerBreakdown bool // print per-ticker stats for portfolio runs
}

// NewConsole creates a notifier that writes to stdout.
func NewConsole(tradeLog, tickerBreakdown bool) *Console {
	return &Console{out: os.Stdout, tradeLog: tradeLog, tickerBreakdown: tickerBreakdown}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, tradeLog, tickerBreakdown bool) *Console {
	return &Console{out: w, tradeLog: tradeLog, tickerBreakdown: tickerBreakdown}
}

// NotifyScan prints the scan results table, highest score first.
func (c *Console) NotifyScan(results []domain.ScanResult, scannerName string) error {
	if len(results) == 0 {
		fmt.Fprintln(c.out, "No results matched the scanner criteria.")
		return nil
	}

	fmt.Fprintf(c.out, "\nScan: %s | %s | %d results\n",
		scannerName, time.Now().Format("2006-01-02 15:04"), len(results))

	// Detail columns in first-seen order so every scanner's extra fields
	// show up without per-scanner formatting code.
	detailKeys := detailColumns(results)

	table := tablewriter.NewWriter(c.out)
	header := append([]string{"#", "Ticker", "Score", "Signal"}, detailKeys...)
	table.Header(toAny(header)...)

	for i, r := range results {
		row := []string{
			fmt.Sprintf("%d", i+1),
			r.Ticker,
			fmt.Sprintf("%.1f", r.Score),
			r.Signal,
		}
		for _, key := range detailKeys {
			row = append(row, r.Details[key])
		}
		table.Append(toAny(row)...)
	}
	table.Render()
	return nil
}

// NotifySimulation prints the per-ticker summary table, the aggregate
// stats over all trades, and the trade log when enabled.
func (c *Console) NotifySimulation(results []*domain.SimulationResult, scannerName string) error {
	if len(results) == 0 {
		fmt.Fprintln(c.out, "No simulation results (no trades generated).")
		return nil
	}

	fmt.Fprintf(c.out, "\nSimulation: %s | %s\n", scannerName, time.Now().Format("2006-01-02 15:04"))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Ticker", "Return %", "Win %", "Avg Ret %", "Max DD %", "Trades", "Avg Hold")
	for i, r := range results {
		table.Append(
			fmt.Sprintf("%d", i+1),
			r.Ticker,
			fmt.Sprintf("%+.1f", r.TotalReturnPct),
			fmt.Sprintf("%.1f", r.WinRatePct),
			fmt.Sprintf("%+.2f", r.AvgReturnPct),
			fmt.Sprintf("%.1f", r.MaxDrawdownPct),
			fmt.Sprintf("%d", r.NumTrades),
			fmt.Sprintf("%.0fd", r.AvgHoldDays),
		)
	}
	table.Render()

	c.printAggregate(results)

	if c.tradeLog || len(results) == 1 {
		for _, r := range results {
			c.printTradeLog(fmt.Sprintf("Trade Log: %s", r.Ticker), r.Trades, false)
		}
	}

	fmt.Fprintf(c.out, "\n%d tickers simulated.\n", len(results))
	return nil
}

// printAggregate sums trades across all simulated tickers.
func (c *Console) printAggregate(results []*domain.SimulationResult) {
	var trades []domain.Trade
	for _, r := range results {
		trades = append(trades, r.Trades...)
	}
	if len(trades) == 0 {
		return
	}

	wins := 0
	var sumRet float64
	reasons := make(map[string]int)
	for _, t := range trades {
		if t.IsWin() {
			wins++
		}
		sumRet += t.ReturnPct
		reasons[t.ExitReason]++
	}

	fmt.Fprintf(c.out, "\n=== AGGREGATE ===\n")
	fmt.Fprintf(c.out, "  Total trades: %d  |  Win rate: %.1f%%  |  Avg return: %+.2f%%\n",
		len(trades), float64(wins)/float64(len(trades))*100, sumRet/float64(len(trades)))
	fmt.Fprintf(c.out, "  Exit reasons: %s\n", formatReasons(reasons))
}

// NotifyPortfolio prints the portfolio summary block, the exit breakdown
// and, when enabled, the per-ticker breakdown and trade log.
func (c *Console) NotifyPortfolio(result *domain.PortfolioResult) error {
	if result.NumTrades == 0 {
		fmt.Fprintln(c.out, "No trades generated.")
		return nil
	}

	fmt.Fprintf(c.out, "\n=== Portfolio Simulation: %s ===\n", result.ScannerName)
	fmt.Fprintf(c.out, "  Period:           %s to %s (%d trading days)\n",
		result.StartDate.Format("2006-01-02"), result.EndDate.Format("2006-01-02"), result.TotalDays)
	fmt.Fprintf(c.out, "  Initial Capital:  $%.0f\n", result.InitialCapital)
	fmt.Fprintf(c.out, "  Final Equity:     $%.0f\n", result.FinalEquity)
	fmt.Fprintf(c.out, "  Total Return:     %+.2f%%\n", result.TotalReturnPct)
	fmt.Fprintf(c.out, "  CAGR:             %+.2f%%\n", result.CAGRPct)
	fmt.Fprintf(c.out, "  Max Drawdown:     %.2f%%\n", result.MaxDrawdownPct)
	fmt.Fprintf(c.out, "\n")
	fmt.Fprintf(c.out, "  Trades:           %d\n", result.NumTrades)
	fmt.Fprintf(c.out, "  Win Rate:         %.1f%%\n", result.WinRatePct)
	fmt.Fprintf(c.out, "  Avg Return:       %+.2f%%\n", result.AvgReturnPerTradePct)
	fmt.Fprintf(c.out, "  Avg Hold:         %.0f days\n", result.AvgHoldDays)
	fmt.Fprintf(c.out, "\n")
	fmt.Fprintf(c.out, "  Max Positions: %d | Position Size: %.0f%% of capital\n",
		result.MaxPositions, result.PositionSizePct*100)

	c.printExitBreakdown(result.ExitBreakdown)

	if c.tickerBreakdown {
		c.printTickerBreakdown(result.TickerBreakdown)
	}
	if c.tradeLog {
		trades := append([]domain.Trade(nil), result.Trades...)
		sort.SliceStable(trades, func(i, j int) bool {
			return trades[i].EntryDate.Before(trades[j].EntryDate)
		})
		c.printTradeLog("Trade Log", trades, true)
	}
	return nil
}

func (c *Console) printExitBreakdown(breakdown map[string]int) {
	if len(breakdown) == 0 {
		return
	}

	type row struct {
		reason string
		count  int
	}
	rows := make([]row, 0, len(breakdown))
	total := 0
	for reason, count := range breakdown {
		rows = append(rows, row{reason, count})
		total += count
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].reason < rows[j].reason
	})

	fmt.Fprintf(c.out, "\nExit Reasons:\n")
	table := tablewriter.NewWriter(c.out)
	table.Header("Reason", "Count", "% of Total")
	for _, r := range rows {
		table.Append(r.reason, fmt.Sprintf("%d", r.count),
			fmt.Sprintf("%.1f%%", float64(r.count)/float64(total)*100))
	}
	table.Render()
}

func (c *Console) printTickerBreakdown(breakdown map[string]domain.TickerStats) {
	if len(breakdown) == 0 {
		return
	}

	tickers := make([]string, 0, len(breakdown))
	for t := range breakdown {
		tickers = append(tickers, t)
	}
	sort.Slice(tickers, func(i, j int) bool {
		si, sj := breakdown[tickers[i]], breakdown[tickers[j]]
		if si.TotalReturnPct != sj.TotalReturnPct {
			return si.TotalReturnPct > sj.TotalReturnPct
		}
		return tickers[i] < tickers[j]
	})

	fmt.Fprintf(c.out, "\nPer-Ticker Breakdown:\n")
	table := tablewriter.NewWriter(c.out)
	table.Header("Ticker", "Trades", "Win %", "Avg Ret %", "Total Ret %")
	for _, t := range tickers {
		s := breakdown[t]
		table.Append(t,
			fmt.Sprintf("%d", s.NumTrades),
			fmt.Sprintf("%.1f", s.WinRatePct),
			fmt.Sprintf("%+.2f", s.AvgReturnPct),
			fmt.Sprintf("%+.2f", s.TotalReturnPct),
		)
	}
	table.Render()
}

func (c *Console) printTradeLog(title string, trades []domain.Trade, withTicker bool) {
	if len(trades) == 0 {
		return
	}

	fmt.Fprintf(c.out, "\n%s:\n", title)
	table := tablewriter.NewWriter(c.out)
	if withTicker {
		table.Header("#", "Ticker", "Entry Date", "Entry $", "Exit Date", "Exit $", "Exit Reason", "Return %", "Days")
	} else {
		table.Header("#", "Entry Date", "Entry $", "Entry Reason", "Exit Date", "Exit $", "Exit Reason", "Return %", "Days")
	}

	for i, t := range trades {
		row := []string{fmt.Sprintf("%d", i+1)}
		if withTicker {
			row = append(row, t.Ticker, t.EntryDate.Format("2006-01-02"), fmt.Sprintf("%.2f", t.EntryPrice))
		} else {
			row = append(row, t.EntryDate.Format("2006-01-02"), fmt.Sprintf("%.2f", t.EntryPrice), t.EntryReason)
		}
		row = append(row,
			t.ExitDate.Format("2006-01-02"),
			fmt.Sprintf("%.2f", t.ExitPrice),
			t.ExitReason,
			fmt.Sprintf("%+.2f", t.ReturnPct),
			fmt.Sprintf("%d", t.HoldDays),
		)
		table.Append(toAny(row)...)
	}
	table.Render()
}

// --- helpers ---

func detailColumns(results []domain.ScanResult) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, r := range results {
		ordered := make([]string, 0, len(r.Details))
		for k := range r.Details {
			ordered = append(ordered, k)
		}
		sort.Strings(ordered)
		for _, k := range ordered {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func formatReasons(reasons map[string]int) string {
	keys := make([]string, 0, len(reasons))
	for k := range reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s: %d", k, reasons[k])
	}
	return out
}

func toAny(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
