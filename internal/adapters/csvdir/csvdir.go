// Package csvdir implements ports.DataProvider over a directory of CSV
// files: one <TICKER>.csv per symbol with daily OHLCV rows, plus an
// optional fundamentals.yaml keyed by ticker.
package csvdir

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/marketlens/internal/domain"
)

const fundamentalsFile = "fundamentals.yaml"

// Provider reads price data from dir. Fundamentals are loaded once,
// lazily, on the first request.
type Provider struct {
	dir          string
	fundamentals map[string]domain.Fundamentals
}

// NewProvider validates that dir exists and returns a provider over it.
func NewProvider(dir string) (*Provider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("csvdir.NewProvider: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("csvdir.NewProvider: %s is not a directory", dir)
	}
	return &Provider{dir: dir}, nil
}

// Tickers lists every symbol with a CSV file in the directory, sorted.
func (p *Provider) Tickers(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("csvdir.Tickers: %w", err)
	}

	var tickers []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		tickers = append(tickers, strings.TrimSuffix(name, ".csv"))
	}
	sort.Strings(tickers)
	return tickers, nil
}

// LoadSeries parses <ticker>.csv. Expected header:
// Date,Open,High,Low,Close,Volume with dates as YYYY-MM-DD. Rows are
// sorted by date and duplicate dates keep the last row.
func (p *Provider) LoadSeries(_ context.Context, ticker string) (domain.Series, error) {
	path := filepath.Join(p.dir, ticker+".csv")
	f, err := os.Open(path)
	if err != nil {
		return domain.Series{}, fmt.Errorf("csvdir.LoadSeries: %w", err)
	}
	defer f.Close()

	series, err := ParseSeries(f, ticker)
	if err != nil {
		return domain.Series{}, fmt.Errorf("csvdir.LoadSeries: %s: %w", path, err)
	}
	return series, nil
}

// LoadFundamentals returns the fundamentals record for ticker, empty when
// the file or the ticker entry is missing.
func (p *Provider) LoadFundamentals(_ context.Context, ticker string) (domain.Fundamentals, error) {
	if p.fundamentals == nil {
		all, err := loadFundamentalsFile(filepath.Join(p.dir, fundamentalsFile))
		if err != nil {
			return nil, fmt.Errorf("csvdir.LoadFundamentals: %w", err)
		}
		p.fundamentals = all
	}
	if fund, ok := p.fundamentals[ticker]; ok {
		return fund, nil
	}
	return domain.Fundamentals{}, nil
}

// ParseSeries reads one OHLCV CSV stream into a Series.
func ParseSeries(r io.Reader, ticker string) (domain.Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6

	header, err := cr.Read()
	if err != nil {
		return domain.Series{}, fmt.Errorf("read header: %w", err)
	}
	if !strings.EqualFold(header[0], "Date") {
		return domain.Series{}, fmt.Errorf("unexpected header %q, want Date,Open,High,Low,Close,Volume", strings.Join(header, ","))
	}

	byDate := make(map[time.Time]domain.Bar)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Series{}, fmt.Errorf("read row: %w", err)
		}

		date, err := time.ParseInLocation("2006-01-02", row[0], time.UTC)
		if err != nil {
			return domain.Series{}, fmt.Errorf("row %q: bad date: %w", row[0], err)
		}

		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				return domain.Series{}, fmt.Errorf("row %s: bad %s: %w", row[0], header[i+1], err)
			}
			vals[i] = v
		}

		byDate[date] = domain.Bar{
			Date: date, Open: vals[0], High: vals[1],
			Low: vals[2], Close: vals[3], Volume: vals[4],
		}
	}

	bars := make([]domain.Bar, 0, len(byDate))
	for _, b := range byDate {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	return domain.Series{Ticker: ticker, Bars: bars}, nil
}

func loadFundamentalsFile(path string) (map[string]domain.Fundamentals, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]domain.Fundamentals{}, nil
	}
	if err != nil {
		return nil, err
	}

	var all map[string]domain.Fundamentals
	if err := yaml.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return all, nil
}
