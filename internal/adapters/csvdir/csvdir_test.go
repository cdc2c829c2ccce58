package csvdir

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Date,Open,High,Low,Close,Volume
2024-01-03,102,103,101,102.5,1200
2024-01-01,100,101,99,100.5,1000
2024-01-02,101,102,100,101.5,1100
2024-01-02,101,103,100,102.0,1150
`

func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AAPL.csv"), []byte(sampleCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "MSFT.csv"), []byte(sampleCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fundamentals.yaml"),
		[]byte("AAPL:\n  marketCap: 3000000000000\n"), 0o644))
	return dir
}

func TestProvider_Tickers(t *testing.T) {
	p, err := NewProvider(writeDataDir(t))
	require.NoError(t, err)

	tickers, err := p.Tickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)
}

func TestProvider_LoadSeries_SortsAndDedupes(t *testing.T) {
	p, err := NewProvider(writeDataDir(t))
	require.NoError(t, err)

	series, err := p.LoadSeries(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Equal(t, 3, series.Len())
	assert.Equal(t, "AAPL", series.Ticker)
	for i := 1; i < series.Len(); i++ {
		assert.True(t, series.Bars[i-1].Date.Before(series.Bars[i].Date))
	}
	// Duplicate date keeps the last row.
	jan2 := series.Bars[1]
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), jan2.Date)
	assert.Equal(t, 102.0, jan2.Close)
	assert.Equal(t, 1150.0, jan2.Volume)
}

func TestProvider_LoadSeries_Missing(t *testing.T) {
	p, err := NewProvider(writeDataDir(t))
	require.NoError(t, err)

	_, err = p.LoadSeries(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestParseSeries_BadHeader(t *testing.T) {
	_, err := ParseSeries(strings.NewReader("foo,bar,baz,qux,quux,corge\n"), "T")
	assert.Error(t, err)
}

func TestParseSeries_BadValue(t *testing.T) {
	csv := "Date,Open,High,Low,Close,Volume\n2024-01-01,abc,1,1,1,1\n"
	_, err := ParseSeries(strings.NewReader(csv), "T")
	assert.Error(t, err)
}

func TestProvider_LoadFundamentals(t *testing.T) {
	p, err := NewProvider(writeDataDir(t))
	require.NoError(t, err)

	fund, err := p.LoadFundamentals(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 3e12, fund.Get("marketCap"))

	// Missing ticker yields an empty record, not an error.
	missing, err := p.LoadFundamentals(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, 0.0, missing.Get("marketCap"))
}

func TestNewProvider_MissingDir(t *testing.T) {
	_, err := NewProvider("/does/not/exist")
	assert.Error(t, err)
}
