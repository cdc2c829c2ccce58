package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Scan      ScanConfig      `yaml:"scan"`
	Portfolio PortfolioConfig `yaml:"portfolio"`
	Storage   StorageConfig   `yaml:"storage"`
	Export    ExportConfig    `yaml:"export"`
	Watch     WatchConfig     `yaml:"watch"`
	Log       LogConfig       `yaml:"log"`
}

// DataConfig points at the local market data.
type DataConfig struct {
	OHLCVDir string `yaml:"ohlcv_dir"` // directory of <TICKER>.csv files
}

// ScanConfig controls scanning defaults.
type ScanConfig struct {
	Scanner string `yaml:"scanner"` // default scanner name
	Workers int    `yaml:"workers"` // 0 = NumCPU x 2
}

// PortfolioConfig holds portfolio simulation defaults.
type PortfolioConfig struct {
	InitialCapital float64 `yaml:"initial_capital"`
	MaxPositions   int     `yaml:"max_positions"`
	PositionSize   float64 `yaml:"position_size"` // fraction of initial capital
}

// StorageConfig controls result persistence.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// ExportConfig controls CSV output locations.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// WatchConfig controls the watch-mode schedule.
type WatchConfig struct {
	Cron       string `yaml:"cron"` // 5-field cron spec
	RunOnStart bool   `yaml:"run_on_start"`
}

// LogConfig controls the logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config file plus a .env file when present. Env
// values override YAML for the keys they map to. A missing config file
// is not an error; defaults apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Portfolio.PositionSize <= 0 || c.Portfolio.PositionSize > 1 {
		return fmt.Errorf("portfolio.position_size must be in (0, 1], got %v", c.Portfolio.PositionSize)
	}
	if c.Portfolio.MaxPositions <= 0 {
		return fmt.Errorf("portfolio.max_positions must be positive, got %d", c.Portfolio.MaxPositions)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MARKETLENS_DATA_DIR"); v != "" {
		cfg.Data.OHLCVDir = v
	}
	if v := os.Getenv("MARKETLENS_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Data.OHLCVDir == "" {
		cfg.Data.OHLCVDir = "data/ohlcv"
	}
	if cfg.Scan.Scanner == "" {
		cfg.Scan.Scanner = "entry_point"
	}
	if cfg.Portfolio.InitialCapital <= 0 {
		cfg.Portfolio.InitialCapital = 100_000
	}
	if cfg.Portfolio.MaxPositions <= 0 {
		cfg.Portfolio.MaxPositions = 10
	}
	if cfg.Portfolio.PositionSize <= 0 {
		cfg.Portfolio.PositionSize = 0.10
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "marketlens.db"
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = "results"
	}
	if cfg.Watch.Cron == "" {
		cfg.Watch.Cron = "30 22 * * 1-5" // weekday evenings, after US close
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
