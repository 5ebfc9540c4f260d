package dashboard

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Chiquitos-JP/trading-dashboard/broker"
	"github.com/Chiquitos-JP/trading-dashboard/date"
)

// Config is the explicit configuration object handed to every component. No
// component reads environment variables or global state; everything flows
// from here.
type Config struct {
	// DataRoot is the directory holding raw extracts, master artifacts and
	// checkpoints.
	DataRoot string `yaml:"data_root"`
	// ReportingCurrency is the currency all records are converted to.
	ReportingCurrency string `yaml:"reporting_currency"`
	// FXTablePath points at the FRED-style observation CSV.
	FXTablePath string `yaml:"fx_table"`
	// FXMode selects "average" or "last" monthly rate application.
	FXMode string `yaml:"fx_mode"`
	// HolidayTablePath points at a holiday table JSON; empty selects the
	// embedded NYSE table.
	HolidayTablePath string `yaml:"holiday_table"`
	// Horizon is the last projected month of the chart axis, e.g. "2026-12".
	Horizon string `yaml:"horizon"`
	// Brokers lists the broker sources to ingest.
	Brokers []string `yaml:"brokers"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		DataRoot:          "data",
		ReportingCurrency: "JPY",
		FXMode:            "average",
		Brokers:           []string{broker.Rakuten, broker.SBI},
	}
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the fields that later stages cannot recover from.
func (c Config) Validate() error {
	if c.DataRoot == "" {
		return fmt.Errorf("data_root is required")
	}
	if c.ReportingCurrency == "" {
		return fmt.Errorf("reporting_currency is required")
	}
	if len(c.Brokers) == 0 {
		return fmt.Errorf("at least one broker is required")
	}
	for _, b := range c.Brokers {
		if _, err := broker.ForBroker(b); err != nil {
			return err
		}
	}
	if _, err := ParseRateMode(c.FXMode); err != nil {
		return err
	}
	if c.Horizon != "" {
		if _, err := date.ParseMonth(c.Horizon); err != nil {
			return err
		}
	}
	return nil
}

// HorizonMonth returns the configured horizon, or a zero Month when unset
// (the axis then ends at the last observed month).
func (c Config) HorizonMonth() date.Month {
	if c.Horizon == "" {
		return date.Month{}
	}
	m, err := date.ParseMonth(c.Horizon)
	if err != nil {
		return date.Month{}
	}
	return m
}

// RateMode returns the parsed FX application mode.
func (c Config) RateMode() RateMode {
	mode, err := ParseRateMode(c.FXMode)
	if err != nil {
		return RateAverage
	}
	return mode
}

func (c Config) realizedPLDir() string {
	return filepath.Join(c.DataRoot, "trading_account", "realized_pl")
}

// RawDir returns the raw extract directory for one broker.
func (c Config) RawDir(b string) string {
	return filepath.Join(c.realizedPLDir(), "raw", b)
}

// MasterPath returns the master artifact path for one broker tag, or the
// merged artifact for the "merged" tag.
func (c Config) MasterPath(tag string) string {
	return filepath.Join(c.realizedPLDir(), "master", fmt.Sprintf("master_realized_pl_%s.parquet", tag))
}

// CheckpointsDir returns the checkpoint store directory.
func (c Config) CheckpointsDir() string {
	return filepath.Join(c.realizedPLDir(), "checkpoints")
}
