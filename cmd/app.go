// Package cmd implements the CLI application driving the trade ingestion and
// KPI pipeline.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	dashboard "github.com/Chiquitos-JP/trading-dashboard"
	"github.com/Chiquitos-JP/trading-dashboard/calendar"
)

// Register the subcommands. A main package calls Register(), then Execute()
// on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&runCmd{}, "pipeline")
	c.Register(&scheduleCmd{}, "pipeline")

	c.Register(&summaryCmd{}, "reports")
	c.Register(&calendarCmd{}, "reports")
}

// as a CLI application it is short lived, so global flags are fine.

var configFile = flag.String("config", "tdash.yaml", "Path to the configuration file")
var verbose = flag.Bool("v", false, "Verbose logging")

// loadConfig reads the configured file, falling back to defaults when the
// default file does not exist.
func loadConfig() (dashboard.Config, error) {
	if _, err := os.Stat(*configFile); os.IsNotExist(err) && !flagWasSet("config") {
		return dashboard.DefaultConfig(), nil
	}
	return dashboard.LoadConfig(*configFile)
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// newLogger builds the process logger.
func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	if *verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// loadCalendar selects the configured holiday table, or the embedded NYSE
// table when none is configured.
func loadCalendar(cfg dashboard.Config) (*calendar.Calendar, error) {
	if cfg.HolidayTablePath == "" {
		return calendar.NYSE(), nil
	}
	return calendar.Load(cfg.HolidayTablePath)
}

// loadFX reads the configured FX observation table. Missing configuration
// yields an empty table: fine for an all-JPY setup, and any USD record will
// then surface as a missing-rate exclusion rather than a silent 1.0.
func loadFX(cfg dashboard.Config) (*dashboard.FXTable, error) {
	if cfg.FXTablePath == "" {
		return dashboard.NewFXTable("", nil), nil
	}
	return dashboard.LoadFXCSV(cfg.FXTablePath)
}

// openPipeline wires a pipeline from the configuration.
func openPipeline(cfg dashboard.Config, log *zap.Logger) (*dashboard.Pipeline, error) {
	cal, err := loadCalendar(cfg)
	if err != nil {
		return nil, err
	}
	fx, err := loadFX(cfg)
	if err != nil {
		return nil, err
	}
	store := dashboard.NewStore(cfg.CheckpointsDir(), nil, log)
	return dashboard.NewPipeline(cfg, cal, fx, store, log), nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
