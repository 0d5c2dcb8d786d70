// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

// Package cli defines the pulselog command tree: serve runs the
// collection server, and the report, rebuild-stats, seed, and import
// commands work the data files directly through the same internal
// packages the server uses.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/pulselog/internal/config"
	"github.com/tomtom215/pulselog/internal/eventlog"
	"github.com/tomtom215/pulselog/internal/logging"
	"github.com/tomtom215/pulselog/internal/recommend"
	"github.com/tomtom215/pulselog/internal/report"
	"github.com/tomtom215/pulselog/internal/stats"
)

// version is stamped at build time via -ldflags "-X".
var version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pulselog",
	Short: "Usage event analytics service",
	Long: `Pulselog collects usage events from clients into an append-only
log and serves aggregate statistics, dashboards, and operator reports.

Run "pulselog serve" to start the HTTP server. The remaining commands
operate on the data directory without a running server.`,
	Version:      version,
	SilenceUsage: true,
}

// Execute runs the command tree. Cobra prints the failing command's
// error; the caller only decides the exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: search ./config.yaml and /etc/pulselog/config.yaml)")
}

// resolveConfigPath honors the --config flag, then the search paths.
func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.FindConfigFile()
}

// setup loads configuration and initializes logging for a command run.
func setup() (*config.Config, error) {
	cfg, err := config.LoadFromPath(resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	return cfg, nil
}

// openStore opens the event log per the store config.
func openStore(cfg *config.Config) (*eventlog.Store, error) {
	store, err := eventlog.Open(eventlog.Config{
		Path:           cfg.Store.EventLogPath(),
		SyncWrites:     cfg.Store.SyncWrites,
		MaxRecordBytes: cfg.Store.MaxRecordBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return store, nil
}

// openStores opens the event log and the stats tracker.
func openStores(cfg *config.Config) (*eventlog.Store, *stats.Tracker, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	tracker, err := stats.Open(cfg.Store.StatsPath())
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("open stats tracker: %w", err)
	}
	return store, tracker, nil
}

// reportOptions maps the report config onto engine options.
func reportOptions(rc config.ReportConfig) report.Options {
	return report.Options{
		FunnelFrom:        rc.FunnelFrom,
		FunnelTo:          rc.FunnelTo,
		TopUsers:          rc.TopUsers,
		NumericProperties: rc.NumericProperties,
	}
}

// reportThresholds maps the report config onto recommendation rule
// boundaries.
func reportThresholds(rc config.ReportConfig) recommend.Thresholds {
	return recommend.Thresholds{
		ConversionLow:        rc.ConversionLow,
		ConversionHigh:       rc.ConversionHigh,
		CalculationsLow:      rc.CalculationsLow,
		CalculationsHigh:     rc.CalculationsHigh,
		ShareMinCalculations: rc.ShareMinCalculations,
	}
}
