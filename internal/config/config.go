// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package config

import (
	"path/filepath"
	"time"
)

// Config holds all application configuration loaded from environment variables and config files.
// Provides centralized configuration management for every component: the HTTP server, the
// event log store, reporting, backups, and logging.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via PULSELOG_* environment variables
//
// Configuration Categories:
//
//  1. Storage:
//     - Store: Data directory, write durability, record size limits
//
//  2. Serving:
//     - Server: HTTP server configuration (port, host, timeouts, environment)
//     - API: Response limits and cache behavior
//     - Security: Rate limiting, CORS, request body limits
//
//  3. Reporting:
//     - Report: Funnel endpoints, top-user count, rendering width
//
//  4. Operations:
//     - Backup: Periodic copies of the event log and stats snapshot
//     - Logging: Log levels and output formats
//     - Watch: Config file hot reload
//
// Example - Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	// cfg.Store.DataDir, cfg.Server.Port, etc. are now populated
//
// Validation:
// Load() validates all fields and returns an error if values are out of range
// (invalid port, zero limits, unknown log level).
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines. Use Holder for hot-reload scenarios.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Report   ReportConfig   `koanf:"report"`
	Backup   BackupConfig   `koanf:"backup"`
	Logging  LoggingConfig  `koanf:"logging"`
	Watch    WatchConfig    `koanf:"watch"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // Environment mode: "development", "staging", "production" (default: "development")
}

// StoreConfig holds event log and stats persistence settings.
//
// The data directory contains two files:
//   - events.log: append-only line-delimited session records
//   - stats.json: aggregate stats snapshot, rewritten wholesale on update
//
// Environment Variables:
//   - PULSELOG_DATA_DIR: Data directory (default: /data)
//   - PULSELOG_STORE_SYNC_WRITES: fsync after each append (default: true)
//   - PULSELOG_STORE_MAX_RECORD_BYTES: Per-record size cap (default: 1MiB)
type StoreConfig struct {
	DataDir        string `koanf:"data_dir"`
	SyncWrites     bool   `koanf:"sync_writes"`      // fsync after each append (durability over throughput)
	MaxRecordBytes int    `koanf:"max_record_bytes"` // Reject batches that would serialize past this size
}

// EventLogPath returns the path of the append-only event log file.
func (s StoreConfig) EventLogPath() string {
	return filepath.Join(s.DataDir, "events.log")
}

// StatsPath returns the path of the aggregate stats snapshot file.
func (s StoreConfig) StatsPath() string {
	return filepath.Join(s.DataDir, "stats.json")
}

// APIConfig holds API response limits and cache settings
type APIConfig struct {
	DefaultRecentLimit int           `koanf:"default_recent_limit"` // Sessions read by the recent-events query when no limit given
	MaxRecentLimit     int           `koanf:"max_recent_limit"`     // Hard cap on the recent-events limit parameter
	CacheEnabled       bool          `koanf:"cache_enabled"`
	CacheTTL           time.Duration `koanf:"cache_ttl"` // TTL for cached dashboard and report responses
}

// SecurityConfig holds rate limiting and request guard settings
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	MaxBodyBytes      int64         `koanf:"max_body_bytes"` // Request body size cap for event submission
}

// ReportConfig holds reporting and dashboard settings.
//
// The funnel measures how often the base event converted into the target
// event. Defaults track open-to-calculation conversion.
//
// Environment Variables:
//   - PULSELOG_REPORT_FUNNEL_FROM: Funnel base event, the denominator (default: app_opened)
//   - PULSELOG_REPORT_FUNNEL_TO: Funnel target event, the numerator (default: calculation_performed)
//   - PULSELOG_REPORT_TOP_USERS: Users shown in rankings (default: 5)
//   - PULSELOG_REPORT_BAR_WIDTH: Text report bar width in cells (default: 40)
//   - PULSELOG_REPORT_NUMERIC_PROPERTIES: Comma-separated property names aggregated on the dashboard
//   - PULSELOG_REPORT_CONVERSION_LOW: Conversion percent below which the low-engagement rule fires (default: 50)
//   - PULSELOG_REPORT_CONVERSION_HIGH: Conversion percent above which the high-engagement rule fires (default: 80)
//   - PULSELOG_REPORT_CALCULATIONS_LOW: Average calculations per session below which the low rule fires (default: 2)
//   - PULSELOG_REPORT_CALCULATIONS_HIGH: Average calculations per session above which the high rule fires (default: 5)
//   - PULSELOG_REPORT_SHARE_MIN_CALCULATIONS: Calculations required before zero shares raises the sharing rule (default: 10)
type ReportConfig struct {
	FunnelFrom        string   `koanf:"funnel_from"`
	FunnelTo          string   `koanf:"funnel_to"`
	TopUsers          int      `koanf:"top_users"`
	BarWidth          int      `koanf:"bar_width"`
	NumericProperties []string `koanf:"numeric_properties"`

	// Recommendation rule thresholds.
	ConversionLow        float64 `koanf:"conversion_low"`
	ConversionHigh       float64 `koanf:"conversion_high"`
	CalculationsLow      float64 `koanf:"calculations_low"`
	CalculationsHigh     float64 `koanf:"calculations_high"`
	ShareMinCalculations int     `koanf:"share_min_calculations"`
}

// BackupConfig holds periodic backup settings
type BackupConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
	Dir      string        `koanf:"dir"`    // Backup directory (default: <data_dir>/backups)
	Retain   int           `koanf:"retain"` // Timestamped backup sets kept per file
}

// ResolvedBackupDir returns the backup directory, falling back to
// <data_dir>/backups when none is configured.
func (c *Config) ResolvedBackupDir() string {
	if c.Backup.Dir != "" {
		return c.Backup.Dir
	}
	return filepath.Join(c.Store.DataDir, "backups")
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - PULSELOG_LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - PULSELOG_LOG_FORMAT: json, console (default: json)
//   - PULSELOG_LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// JSON is recommended for production (structured, machine-parseable).
	// Console is human-readable for development.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Adds slight performance overhead.
	// Default: false
	Caller bool `koanf:"caller"`
}

// WatchConfig holds config file hot-reload settings
type WatchConfig struct {
	Enabled bool `koanf:"enabled"` // Watch the config file and re-apply reloadable settings (default: false)
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load loads configuration using the layered Koanf pipeline.
// See LoadWithKoanf for the precedence rules.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
