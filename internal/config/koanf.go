// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pulselog/config.yaml",
	"/etc/pulselog/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "PULSELOG_CONFIG_PATH"

// envPrefix namespaces every Pulselog environment variable.
const envPrefix = "PULSELOG_"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development", // Set PULSELOG_ENVIRONMENT=production for production checks
		},
		Store: StoreConfig{
			DataDir:        "/data",
			SyncWrites:     true, // Durability first; disable for bulk imports
			MaxRecordBytes: 1 << 20,
		},
		API: APIConfig{
			DefaultRecentLimit: 50,
			MaxRecentLimit:     1000,
			CacheEnabled:       true,
			CacheTTL:           30 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			MaxBodyBytes:      1 << 20,
		},
		Report: ReportConfig{
			FunnelFrom:        "app_opened",
			FunnelTo:          "calculation_performed",
			TopUsers:          5,
			BarWidth:          40,
			NumericProperties: []string{"price", "rate"},

			ConversionLow:        50,
			ConversionHigh:       80,
			CalculationsLow:      2,
			CalculationsHigh:     5,
			ShareMinCalculations: 10,
		},
		Backup: BackupConfig{
			Enabled:  false, // Disabled by default - opt-in only
			Interval: 24 * time.Hour,
			Dir:      "", // Empty = <data_dir>/backups
			Retain:   7,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Watch: WatchConfig{
			Enabled: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func LoadWithKoanf() (*Config, error) {
	return LoadFromPath(FindConfigFile())
}

// LoadFromPath loads configuration with the same layering as LoadWithKoanf
// but reads the YAML layer from an explicit path. An empty path skips the
// file layer entirely; a non-empty path must exist.
func LoadFromPath(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// PULSELOG_HTTP_PORT -> server.port
	// PULSELOG_DATA_DIR -> store.data_dir
	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func FindConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"report.numeric_properties",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
// The PULSELOG_ prefix is stripped before lookup.
//
// Examples:
//   - PULSELOG_HTTP_PORT -> server.port
//   - PULSELOG_DATA_DIR -> store.data_dir
//   - PULSELOG_LOG_LEVEL -> logging.level
//   - PULSELOG_RATE_LIMIT_REQUESTS -> security.rate_limit_reqs
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	envMappings := map[string]string{
		// Server mappings
		"http_port":        "server.port",
		"http_host":        "server.host",
		"http_timeout":     "server.timeout",
		"shutdown_timeout": "server.shutdown_timeout",
		"environment":      "server.environment",

		// Store mappings
		"data_dir":               "store.data_dir",
		"store_sync_writes":      "store.sync_writes",
		"store_max_record_bytes": "store.max_record_bytes",

		// API mappings
		"api_recent_limit":     "api.default_recent_limit",
		"api_max_recent_limit": "api.max_recent_limit",
		"api_cache_enabled":    "api.cache_enabled",
		"api_cache_ttl":        "api.cache_ttl",

		// Security mappings
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",
		"max_body_bytes":      "security.max_body_bytes",

		// Report mappings
		"report_funnel_from":            "report.funnel_from",
		"report_funnel_to":              "report.funnel_to",
		"report_top_users":              "report.top_users",
		"report_bar_width":              "report.bar_width",
		"report_numeric_properties":     "report.numeric_properties",
		"report_conversion_low":         "report.conversion_low",
		"report_conversion_high":        "report.conversion_high",
		"report_calculations_low":       "report.calculations_low",
		"report_calculations_high":      "report.calculations_high",
		"report_share_min_calculations": "report.share_min_calculations",

		// Backup mappings
		"backup_enabled":  "backup.enabled",
		"backup_interval": "backup.interval",
		"backup_dir":      "backup.dir",
		"backup_retain":   "backup.retain",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Watch mappings
		"watch_config": "watch.enabled",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
