// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package config

import (
	"fmt"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateReport(); err != nil {
		return err
	}

	if err := c.validateBackup(); err != nil {
		return err
	}

	return c.validateLogging()
}

var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

// validateServer validates HTTP server settings
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PULSELOG_HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("PULSELOG_HTTP_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("PULSELOG_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.Environment != "" && !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("PULSELOG_ENVIRONMENT must be one of: development, staging, production")
	}
	return nil
}

// Store limit constants
const (
	minRecordBytes = 4 * 1024         // Room for a small batch with headers
	maxRecordBytes = 64 * 1024 * 1024 // 64MB - past this a single line read becomes pathological
)

// validateStore validates event log storage settings
func (c *Config) validateStore() error {
	if c.Store.DataDir == "" {
		return fmt.Errorf("PULSELOG_DATA_DIR must not be empty")
	}
	if c.Store.MaxRecordBytes < minRecordBytes || c.Store.MaxRecordBytes > maxRecordBytes {
		return fmt.Errorf("PULSELOG_STORE_MAX_RECORD_BYTES must be between %d and %d", minRecordBytes, maxRecordBytes)
	}
	return nil
}

// validateAPI validates response limit and cache settings
func (c *Config) validateAPI() error {
	if c.API.DefaultRecentLimit < 1 {
		return fmt.Errorf("PULSELOG_API_RECENT_LIMIT must be at least 1")
	}
	if c.API.MaxRecentLimit < c.API.DefaultRecentLimit {
		return fmt.Errorf("PULSELOG_API_MAX_RECENT_LIMIT must be >= PULSELOG_API_RECENT_LIMIT")
	}
	if c.API.CacheEnabled && c.API.CacheTTL <= 0 {
		return fmt.Errorf("PULSELOG_API_CACHE_TTL must be positive when caching is enabled")
	}
	return nil
}

// Rate limit bounds
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateSecurity validates rate limiting and request guard settings
func (c *Config) validateSecurity() error {
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	if c.Security.MaxBodyBytes < 1024 {
		return fmt.Errorf("PULSELOG_MAX_BODY_BYTES must be at least 1024")
	}
	return nil
}

// validateRateLimits validates rate limiting bounds (skipped when disabled)
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("PULSELOG_RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("PULSELOG_RATE_LIMIT_WINDOW must be between %s and %s", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// Report rendering bounds
const (
	minBarWidth = 10
	maxBarWidth = 120
)

// validateReport validates reporting and dashboard settings
func (c *Config) validateReport() error {
	if c.Report.FunnelFrom == "" || c.Report.FunnelTo == "" {
		return fmt.Errorf("PULSELOG_REPORT_FUNNEL_FROM and PULSELOG_REPORT_FUNNEL_TO must not be empty")
	}
	if c.Report.TopUsers < 1 {
		return fmt.Errorf("PULSELOG_REPORT_TOP_USERS must be at least 1")
	}
	if c.Report.BarWidth < minBarWidth || c.Report.BarWidth > maxBarWidth {
		return fmt.Errorf("PULSELOG_REPORT_BAR_WIDTH must be between %d and %d", minBarWidth, maxBarWidth)
	}
	if c.Report.ConversionLow < 0 || c.Report.ConversionHigh > 100 ||
		c.Report.ConversionLow >= c.Report.ConversionHigh {
		return fmt.Errorf("PULSELOG_REPORT_CONVERSION_LOW and PULSELOG_REPORT_CONVERSION_HIGH must satisfy 0 <= low < high <= 100")
	}
	if c.Report.CalculationsLow < 0 || c.Report.CalculationsLow >= c.Report.CalculationsHigh {
		return fmt.Errorf("PULSELOG_REPORT_CALCULATIONS_LOW and PULSELOG_REPORT_CALCULATIONS_HIGH must satisfy 0 <= low < high")
	}
	if c.Report.ShareMinCalculations < 0 {
		return fmt.Errorf("PULSELOG_REPORT_SHARE_MIN_CALCULATIONS must be non-negative")
	}
	return nil
}

// validateBackup validates backup settings (only if enabled)
func (c *Config) validateBackup() error {
	if !c.Backup.Enabled {
		return nil
	}

	if c.Backup.Interval < time.Minute {
		return fmt.Errorf("PULSELOG_BACKUP_INTERVAL must be at least 1m")
	}
	if c.Backup.Retain < 1 {
		return fmt.Errorf("PULSELOG_BACKUP_RETAIN must be at least 1")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging settings
func (c *Config) validateLogging() error {
	if err := c.validateLogLevel(); err != nil {
		return err
	}
	return c.validateLogFormat()
}

// validateLogLevel validates the log level
func (c *Config) validateLogLevel() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("PULSELOG_LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	return nil
}

// validateLogFormat validates the log output format
func (c *Config) validateLogFormat() error {
	if c.Logging.Format == "" {
		return nil
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("PULSELOG_LOG_FORMAT must be one of: json, console")
	}
	return nil
}
