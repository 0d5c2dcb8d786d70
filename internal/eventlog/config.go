// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package eventlog

import "fmt"

// Config holds event log store configuration.
//
// The store appends serialized session records to a single line-delimited
// file. Durability and record size limits are tunable; everything else is
// fixed by the format.
type Config struct {
	// Path is the event log file. The parent directory is created if needed;
	// the file itself is created on first open and never truncated.
	Path string

	// SyncWrites forces fsync after every append for maximum durability.
	// Set to false for higher throughput but risk of losing the most recent
	// records on power failure.
	SyncWrites bool

	// MaxRecordBytes rejects any single record that would serialize past this
	// size. Guards the log against pathological batches. Default: 1MiB.
	MaxRecordBytes int
}

// DefaultConfig returns sensible defaults for the event log store.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		MaxRecordBytes: 1 << 20,
	}
}

// Validate checks that the store configuration is valid.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("event log path is required")
	}
	if c.MaxRecordBytes < 4096 {
		return fmt.Errorf("max record bytes must be at least 4096")
	}
	return nil
}
