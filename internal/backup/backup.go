// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

// Package backup copies the event log and stats snapshot to timestamped
// files on an interval and prunes old copies.
//
// Copies are plain files named <source>.<timestamp>; restoring is
// copying one back. A copy taken while an append is in flight may end
// in a torn line, which log readers already skip, so backups need no
// coordination with the store.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/pulselog/internal/logging"
	"github.com/tomtom215/pulselog/internal/metrics"
)

// timestampLayout names backup files sortably in UTC. Millisecond
// precision keeps names unique across quick successive runs.
const timestampLayout = "20060102T150405.000Z"

// Config describes what to back up, where, and how often.
type Config struct {
	// Dir is the destination directory, created if missing.
	Dir string

	// Interval between scheduled runs.
	Interval time.Duration

	// Retain is how many timestamped copies to keep per source.
	Retain int

	// Sources are the files to copy. Missing sources are skipped; the
	// stats snapshot does not exist until the first persist.
	Sources []string
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("backup directory is required")
	}
	if c.Interval < time.Minute {
		return fmt.Errorf("backup interval must be at least 1m, got %s", c.Interval)
	}
	if c.Retain < 1 {
		return fmt.Errorf("backup retention must be at least 1, got %d", c.Retain)
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one backup source is required")
	}
	return nil
}

// Status is a snapshot of manager activity.
type Status struct {
	Runs     int64
	Failures int64
	LastRun  time.Time
	LastErr  string
}

// Manager runs scheduled and on-demand backups.
type Manager struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	lastRun time.Time
	lastErr error

	runs     atomic.Int64
	failures atomic.Int64
}

// NewManager validates the config and prepares the destination
// directory.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	return &Manager{cfg: cfg, now: time.Now}, nil
}

// Serve runs scheduled backups until the context is cancelled. The
// first run happens one interval after start; a failed run is logged
// and the schedule continues.
func (m *Manager) Serve(ctx context.Context) error {
	logging.Info().
		Str("dir", m.cfg.Dir).
		Dur("interval", m.cfg.Interval).
		Int("retain", m.cfg.Retain).
		Msg("Backup scheduler started")

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Backup scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := m.RunOnce(ctx); err != nil {
				logging.Error().Err(err).Msg("Scheduled backup failed")
			}
		}
	}
}

// RunOnce copies every existing source to a timestamped file and prunes
// old copies. Runs serialize; concurrent calls queue on the manager
// lock.
func (m *Manager) RunOnce(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordBackup(time.Since(start), err)
		m.runs.Add(1)
		if err != nil {
			m.failures.Add(1)
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()
	runTime := m.now()
	defer func() {
		m.lastRun = runTime
		m.lastErr = err
	}()

	stamp := runTime.UTC().Format(timestampLayout)
	copied := 0
	for _, source := range m.cfg.Sources {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		base := filepath.Base(source)
		if _, statErr := os.Stat(source); os.IsNotExist(statErr) {
			logging.Debug().Str("source", source).Msg("Backup source missing, skipped")
			continue
		}
		dst := filepath.Join(m.cfg.Dir, base+"."+stamp)
		if copyErr := copyFile(source, dst); copyErr != nil {
			return fmt.Errorf("back up %s: %w", base, copyErr)
		}
		copied++
	}

	if pruneErr := m.pruneLocked(); pruneErr != nil {
		return fmt.Errorf("prune backups: %w", pruneErr)
	}

	logging.Info().
		Int("files", copied).
		Str("timestamp", stamp).
		Msg("Backup completed")
	return nil
}

// String identifies the manager in supervisor logs.
func (m *Manager) String() string {
	return "backup-manager"
}

// Status reports run counters and the last outcome.
func (m *Manager) Status() Status {
	m.mu.Lock()
	lastRun, lastErr := m.lastRun, m.lastErr
	m.mu.Unlock()

	status := Status{
		Runs:     m.runs.Load(),
		Failures: m.failures.Load(),
		LastRun:  lastRun,
	}
	if lastErr != nil {
		status.LastErr = lastErr.Error()
	}
	return status
}

// pruneLocked keeps the newest Retain copies per source. Timestamped
// names sort lexically by age.
func (m *Manager) pruneLocked() error {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		return err
	}

	for _, source := range m.cfg.Sources {
		prefix := filepath.Base(source) + "."
		var copies []string
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
				copies = append(copies, entry.Name())
			}
		}
		if len(copies) <= m.cfg.Retain {
			continue
		}

		sort.Sort(sort.Reverse(sort.StringSlice(copies)))
		for _, name := range copies[m.cfg.Retain:] {
			if err := os.Remove(filepath.Join(m.cfg.Dir, name)); err != nil {
				return err
			}
			logging.Debug().Str("backup", name).Msg("Pruned old backup")
		}
	}
	return nil
}

// copyFile writes dst via a temp file and rename so a crashed run never
// leaves a half-written backup under the final name.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".backup-*.tmp")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
