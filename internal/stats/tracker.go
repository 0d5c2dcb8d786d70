// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

// Package stats maintains the aggregate stats snapshot.
//
// The tracker keeps running totals (sessions, events, calculations, shares,
// unique users) in memory and persists them to a JSON snapshot file after
// every update. The snapshot is derived state: it exists so the totals
// survive restarts without replaying the event log, and it can always be
// rebuilt from the log when it drifts or is lost.
//
// Persistence rewrites the snapshot wholesale through a temp file and an
// atomic rename, so a crash mid-write leaves either the old snapshot or the
// new one, never a torn file.
package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pulselog/internal/logging"
	"github.com/tomtom215/pulselog/internal/metrics"
	"github.com/tomtom215/pulselog/internal/models"
)

// Tracker owns the aggregate stats for one deployment.
//
// A single mutex serializes the whole read-modify-write-persist cycle. Update
// volume is one call per accepted batch, so contention is not a concern and
// the simple lock keeps the in-memory totals and the snapshot from diverging
// under concurrent submitters.
type Tracker struct {
	path string

	mu      sync.Mutex
	current *models.AggregateStats

	// Statistics
	totalUpdates  atomic.Int64
	persistErrors atomic.Int64
}

// Open creates a tracker backed by the snapshot file at path.
// An existing snapshot is loaded; a missing one starts the totals at zero.
// An unreadable snapshot is logged and replaced by zeros rather than failing
// startup, since the totals can be restored with a rebuild.
func Open(path string) (*Tracker, error) {
	if path == "" {
		return nil, fmt.Errorf("stats snapshot path is required")
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	t := &Tracker{
		path:    path,
		current: &models.AggregateStats{},
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run: totals start at zero
	case err != nil:
		return nil, fmt.Errorf("read stats snapshot: %w", err)
	default:
		var loaded models.AggregateStats
		if jerr := json.Unmarshal(data, &loaded); jerr != nil {
			logging.Warn().
				Err(jerr).
				Str("path", path).
				Msg("Stats snapshot unreadable, starting from zeros (run rebuild-stats to restore)")
		} else {
			t.current = &loaded
		}
	}

	logging.Info().
		Str("path", path).
		Int("sessions", t.current.TotalSessions).
		Int("unique_users", t.current.UniqueUsers.Len()).
		Msg("Stats tracker opened")
	return t, nil
}

// Update applies one accepted session to the totals and persists the snapshot.
//
// On persist failure the in-memory totals KEEP the update and the error is
// returned; callers are expected to absorb it, since the snapshot will catch
// up on the next successful persist and can always be rebuilt from the log.
func (t *Tracker) Update(session *models.Session) error {
	if session == nil {
		return ErrNilSession
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.apply(session)
	t.totalUpdates.Add(1)

	err := t.persistLocked()
	metrics.RecordStatsUpdate(t.current.UniqueUsers.Len(), err)
	if err != nil {
		t.persistErrors.Add(1)
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	return nil
}

// apply folds one session into the running totals. Caller holds the mutex.
func (t *Tracker) apply(session *models.Session) {
	t.current.TotalSessions++
	t.current.TotalEvents += len(session.Events)
	t.current.TotalCalculations += session.CountByName(models.EventCalculationPerformed)
	t.current.TotalShares += session.CountByName(models.EventShareClicked)
	t.current.UniqueUsers.Add(session.UserID)
}

// Read returns a deep copy of the current totals.
func (t *Tracker) Read() models.AggregateStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current.Clone()
}

// Rebuild replaces the totals with ones derived from the given sessions
// (normally a full event log read) and persists once at the end.
// The result is identical to having applied every session incrementally.
func (t *Tracker) Rebuild(sessions []*models.Session) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = &models.AggregateStats{}
	for _, session := range sessions {
		if session == nil {
			continue
		}
		t.apply(session)
	}

	metrics.StatsRebuilds.Inc()
	metrics.StatsUniqueUsers.Set(float64(t.current.UniqueUsers.Len()))

	if err := t.persistLocked(); err != nil {
		t.persistErrors.Add(1)
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	logging.Info().
		Int("sessions", t.current.TotalSessions).
		Int("events", t.current.TotalEvents).
		Int("unique_users", t.current.UniqueUsers.Len()).
		Msg("Stats rebuilt from event log")
	return nil
}

// persistLocked rewrites the snapshot wholesale via temp file + rename.
// Caller holds the mutex.
func (t *Tracker) persistLocked() error {
	data, err := json.MarshalIndent(t.current, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(t.path)
	tmp, err := os.CreateTemp(dir, ".stats-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), t.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Counters contains tracker counters for monitoring.
type Counters struct {
	// TotalUpdates is the number of Update calls since open.
	TotalUpdates int64

	// PersistErrors is the number of failed snapshot writes since open.
	PersistErrors int64
}

// Counters returns tracker counters.
func (t *Tracker) Counters() Counters {
	return Counters{
		TotalUpdates:  t.totalUpdates.Load(),
		PersistErrors: t.persistErrors.Load(),
	}
}

// Path returns the snapshot file path.
func (t *Tracker) Path() string {
	return t.path
}

// Errors
var (
	// ErrNilSession is returned when a nil session is passed to Update.
	ErrNilSession = fmt.Errorf("session cannot be nil")

	// ErrPersistFailed is returned when the snapshot cannot be written.
	// The in-memory totals still include the update.
	ErrPersistFailed = fmt.Errorf("stats snapshot persist failed")
)
