// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package stats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/pulselog/internal/models"
)

// setupTracker creates a tracker in a temp directory.
func setupTracker(t *testing.T) *Tracker {
	t.Helper()
	tracker, err := Open(filepath.Join(t.TempDir(), "stats.json"))
	if err != nil {
		t.Fatalf("Failed to open tracker: %v", err)
	}
	return tracker
}

// createTestSession builds a session with the given event mix.
func createTestSession(sessionID, userID string, calculations, shares, others int) *models.Session {
	events := make([]models.Event, 0, calculations+shares+others)
	for i := 0; i < calculations; i++ {
		events = append(events, models.Event{EventName: models.EventCalculationPerformed, ProcessedAt: time.Now().UTC()})
	}
	for i := 0; i < shares; i++ {
		events = append(events, models.Event{EventName: models.EventShareClicked, ProcessedAt: time.Now().UTC()})
	}
	for i := 0; i < others; i++ {
		events = append(events, models.Event{EventName: models.EventAppOpened, ProcessedAt: time.Now().UTC()})
	}
	return &models.Session{
		SessionID:  sessionID,
		UserID:     userID,
		ReceivedAt: time.Now().UTC(),
		Events:     events,
	}
}

// TestTracker_OpenMissingFile tests that a fresh tracker starts at zero
func TestTracker_OpenMissingFile(t *testing.T) {
	tracker := setupTracker(t)

	got := tracker.Read()
	if got.TotalSessions != 0 || got.TotalEvents != 0 || got.TotalCalculations != 0 || got.TotalShares != 0 {
		t.Errorf("Fresh tracker totals = %+v, want zeros", got)
	}
	if got.UniqueUsers.Len() != 0 {
		t.Errorf("Fresh tracker unique users = %d, want 0", got.UniqueUsers.Len())
	}
}

// TestTracker_Update tests that one session lands in every total
func TestTracker_Update(t *testing.T) {
	tracker := setupTracker(t)

	sess := createTestSession("s1", "42", 2, 1, 3)
	if err := tracker.Update(sess); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got := tracker.Read()
	if got.TotalSessions != 1 {
		t.Errorf("TotalSessions = %d, want 1", got.TotalSessions)
	}
	if got.TotalEvents != 6 {
		t.Errorf("TotalEvents = %d, want 6", got.TotalEvents)
	}
	if got.TotalCalculations != 2 {
		t.Errorf("TotalCalculations = %d, want 2", got.TotalCalculations)
	}
	if got.TotalShares != 1 {
		t.Errorf("TotalShares = %d, want 1", got.TotalShares)
	}
	if !got.UniqueUsers.Contains("42") {
		t.Error("UniqueUsers should contain user 42")
	}
}

// TestTracker_ReadReturnsCopy tests that mutating a Read result is isolated
func TestTracker_ReadReturnsCopy(t *testing.T) {
	tracker := setupTracker(t)
	if err := tracker.Update(createTestSession("s1", "u1", 1, 0, 0)); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	snapshot := tracker.Read()
	snapshot.TotalSessions = 999
	snapshot.UniqueUsers.Add("intruder")

	got := tracker.Read()
	if got.TotalSessions != 1 {
		t.Errorf("TotalSessions = %d after mutating a copy, want 1", got.TotalSessions)
	}
	if got.UniqueUsers.Contains("intruder") {
		t.Error("Mutating a Read copy must not leak into the tracker")
	}
}

// TestTracker_PersistAndReload tests snapshot round-trips across restarts
func TestTracker_PersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")

	tracker, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open tracker: %v", err)
	}
	sessions := []*models.Session{
		createTestSession("s1", "alice", 2, 1, 0),
		createTestSession("s2", "bob", 0, 0, 4),
		createTestSession("s3", "alice", 1, 0, 1),
	}
	for _, sess := range sessions {
		if err := tracker.Update(sess); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}
	before := tracker.Read()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen tracker: %v", err)
	}
	after := reopened.Read()

	if before.TotalSessions != after.TotalSessions ||
		before.TotalEvents != after.TotalEvents ||
		before.TotalCalculations != after.TotalCalculations ||
		before.TotalShares != after.TotalShares {
		t.Errorf("Totals changed across reload: before=%+v after=%+v", before, after)
	}
	if !reflect.DeepEqual(before.UniqueUsers.Values(), after.UniqueUsers.Values()) {
		t.Errorf("UniqueUsers changed across reload: before=%v after=%v",
			before.UniqueUsers.Values(), after.UniqueUsers.Values())
	}
}

// TestTracker_SnapshotFormat tests that unique users persist as an ordered array
func TestTracker_SnapshotFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	tracker, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open tracker: %v", err)
	}

	if err := tracker.Update(createTestSession("s1", "zed", 0, 0, 1)); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := tracker.Update(createTestSession("s2", "amy", 0, 0, 1)); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	raw := string(data)
	if !strings.Contains(raw, `"unique_users"`) {
		t.Errorf("Snapshot missing unique_users field: %s", raw)
	}
	// First-seen order, not sorted
	if strings.Index(raw, "zed") > strings.Index(raw, "amy") {
		t.Errorf("UniqueUsers not in first-seen order: %s", raw)
	}

	// Only the snapshot remains; no leftover temp files
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("Failed to list data dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("Leftover temp file: %s", e.Name())
		}
	}
}

// TestTracker_UniqueUsersDedup tests membership-tested inserts
func TestTracker_UniqueUsersDedup(t *testing.T) {
	tracker := setupTracker(t)

	for i := 0; i < 5; i++ {
		if err := tracker.Update(createTestSession(fmt.Sprintf("s%d", i), "same-user", 0, 0, 1)); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}
	// Anonymous sessions never count as a user
	if err := tracker.Update(createTestSession("s-anon", "", 0, 0, 1)); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got := tracker.Read()
	if got.TotalSessions != 6 {
		t.Errorf("TotalSessions = %d, want 6", got.TotalSessions)
	}
	if got.UniqueUsers.Len() != 1 {
		t.Errorf("UniqueUsers = %d, want 1", got.UniqueUsers.Len())
	}
}

// TestTracker_ReplayEquivalence tests incremental updates == rebuild
func TestTracker_ReplayEquivalence(t *testing.T) {
	sessions := []*models.Session{
		createTestSession("s1", "alice", 3, 1, 2),
		createTestSession("s2", "bob", 0, 0, 1),
		createTestSession("s3", "", 1, 1, 0),
		createTestSession("s4", "alice", 2, 0, 5),
		createTestSession("s5", "carol", 0, 2, 0),
	}

	incremental := setupTracker(t)
	for _, sess := range sessions {
		if err := incremental.Update(sess); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	rebuilt := setupTracker(t)
	if err := rebuilt.Rebuild(sessions); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	a, b := incremental.Read(), rebuilt.Read()
	if a.TotalSessions != b.TotalSessions ||
		a.TotalEvents != b.TotalEvents ||
		a.TotalCalculations != b.TotalCalculations ||
		a.TotalShares != b.TotalShares {
		t.Errorf("Replay mismatch: incremental=%+v rebuilt=%+v", a, b)
	}
	if !reflect.DeepEqual(a.UniqueUsers.Values(), b.UniqueUsers.Values()) {
		t.Errorf("UniqueUsers mismatch: incremental=%v rebuilt=%v",
			a.UniqueUsers.Values(), b.UniqueUsers.Values())
	}
}

// TestTracker_RebuildResets tests that rebuild discards previous totals
func TestTracker_RebuildResets(t *testing.T) {
	tracker := setupTracker(t)
	for i := 0; i < 4; i++ {
		if err := tracker.Update(createTestSession(fmt.Sprintf("old-%d", i), "old-user", 1, 1, 1)); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	if err := tracker.Rebuild([]*models.Session{createTestSession("new", "new-user", 1, 0, 0)}); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	got := tracker.Read()
	if got.TotalSessions != 1 {
		t.Errorf("TotalSessions = %d after rebuild, want 1", got.TotalSessions)
	}
	if got.UniqueUsers.Contains("old-user") {
		t.Error("Rebuild must discard previous unique users")
	}

	// Rebuild over nothing zeroes everything
	if err := tracker.Rebuild(nil); err != nil {
		t.Fatalf("Rebuild(nil) failed: %v", err)
	}
	got = tracker.Read()
	if got.TotalSessions != 0 || got.UniqueUsers.Len() != 0 {
		t.Errorf("Rebuild(nil) totals = %+v, want zeros", got)
	}
}

// TestTracker_CorruptSnapshot tests that a corrupt snapshot falls back to zeros
func TestTracker_CorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	if err := os.WriteFile(path, []byte("{torn and invalid"), 0o644); err != nil {
		t.Fatalf("Failed to write corrupt snapshot: %v", err)
	}

	tracker, err := Open(path)
	if err != nil {
		t.Fatalf("Open with corrupt snapshot failed: %v", err)
	}
	got := tracker.Read()
	if got.TotalSessions != 0 || got.UniqueUsers.Len() != 0 {
		t.Errorf("Corrupt snapshot totals = %+v, want zeros", got)
	}
}

// TestTracker_PersistFailureKeepsMemory tests that failed persists do not lose updates
func TestTracker_PersistFailureKeepsMemory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	tracker, err := Open(filepath.Join(dir, "stats.json"))
	if err != nil {
		t.Fatalf("Failed to open tracker: %v", err)
	}

	// Make the snapshot unwritable by removing its directory
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("Failed to remove data dir: %v", err)
	}

	err = tracker.Update(createTestSession("s1", "alice", 1, 0, 0))
	if !errors.Is(err, ErrPersistFailed) {
		t.Fatalf("Expected ErrPersistFailed, got %v", err)
	}

	// The update still counts in memory
	got := tracker.Read()
	if got.TotalSessions != 1 || !got.UniqueUsers.Contains("alice") {
		t.Errorf("In-memory totals lost on persist failure: %+v", got)
	}
	if tracker.Counters().PersistErrors != 1 {
		t.Errorf("PersistErrors = %d, want 1", tracker.Counters().PersistErrors)
	}

	// Once the directory is back, the next update persists the cumulative state
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to restore data dir: %v", err)
	}
	if err := tracker.Update(createTestSession("s2", "bob", 0, 1, 0)); err != nil {
		t.Fatalf("Update after restore failed: %v", err)
	}

	reopened, err := Open(tracker.Path())
	if err != nil {
		t.Fatalf("Failed to reopen tracker: %v", err)
	}
	got = reopened.Read()
	if got.TotalSessions != 2 {
		t.Errorf("Persisted TotalSessions = %d, want 2 (both updates)", got.TotalSessions)
	}
	if !got.UniqueUsers.Contains("alice") || !got.UniqueUsers.Contains("bob") {
		t.Errorf("Persisted UniqueUsers = %v, want both users", got.UniqueUsers.Values())
	}
}

// TestTracker_ConcurrentUpdates tests exact totals under concurrent submitters
func TestTracker_ConcurrentUpdates(t *testing.T) {
	tracker := setupTracker(t)

	const numWorkers = 8
	const updatesPerWorker = 25

	var wg sync.WaitGroup
	errChan := make(chan error, numWorkers*updatesPerWorker)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := 0; j < updatesPerWorker; j++ {
				sess := createTestSession(
					fmt.Sprintf("w%d-s%d", workerID, j),
					fmt.Sprintf("user-%d", workerID),
					1, 0, 1,
				)
				if err := tracker.Update(sess); err != nil {
					errChan <- err
				}
			}
		}(i)
	}

	wg.Wait()
	close(errChan)
	for err := range errChan {
		t.Errorf("Update error: %v", err)
	}

	got := tracker.Read()
	if got.TotalSessions != numWorkers*updatesPerWorker {
		t.Errorf("TotalSessions = %d, want %d", got.TotalSessions, numWorkers*updatesPerWorker)
	}
	if got.TotalEvents != numWorkers*updatesPerWorker*2 {
		t.Errorf("TotalEvents = %d, want %d", got.TotalEvents, numWorkers*updatesPerWorker*2)
	}
	if got.TotalCalculations != numWorkers*updatesPerWorker {
		t.Errorf("TotalCalculations = %d, want %d", got.TotalCalculations, numWorkers*updatesPerWorker)
	}
	if got.UniqueUsers.Len() != numWorkers {
		t.Errorf("UniqueUsers = %d, want %d", got.UniqueUsers.Len(), numWorkers)
	}
}

// TestTracker_UpdateNil tests nil rejection
func TestTracker_UpdateNil(t *testing.T) {
	tracker := setupTracker(t)
	if err := tracker.Update(nil); !errors.Is(err, ErrNilSession) {
		t.Errorf("Expected ErrNilSession, got %v", err)
	}
}
