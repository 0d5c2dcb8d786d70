// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package eventlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/pulselog/internal/models"
)

// setupStore creates a store in a temp directory.
// The caller should defer store.Close().
func setupStore(t *testing.T) *Store {
	t.Helper()
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "events.log"))
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return store
}

// createTestSession builds a session record with one calculation event.
func createTestSession(sessionID, userID string) *models.Session {
	return &models.Session{
		SessionID:  sessionID,
		UserID:     userID,
		ReceivedAt: time.Now().UTC(),
		Events: []models.Event{
			{
				EventName:   models.EventCalculationPerformed,
				Properties:  map[string]any{"price": 250000.0},
				Timestamp:   models.FlexString("2026-08-01T10:00:00Z"),
				ProcessedAt: time.Now().UTC(),
			},
		},
	}
}

// appendSessions appends n sessions with distinguishable IDs.
func appendSessions(ctx context.Context, t *testing.T, store *Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		sess := createTestSession(fmt.Sprintf("session-%03d", i), fmt.Sprintf("user-%d", i%3))
		if err := store.Append(ctx, sess); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}
}

// TestStore_Append tests basic append and read-back
func TestStore_Append(t *testing.T) {
	store := setupStore(t)
	defer store.Close()

	ctx := context.Background()
	sess := createTestSession("session-1", "user-1")

	if err := store.Append(ctx, sess); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(got))
	}
	if got[0].SessionID != "session-1" {
		t.Errorf("SessionID = %q, want session-1", got[0].SessionID)
	}
	if got[0].UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", got[0].UserID)
	}
	if len(got[0].Events) != 1 || got[0].Events[0].EventName != models.EventCalculationPerformed {
		t.Errorf("Events not preserved: %+v", got[0].Events)
	}
}

// TestStore_Append_NilSession tests that nil sessions are rejected
func TestStore_Append_NilSession(t *testing.T) {
	store := setupStore(t)
	defer store.Close()

	err := store.Append(context.Background(), nil)
	if !errors.Is(err, ErrNilSession) {
		t.Errorf("Expected ErrNilSession, got %v", err)
	}
}

// TestStore_Append_TooLarge tests the record size cap
func TestStore_Append_TooLarge(t *testing.T) {
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "events.log"))
	cfg.MaxRecordBytes = 4096
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	sess := createTestSession("big", "user-1")
	sess.UserInfo = map[string]any{"blob": strings.Repeat("x", 8192)}

	err = store.Append(context.Background(), sess)
	if !errors.Is(err, ErrRecordTooLarge) {
		t.Errorf("Expected ErrRecordTooLarge, got %v", err)
	}

	// The oversized record must not reach the log
	got, err := store.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty log, got %d records", len(got))
	}
}

// TestStore_Durability tests that records survive close and reopen
func TestStore_Durability(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	ctx := context.Background()

	store, err := Open(DefaultConfig(path))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	appendSessions(ctx, t, store, 5)
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopen must not truncate
	store2, err := Open(DefaultConfig(path))
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer store2.Close()

	got, err := store2.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("Expected 5 records after reopen, got %d", len(got))
	}

	// Appends after reopen extend the log
	if err := store2.Append(ctx, createTestSession("session-new", "user-9")); err != nil {
		t.Fatalf("Append after reopen failed: %v", err)
	}
	got, err = store2.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 6 {
		t.Errorf("Expected 6 records, got %d", len(got))
	}
	if got[5].SessionID != "session-new" {
		t.Errorf("Last record = %q, want session-new", got[5].SessionID)
	}
}

// TestStore_Append_Concurrent tests that concurrent appends never interleave
func TestStore_Append_Concurrent(t *testing.T) {
	store := setupStore(t)
	defer store.Close()

	ctx := context.Background()
	const numWriters = 10
	const writesPerWorker = 50

	var wg sync.WaitGroup
	errChan := make(chan error, numWriters*writesPerWorker)

	for i := 0; i < numWriters; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := 0; j < writesPerWorker; j++ {
				sess := createTestSession(
					fmt.Sprintf("w%d-s%d", workerID, j),
					fmt.Sprintf("user-%d", workerID),
				)
				if err := store.Append(ctx, sess); err != nil {
					errChan <- err
				}
			}
		}(i)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		t.Errorf("Append error: %v", err)
	}

	got, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != numWriters*writesPerWorker {
		t.Fatalf("Expected %d records, got %d", numWriters*writesPerWorker, len(got))
	}

	// Every record must decode to exactly one of the written payloads
	seen := make(map[string]bool, len(got))
	for _, sess := range got {
		if seen[sess.SessionID] {
			t.Errorf("Duplicate record: %s", sess.SessionID)
		}
		seen[sess.SessionID] = true
	}
	for i := 0; i < numWriters; i++ {
		for j := 0; j < writesPerWorker; j++ {
			id := fmt.Sprintf("w%d-s%d", i, j)
			if !seen[id] {
				t.Errorf("Missing record: %s", id)
			}
		}
	}

	if skips := store.Stats().DecodeSkips; skips != 0 {
		t.Errorf("Expected 0 decode skips after concurrent appends, got %d", skips)
	}
}

// TestStore_ReadAll_Empty tests reading a fresh log
func TestStore_ReadAll_Empty(t *testing.T) {
	store := setupStore(t)
	defer store.Close()

	got, err := store.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty log, got %d records", len(got))
	}
}

// TestStore_ReadAll_SkipsMalformed tests that corrupt lines are skipped, not fatal
func TestStore_ReadAll_SkipsMalformed(t *testing.T) {
	store := setupStore(t)
	defer store.Close()

	ctx := context.Background()
	if err := store.Append(ctx, createTestSession("good-1", "user-1")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Inject corruption the way a crashed writer or disk error would
	f, err := os.OpenFile(store.Path(), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("Failed to open log for corruption: %v", err)
	}
	if _, err := f.WriteString("not json at all\n{\"session_id\": \"torn\n"); err != nil {
		t.Fatalf("Failed to write corruption: %v", err)
	}
	f.Close()

	if err := store.Append(ctx, createTestSession("good-2", "user-2")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 good records, got %d", len(got))
	}
	if got[0].SessionID != "good-1" || got[1].SessionID != "good-2" {
		t.Errorf("Wrong records survived: %s, %s", got[0].SessionID, got[1].SessionID)
	}

	if skips := store.Stats().DecodeSkips; skips != 2 {
		t.Errorf("Expected 2 decode skips, got %d", skips)
	}
}

// TestStore_ReadAll_TornTrailingWrite tests recovery from a torn final record
func TestStore_ReadAll_TornTrailingWrite(t *testing.T) {
	store := setupStore(t)
	defer store.Close()

	ctx := context.Background()
	appendSessions(ctx, t, store, 3)

	// A crash mid-write leaves a partial record with no newline
	f, err := os.OpenFile(store.Path(), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("Failed to open log: %v", err)
	}
	if _, err := f.WriteString(`{"session_id":"partial","user_id":"u`); err != nil {
		t.Fatalf("Failed to write partial record: %v", err)
	}
	f.Close()

	got, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(got))
	}
	if skips := store.Stats().DecodeSkips; skips != 1 {
		t.Errorf("Expected 1 decode skip for the torn record, got %d", skips)
	}
}

// TestStore_ReadLast tests tail reads at and past the log boundaries
func TestStore_ReadLast(t *testing.T) {
	store := setupStore(t)
	defer store.Close()

	ctx := context.Background()
	appendSessions(ctx, t, store, 10)

	tests := []struct {
		name      string
		n         int
		wantCount int
		wantFirst string
	}{
		{"last 3 of 10", 3, 3, "session-007"},
		{"more than available", 100, 10, "session-000"},
		{"exactly available", 10, 10, "session-000"},
		{"zero", 0, 0, ""},
		{"negative", -5, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ReadLast(ctx, tt.n)
			if err != nil {
				t.Fatalf("ReadLast(%d) failed: %v", tt.n, err)
			}
			if len(got) != tt.wantCount {
				t.Fatalf("ReadLast(%d) returned %d records, want %d", tt.n, len(got), tt.wantCount)
			}
			if tt.wantCount > 0 && got[0].SessionID != tt.wantFirst {
				t.Errorf("First record = %q, want %q", got[0].SessionID, tt.wantFirst)
			}
		})
	}
}

// TestStore_Close tests closed-store behavior
func TestStore_Close(t *testing.T) {
	store := setupStore(t)

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Double close is a no-op
	if err := store.Close(); err != nil {
		t.Errorf("Second Close returned %v, want nil", err)
	}

	err := store.Append(context.Background(), createTestSession("s", "u"))
	if !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Expected ErrStoreClosed, got %v", err)
	}

	// Reads still work after close
	if _, err := store.ReadAll(context.Background()); err != nil {
		t.Errorf("ReadAll after close failed: %v", err)
	}
}

// TestStore_Stats tests counter reporting
func TestStore_Stats(t *testing.T) {
	store := setupStore(t)
	defer store.Close()

	ctx := context.Background()
	appendSessions(ctx, t, store, 4)
	if _, err := store.ReadAll(ctx); err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	stats := store.Stats()
	if stats.TotalAppends != 4 {
		t.Errorf("TotalAppends = %d, want 4", stats.TotalAppends)
	}
	if stats.AppendErrors != 0 {
		t.Errorf("AppendErrors = %d, want 0", stats.AppendErrors)
	}
	if stats.LastScanRecords != 4 {
		t.Errorf("LastScanRecords = %d, want 4", stats.LastScanRecords)
	}
	if stats.SizeBytes == 0 {
		t.Error("SizeBytes should be non-zero after appends")
	}
	if stats.Path != store.Path() {
		t.Errorf("Path = %q, want %q", stats.Path, store.Path())
	}
}

// TestStore_ContextCancelled tests that a cancelled context aborts operations
func TestStore_ContextCancelled(t *testing.T) {
	store := setupStore(t)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Append(ctx, createTestSession("s", "u")); !errors.Is(err, context.Canceled) {
		t.Errorf("Append with cancelled context = %v, want context.Canceled", err)
	}
	if _, err := store.ReadAll(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ReadAll with cancelled context = %v, want context.Canceled", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", DefaultConfig("/tmp/events.log"), false},
		{"empty path", Config{Path: "", MaxRecordBytes: 1 << 20}, true},
		{"tiny record cap", Config{Path: "/tmp/events.log", MaxRecordBytes: 100}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
