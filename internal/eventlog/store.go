// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package eventlog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pulselog/internal/logging"
	"github.com/tomtom215/pulselog/internal/metrics"
	"github.com/tomtom215/pulselog/internal/models"
)

// Store is the append-only session record store backed by a single
// line-delimited log file.
//
// Appends are serialized by a mutex and written with one write call per
// record, so records from concurrent appenders never interleave. Reads open
// their own file handle and tolerate a torn trailing record.
type Store struct {
	config Config
	file   *os.File

	// Statistics
	totalAppends    atomic.Int64
	appendErrors    atomic.Int64
	decodeSkips     atomic.Int64
	lastScanRecords atomic.Int64

	// State tracking
	mu     sync.Mutex
	closed bool
}

// Stats contains store counters for monitoring.
type Stats struct {
	// Path is the event log file path.
	Path string

	// SizeBytes is the current log file size.
	SizeBytes int64

	// TotalAppends is the number of successful Append operations since open.
	TotalAppends int64

	// AppendErrors is the number of failed Append operations since open.
	AppendErrors int64

	// DecodeSkips is the number of malformed lines skipped by reads since open.
	DecodeSkips int64

	// LastScanRecords is the record count observed by the most recent full read.
	LastScanRecords int64
}

// Open creates a Store for the configured log file.
// The parent directory and the file are created if missing; an existing file
// is opened for append and never truncated.
func Open(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event log config: %w", err)
	}

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	s := &Store{
		config: cfg,
		file:   f,
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Event log opened")
	return s, nil
}

// Append persists one session record to the log.
// The record is serialized to a single line and written with one write call
// including the trailing newline. With SyncWrites the write is fsynced before
// Append returns; a successful return means the record is on disk.
func (s *Store) Append(ctx context.Context, session *models.Session) error {
	start := time.Now()
	var n int
	var err error
	defer func() {
		metrics.RecordAppend(time.Since(start), n, err)
	}()

	if session == nil {
		err = ErrNilSession
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
		return err
	}

	payload, merr := json.Marshal(session)
	if merr != nil {
		err = fmt.Errorf("marshal session: %w", merr)
		s.appendErrors.Add(1)
		return err
	}
	if len(payload)+1 > s.config.MaxRecordBytes {
		err = fmt.Errorf("%w: %d bytes (max %d)", ErrRecordTooLarge, len(payload)+1, s.config.MaxRecordBytes)
		s.appendErrors.Add(1)
		return err
	}

	line := make([]byte, 0, len(payload)+1)
	line = append(line, payload...)
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		err = ErrStoreClosed
		return err
	}

	if n, err = s.file.Write(line); err != nil {
		s.appendErrors.Add(1)
		return fmt.Errorf("append record: %w", err)
	}
	if s.config.SyncWrites {
		if err = s.file.Sync(); err != nil {
			s.appendErrors.Add(1)
			return fmt.Errorf("sync event log: %w", err)
		}
	}

	s.totalAppends.Add(1)
	return nil
}

// ReadAll returns every decodable session record in append order.
// Malformed lines (torn writes, external corruption) are skipped and counted,
// never returned as errors. A missing log file reads as empty.
func (s *Store) ReadAll(ctx context.Context) ([]*models.Session, error) {
	start := time.Now()
	defer func() {
		metrics.RecordScan(time.Since(start))
	}()

	f, err := os.Open(s.config.Path)
	if err != nil {
		if os.IsNotExist(err) {
			s.lastScanRecords.Store(0)
			return []*models.Session{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	defer f.Close()

	sessions := make([]*models.Session, 0, 64)
	reader := bufio.NewReaderSize(f, 64*1024)
	lineNo := 0

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		line, rerr := reader.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if sess, ok := s.decodeLine(line, lineNo); ok {
				sessions = append(sessions, sess)
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrReadFailed, rerr)
		}
	}

	s.lastScanRecords.Store(int64(len(sessions)))
	return sessions, nil
}

// ReadLast returns the last n decodable records in append order.
// n larger than the log returns everything; n <= 0 returns an empty slice.
func (s *Store) ReadLast(ctx context.Context, n int) ([]*models.Session, error) {
	if n <= 0 {
		return []*models.Session{}, nil
	}

	sessions, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(sessions) > n {
		sessions = sessions[len(sessions)-n:]
	}
	return sessions, nil
}

// decodeLine decodes one log line into a session record.
// Returns false for blank lines and undecodable records.
func (s *Store) decodeLine(line []byte, lineNo int) (*models.Session, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, false
	}

	var sess models.Session
	if err := json.Unmarshal(line, &sess); err != nil {
		s.decodeSkips.Add(1)
		metrics.RecordDecodeSkip()
		logging.Warn().
			Err(err).
			Int("line", lineNo).
			Int("bytes", len(line)).
			Msg("Skipping malformed event log record")
		return nil, false
	}
	return &sess, true
}

// Stats returns store counters and the current file size.
func (s *Store) Stats() Stats {
	stats := Stats{
		Path:            s.config.Path,
		TotalAppends:    s.totalAppends.Load(),
		AppendErrors:    s.appendErrors.Load(),
		DecodeSkips:     s.decodeSkips.Load(),
		LastScanRecords: s.lastScanRecords.Load(),
	}

	if fi, err := os.Stat(s.config.Path); err == nil {
		stats.SizeBytes = fi.Size()
	}

	return stats
}

// Path returns the event log file path.
func (s *Store) Path() string {
	return s.config.Path
}

// Close flushes and closes the log file. Further appends fail with
// ErrStoreClosed; reads keep working since they use their own handles.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.config.SyncWrites {
		if err := s.file.Sync(); err != nil {
			s.file.Close()
			return fmt.Errorf("sync event log: %w", err)
		}
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close event log: %w", err)
	}

	logging.Info().Str("path", s.config.Path).Msg("Event log closed")
	return nil
}

// Errors
var (
	// ErrStoreClosed is returned when appending to a closed store.
	ErrStoreClosed = fmt.Errorf("event log is closed")

	// ErrNilSession is returned when a nil session is passed to Append.
	ErrNilSession = fmt.Errorf("session cannot be nil")

	// ErrRecordTooLarge is returned when a record exceeds MaxRecordBytes.
	ErrRecordTooLarge = fmt.Errorf("record exceeds size limit")

	// ErrReadFailed is returned when the log file cannot be read.
	ErrReadFailed = fmt.Errorf("event log read failed")
)
