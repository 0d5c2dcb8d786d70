// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

// Package eventlog provides the append-only session record store.
//
// Every accepted batch is persisted as one serialized Session on one line of
// a line-delimited log file. The log is the source of truth for all reporting;
// derived state (the stats snapshot) can always be rebuilt from it.
//
// # Architecture
//
// The store sits between ingestion and reporting:
//
//	Batch → Append (single write, optional fsync) → events.log
//	Report queries → ReadAll/ReadLast (separate read handle, skip malformed)
//
// # Durability
//
// Appends are serialized by a mutex and issued as a single write call that
// includes the trailing newline, so concurrent appends never interleave
// records. With SyncWrites enabled each append is fsynced before returning.
// The log file is created if missing and never truncated.
//
// # Corruption Handling
//
// Reads decode line by line. A line that fails to decode (typically a torn
// trailing write from a crash) is skipped and counted, never surfaced as a
// read error. Records after a bad line are still returned.
//
// # Usage
//
//	store, err := eventlog.Open(eventlog.Config{Path: "/data/events.log"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	if err := store.Append(ctx, session); err != nil {
//	    return err
//	}
//
//	sessions, err := store.ReadAll(ctx)
//
// # Metrics
//
// Prometheus metrics are exported for monitoring:
//
//	eventlog_append_duration_seconds  # Append latency (count doubles as append total)
//	eventlog_append_errors_total      # Failed appends
//	eventlog_bytes_written_total      # Bytes appended
//	eventlog_decode_skips_total       # Malformed lines skipped on read
//	eventlog_scan_duration_seconds    # Full-log scan latency
//
// # Thread Safety
//
// All store operations are safe for concurrent use. Appends are serialized;
// reads use independent file handles and can run alongside appends.
package eventlog
