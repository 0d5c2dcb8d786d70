// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

// Package metrics provides Prometheus instrumentation for Pulselog.
//
// All collectors are registered with promauto at package load and exposed
// through the /metrics endpoint. Callers use the Record* helpers rather than
// touching collectors directly, so label conventions stay in one place:
//
//	start := time.Now()
//	err := store.Append(ctx, session)
//	metrics.RecordAppend(time.Since(start), len(line), err)
//
// Gauges that mirror on-disk state (eventlog_records, eventlog_size_bytes)
// are refreshed by the supervised sampler service rather than on every
// operation.
package metrics
