// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

// Package report derives analytics from the event log.
//
// The engine reads the log alone. The aggregate stats snapshot is a
// fast-path cache for the stats endpoint and is never consulted here, so
// every answer reflects exactly what the log contains, including records
// written while the snapshot was failing.
//
// # Derivations
//
//   - Per-type event counts
//   - Mean/min/max over a named numeric event property
//   - Conversion funnel between two event types
//   - Per-user session rollups
//   - Time range of client event timestamps
//   - Top users by event volume
//
// Dashboard and Overview compose these from a single log scan. All
// derivations tolerate an empty log and return zero values, never an
// error, for absent data.
//
// # Rendering
//
// RenderText formats an Overview as the operator report: counts with bar
// visualizations, the funnel, numeric aggregates, the time range, top
// users, and any recommendation lines the caller supplies.
package report
