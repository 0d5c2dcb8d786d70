// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package models

import (
	"time"

	json "github.com/goccy/go-json"
)

// APIResponse represents a standardized API response wrapper used by all HTTP
// endpoints. It provides consistent structure for both successful and error
// responses, with metadata for observability.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"events_received": 3},
//	  "metadata": {
//	    "timestamp": "2026-08-25T12:00:00Z",
//	    "query_time_ms": 2
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "invalid events data"
//	  },
//	  "metadata": {"timestamp": "2026-08-25T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability and performance
// tracking.
//
// Fields:
//   - Timestamp: Server time when the response was generated (RFC3339)
//   - QueryTimeMS: Scan/derivation execution time in milliseconds
//   - Cached: Whether the response was served from cache (omitted if false)
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: invalid input (malformed body, bad parameters)
//   - STORAGE_ERROR: event log unreachable at append or scan time
//   - NOT_FOUND: unknown route or resource
//   - RATE_LIMIT_EXCEEDED: too many requests
//   - INTERNAL_ERROR: unexpected failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SubmitRequest is the inbound batch submission payload. Events stays raw
// until the ingestion pipeline checks that the field is present and is a
// JSON sequence; a missing or non-sequence events field rejects the whole
// batch.
type SubmitRequest struct {
	SessionID string          `json:"session_id" validate:"required,min=1,max=256"`
	UserID    FlexString      `json:"user_id,omitempty"`
	UserInfo  map[string]any  `json:"user_info,omitempty"`
	Events    json.RawMessage `json:"events,omitempty"`
}

// EventInput is one decoded element of a submitted events sequence.
type EventInput struct {
	EventName  string         `json:"event_name" validate:"required,min=1,max=128"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  FlexString     `json:"timestamp,omitempty"`
}

// SubmitResult acknowledges an accepted batch.
type SubmitResult struct {
	SessionID      string `json:"session_id"`
	EventsReceived int    `json:"events_received"`
}

// StatsSummary is the stats endpoint payload: the tracker totals with
// unique_users surfaced as its cardinality. The underlying set and this
// count derive from the same stored UserSet, never from an independently
// maintained counter.
type StatsSummary struct {
	TotalSessions     int `json:"total_sessions"`
	TotalEvents       int `json:"total_events"`
	TotalCalculations int `json:"total_calculations"`
	TotalShares       int `json:"total_shares"`
	UniqueUsers       int `json:"unique_users"`
}

// Summary derives the endpoint payload from a stats snapshot.
func (a AggregateStats) Summary() StatsSummary {
	return StatsSummary{
		TotalSessions:     a.TotalSessions,
		TotalEvents:       a.TotalEvents,
		TotalCalculations: a.TotalCalculations,
		TotalShares:       a.TotalShares,
		UniqueUsers:       a.UniqueUsers.Len(),
	}
}

// FlatEvent is one event of a recent-events query, flattened with the
// context of the session that carried it.
type FlatEvent struct {
	SessionID   string         `json:"session_id"`
	UserID      string         `json:"user_id,omitempty"`
	EventName   string         `json:"event_name"`
	Properties  map[string]any `json:"properties,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
	ProcessedAt time.Time      `json:"processed_at"`
	ReceivedAt  time.Time      `json:"received_at"`
}

// RecentEvents is the recent-events endpoint payload.
type RecentEvents struct {
	Events   []FlatEvent `json:"events"`
	Sessions int         `json:"sessions"`
	Limit    int         `json:"limit"`
}

// HealthStatus represents the health check response. Liveness requires no
// core interaction; the store fields describe construction state only.
type HealthStatus struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	StoreReady    bool    `json:"store_ready"`
	TrackerReady  bool    `json:"tracker_ready"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}
