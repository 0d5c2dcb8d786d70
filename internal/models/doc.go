// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

/*
Package models defines data structures for the Pulselog application.

This package contains all data models used throughout the application: the
persisted session/event records, the aggregate statistics object, analytics
result types, and API request/response structures. It serves as the single
source of truth for data structure definitions.

Key Components:

  - Session: One client-submitted batch of events, the unit persisted to the
    event log (one JSON line per Session)
  - Event: One user-observable action inside a Session
  - AggregateStats: Denormalized running totals mirrored from the log
  - UserSet: Ordered, deduplicated set of user identifiers with a stable
    JSON array serialization
  - APIResponse: Standardized API response wrapper

Model Categories:

 1. Persisted Models:
    - Session, Event: event log records
    - AggregateStats, UserSet: stats file contents

 2. API Request/Response Models:
    - SubmitRequest, EventInput: inbound batch submission
    - APIResponse, APIError, Metadata: standard response wrapper
    - StatsSummary, FlatEvent, HealthStatus: endpoint payloads

 3. Analytics Result Models:
    - NumericAggregate, Funnel, UserRollup, TimeRange, UserActivity
    - Dashboard, Overview: composite query results

Identifier Normalization:

Clients transmit user identifiers as either JSON strings or JSON numbers.
The FlexString type accepts both at the decoding boundary and stores a single
canonical text form ("42", 42 and 42.0 all decode to "42"), so every
downstream consumer compares identifiers with plain string equality.

Thread Safety:

All models are data structures only: no internal mutexes, safe for concurrent
reads after construction. UserSet mutation (Add) is not synchronized; owners
guard it with their own locks.

JSON Marshaling:

All models serialize with goccy/go-json using snake_case struct tags.
time.Time fields use RFC3339. UserSet marshals as an ordered JSON array and
drops duplicates when unmarshaling.

See Also:

  - internal/eventlog: appends and scans Session records
  - internal/stats: maintains and persists AggregateStats
  - internal/report: produces the analytics result models
*/
package models
