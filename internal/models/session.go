// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package models

import (
	"time"
)

// Well-known event names. The vocabulary is open ended; these are the names
// the stats tracker and the built-in dashboard aggregate on.
const (
	EventCalculationPerformed = "calculation_performed"
	EventShareClicked         = "share_clicked"
	EventAppOpened            = "app_opened"
	EventSliderChanged        = "slider_changed"
)

// Properties the built-in dashboard aggregates over calculation events.
const (
	PropertyPrice = "price"
	PropertyRate  = "rate"
)

// Event represents one user-observable action reported by a client.
//
// Fields:
//   - EventName: identifier from an open-ended vocabulary ("app_opened",
//     "calculation_performed", ...); never empty in a persisted event
//   - Properties: free-form scalar payload, semantics depend on EventName
//   - Timestamp: client-supplied time of occurrence, kept as submitted
//     (string or number, normalized to text); never trusted for server-side
//     ordering
//   - ProcessedAt: server-assigned ingestion time (UTC, RFC3339)
type Event struct {
	EventName   string         `json:"event_name"`
	Properties  map[string]any `json:"properties,omitempty"`
	Timestamp   FlexString     `json:"timestamp,omitempty"`
	ProcessedAt time.Time      `json:"processed_at"`
}

// Session represents one client-reported batch submission: the unit appended
// to the event log as a single serialized line. A Session is a batch
// boundary, not a login session; it may map many-to-one or one-to-many
// against real user visits.
//
// Fields:
//   - SessionID: opaque client identifier, not guaranteed globally unique
//     across client restarts
//   - UserID: canonical string identifier; empty means anonymous
//   - UserInfo: free-form client/device context
//   - ReceivedAt: server-assigned acceptance time (UTC, RFC3339)
//   - Events: client submission order, preserved, never reordered
type Session struct {
	SessionID  string         `json:"session_id"`
	UserID     string         `json:"user_id,omitempty"`
	UserInfo   map[string]any `json:"user_info,omitempty"`
	ReceivedAt time.Time      `json:"received_at"`
	Events     []Event        `json:"events"`
}

// EventCount returns the number of events in the session.
func (s *Session) EventCount() int {
	return len(s.Events)
}

// CountByName returns how many events in the session carry the given name.
func (s *Session) CountByName(name string) int {
	n := 0
	for i := range s.Events {
		if s.Events[i].EventName == name {
			n++
		}
	}
	return n
}
