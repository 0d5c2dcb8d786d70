// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package models

import (
	"fmt"
	"time"
)

// NumericAggregate summarizes one numeric property across the events that
// actually carry it as a finite number. Events missing the property, or
// carrying a non-numeric or non-finite value, are excluded from the sample
// rather than treated as zero. A zero Count means no event qualified and the
// Mean/Min/Max fields are meaningless.
type NumericAggregate struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Funnel is the ratio of two event counts expressed as a percentage, rounded
// to one decimal place. Computed is false when the denominator count is zero;
// Rate is then zero and must not be displayed as a number.
type Funnel struct {
	Numerator        string  `json:"numerator"`
	Denominator      string  `json:"denominator"`
	NumeratorCount   int     `json:"numerator_count"`
	DenominatorCount int     `json:"denominator_count"`
	Rate             float64 `json:"rate"`
	Computed         bool    `json:"computed"`
}

// Display formats the funnel for human-readable output.
func (f Funnel) Display() string {
	if !f.Computed {
		return "not computed"
	}
	return fmt.Sprintf("%.1f%%", f.Rate)
}

// UserRollup aggregates every session recorded for one user identifier.
// Sessions are in log append order.
type UserRollup struct {
	UserID       string     `json:"user_id"`
	SessionCount int        `json:"session_count"`
	EventCount   int        `json:"event_count"`
	Sessions     []*Session `json:"sessions"`
}

// TimeRange describes the span of client event timestamps across the scanned
// log. Earliest and Latest are nil when no event carried a parseable
// timestamp. Days is the ceiling of the span in whole days; Samples is the
// number of events whose timestamp parsed.
type TimeRange struct {
	Earliest *time.Time `json:"earliest,omitempty"`
	Latest   *time.Time `json:"latest,omitempty"`
	Days     int        `json:"days"`
	Samples  int        `json:"samples"`
}

// UserActivity is one row of the top-users ranking.
type UserActivity struct {
	UserID       string `json:"user_id"`
	EventCount   int    `json:"event_count"`
	SessionCount int    `json:"session_count"`
}

// Dashboard is the composite payload behind the dashboard endpoint: per-type
// event counts, numeric aggregates over the calculation event's price and
// rate properties, the distinct user count observed in the scan, and the
// generation timestamp.
type Dashboard struct {
	EventCounts  map[string]int              `json:"event_counts"`
	Calculations map[string]NumericAggregate `json:"calculations"`
	UniqueUsers  int                         `json:"unique_users"`
	GeneratedAt  time.Time                   `json:"generated_at"`
}

// Overview is the full analytical snapshot the operator report renders:
// totals, per-type counts, the conversion funnel, calculation aggregates,
// time range and the top-users ranking, all derived from one log scan.
type Overview struct {
	GeneratedAt               time.Time                   `json:"generated_at"`
	TotalSessions             int                         `json:"total_sessions"`
	TotalEvents               int                         `json:"total_events"`
	UniqueUsers               int                         `json:"unique_users"`
	EventCounts               map[string]int              `json:"event_counts"`
	Conversion                Funnel                      `json:"conversion"`
	Calculations              map[string]NumericAggregate `json:"calculations"`
	AvgCalculationsPerSession float64                     `json:"avg_calculations_per_session"`
	Shares                    int                         `json:"shares"`
	TimeRange                 TimeRange                   `json:"time_range"`
	TopUsers                  []UserActivity              `json:"top_users"`
}
