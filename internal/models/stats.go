// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package models

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// AggregateStats holds the denormalized running totals mirrored from the
// event log: a fast-path cache, never the source of truth. Every field is
// reproducible by replaying the log from empty, and the sum of event counts
// across all persisted records always equals TotalEvents.
//
// Lifecycle: created at first initialization with zero values, mutated
// exactly once per accepted batch, never deleted, persisted wholesale to the
// stats file after each update.
type AggregateStats struct {
	TotalSessions     int     `json:"total_sessions"`
	TotalEvents       int     `json:"total_events"`
	TotalCalculations int     `json:"total_calculations"`
	TotalShares       int     `json:"total_shares"`
	UniqueUsers       UserSet `json:"unique_users"`
}

// Clone returns a deep copy safe to hand out while the original keeps
// mutating under its owner's lock.
func (a AggregateStats) Clone() AggregateStats {
	out := a
	out.UniqueUsers = a.UniqueUsers.Clone()
	return out
}

// UserSet is an insertion-ordered set of user identifiers. It keeps a
// membership index alongside the ordered slice so inserts are membership
// tested in O(1), and it serializes as a plain ordered JSON array so the
// stats file stays readable and stable across reloads. Duplicates found in
// a stored array are dropped on load.
//
// The zero value is an empty, usable set. Mutation is not synchronized;
// the owning tracker guards Add with its own lock.
type UserSet struct {
	ids   []string
	index map[string]struct{}
}

// NewUserSet builds a set from the given identifiers, preserving first
// occurrence order and dropping duplicates.
func NewUserSet(ids ...string) UserSet {
	var s UserSet
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id and reports whether it was not already a member. Empty
// identifiers are never members.
func (s *UserSet) Add(id string) bool {
	if id == "" {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// Contains reports membership.
func (s *UserSet) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the cardinality.
func (s *UserSet) Len() int {
	return len(s.ids)
}

// Values returns the members in insertion order as a copy.
func (s *UserSet) Values() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Clone returns an independent copy.
func (s UserSet) Clone() UserSet {
	var out UserSet
	for _, id := range s.ids {
		out.Add(id)
	}
	return out
}

// MarshalJSON serializes the set as an ordered array; an empty set is [].
func (s UserSet) MarshalJSON() ([]byte, error) {
	if s.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.ids)
}

// UnmarshalJSON rebuilds the set from a stored array, membership testing
// each element so duplicates written by older versions cannot reenter.
func (s *UserSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("decode user set: %w", err)
	}
	*s = UserSet{}
	for _, id := range ids {
		s.Add(id)
	}
	return nil
}
