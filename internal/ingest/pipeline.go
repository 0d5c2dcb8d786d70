// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

// Package ingest accepts client event batches, validates them, enriches
// them with server-side timestamps, and commits them to storage.
//
// # Commit Order
//
// A batch is committed in two steps: the session is appended to the event
// log first, then the aggregate stats are updated. The log is the source
// of truth, so an append failure aborts the whole submission, while a
// stats failure after a successful append is absorbed: the submission
// still succeeds and the snapshot can be restored later with a rebuild.
//
// # Validation
//
// Rejection is batch-atomic. If the request shape is wrong, the events
// field is missing or not a sequence, or any single event fails
// validation, nothing is persisted and a *ValidationError is returned.
// An empty events sequence is valid and records a session with zero
// events.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pulselog/internal/eventlog"
	"github.com/tomtom215/pulselog/internal/logging"
	"github.com/tomtom215/pulselog/internal/metrics"
	"github.com/tomtom215/pulselog/internal/models"
	"github.com/tomtom215/pulselog/internal/stats"
	"github.com/tomtom215/pulselog/internal/validation"
)

// Pipeline validates and commits submitted event batches.
type Pipeline struct {
	store   *eventlog.Store
	tracker *stats.Tracker
	now     func() time.Time
}

// New creates a Pipeline writing to the given store and tracker.
func New(store *eventlog.Store, tracker *stats.Tracker) *Pipeline {
	return &Pipeline{
		store:   store,
		tracker: tracker,
		now:     time.Now,
	}
}

// Ingest processes a submitted batch. On success the session is durable
// in the event log and the returned result reports how many events it
// carried. Validation failures return a *ValidationError; append
// failures return an error wrapping ErrStoreWrite.
func (p *Pipeline) Ingest(ctx context.Context, req models.SubmitRequest) (*models.SubmitResult, error) {
	start := time.Now()

	if verr := validation.ValidateStruct(&req); verr != nil {
		metrics.RecordIngest("rejected", 0, time.Since(start))
		return nil, &ValidationError{Message: verr.Error(), Fields: verr}
	}

	events, err := decodeEvents(req.Events)
	if err != nil {
		metrics.RecordIngest("rejected", 0, time.Since(start))
		return nil, err
	}

	for i := range events {
		if verr := validation.ValidateStruct(&events[i]); verr != nil {
			metrics.RecordIngest("rejected", 0, time.Since(start))
			return nil, &ValidationError{
				Message: fmt.Sprintf("event %d: %s", i, verr.Error()),
				Fields:  verr,
			}
		}
	}

	session := p.enrich(req, events)

	if err := p.store.Append(ctx, session); err != nil {
		metrics.RecordIngest("store_error", len(events), time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}

	// The session is already durable. A stats failure here must not fail
	// the submission; the snapshot catches up on the next update or via
	// a rebuild from the log.
	if serr := p.tracker.Update(session); serr != nil {
		logging.Warn().
			Err(serr).
			Str("session_id", session.SessionID).
			Msg("Stats update failed after log append; run rebuild-stats if the snapshot stays stale")
	}

	metrics.RecordIngest("accepted", len(events), time.Since(start))

	return &models.SubmitResult{
		SessionID:      session.SessionID,
		EventsReceived: len(events),
	}, nil
}

// enrich builds the stored session from a validated request. All events
// in the batch share one server-side processing timestamp.
func (p *Pipeline) enrich(req models.SubmitRequest, events []models.EventInput) *models.Session {
	now := p.now().UTC()

	session := &models.Session{
		SessionID:  req.SessionID,
		UserID:     string(req.UserID),
		UserInfo:   req.UserInfo,
		ReceivedAt: now,
		Events:     make([]models.Event, 0, len(events)),
	}
	for _, in := range events {
		session.Events = append(session.Events, models.Event{
			EventName:   in.EventName,
			Properties:  in.Properties,
			Timestamp:   in.Timestamp,
			ProcessedAt: now,
		})
	}
	return session
}

// decodeEvents enforces that the events field is present and a JSON
// sequence. A literal null, a missing field, or any non-array value is
// rejected. An empty array decodes to an empty slice.
func decodeEvents(raw json.RawMessage) ([]models.EventInput, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &ValidationError{Message: invalidEventsMessage}
	}

	var events []models.EventInput
	if err := json.Unmarshal(trimmed, &events); err != nil {
		return nil, &ValidationError{Message: invalidEventsMessage}
	}
	return events, nil
}
