// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package ingest

import (
	"errors"

	"github.com/tomtom215/pulselog/internal/validation"
)

// ValidationError marks a batch rejected before anything was persisted.
// The HTTP layer maps it to a client error; everything else coming out of
// Ingest is a server-side failure.
type ValidationError struct {
	// Message is the rejection reason shown to the client.
	Message string

	// Fields carries field-level details when the rejection came from
	// struct validation. Nil for shape-level rejections such as a missing
	// events sequence.
	Fields *validation.RequestValidationError
}

func (e *ValidationError) Error() string {
	return e.Message
}

// invalidEventsMessage is the canonical rejection for a missing, null, or
// non-sequence events field.
const invalidEventsMessage = "invalid events data"

// ErrStoreWrite is returned when the event log append fails.
// Nothing is persisted and the stats totals are untouched.
var ErrStoreWrite = errors.New("event log append failed")
