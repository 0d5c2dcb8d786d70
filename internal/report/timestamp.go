// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package report

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/pulselog/internal/models"
)

// timestampLayouts are tried in order, RFC 3339 first. Clients in the
// wild also send zone-less and date-only forms; those parse as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// millisecondEpochThreshold splits integer epochs into seconds vs
// milliseconds. 1e11 seconds is year 5138; anything at or above it is
// read as milliseconds.
const millisecondEpochThreshold = 1e11

// parseTimestamp interprets a client-supplied timestamp. It accepts
// RFC 3339 with or without fractional seconds, the fallback layouts
// above, and numeric epochs in seconds or milliseconds. The second
// return is false when the value is empty or unparseable.
func parseTimestamp(ts models.FlexString) (time.Time, bool) {
	s := strings.TrimSpace(string(ts))
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, false
	}
	if math.Abs(v) >= millisecondEpochThreshold {
		v /= 1000
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}
