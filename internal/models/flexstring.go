// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package models

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// FlexString is a string that decodes from either a JSON string or a JSON
// number. Numbers are normalized to a canonical text form at the decoding
// boundary: integers keep their exact digits, floats drop a trailing zero
// fraction, so "42", 42 and 42.0 all yield "42" while 42.5 yields "42.5".
//
// User identifiers and client timestamps are transmitted loosely typed by
// real clients; normalizing here means every downstream comparison is plain
// string equality.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler accepting strings, numbers and
// null. Any other JSON value is an error.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode string value: %w", err)
		}
		*f = FlexString(s)
		return nil
	}
	canonical, ok := CanonicalNumber(string(data))
	if !ok {
		return fmt.Errorf("value %q is not a string or number", data)
	}
	*f = FlexString(canonical)
	return nil
}

// MarshalJSON implements json.Marshaler; FlexString always serializes as a
// JSON string regardless of how the client transmitted it.
func (f FlexString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// String returns the canonical text form.
func (f FlexString) String() string {
	return string(f)
}

// CanonicalNumber normalizes the text of a JSON number literal. Integer
// literals are kept digit-for-digit (no float round trip, so large IDs stay
// exact); other numeric literals round trip through float64, which collapses
// "42.0" and "4.2e1" to "42". The second return is false when the input is
// not a number.
func CanonicalNumber(literal string) (string, bool) {
	if _, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return literal, true
	}
	v, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(v, 'f', -1, 64), true
}
