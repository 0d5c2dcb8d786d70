// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/pulselog/internal/models"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()

	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}
	return resp
}

func TestRespondSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	respondSuccess(rec, map[string]int{"count": 3}, 5*time.Millisecond)

	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("Expected ETag header")
	}

	resp := decodeEnvelope(t, rec)
	if resp.Status != "success" {
		t.Errorf("envelope status = %q, want success", resp.Status)
	}
	if resp.Error != nil {
		t.Errorf("envelope error = %+v, want nil", resp.Error)
	}
	if resp.Metadata.Timestamp.IsZero() {
		t.Error("Expected metadata timestamp")
	}
	if resp.Metadata.QueryTimeMS != 5 {
		t.Errorf("query_time_ms = %d, want 5", resp.Metadata.QueryTimeMS)
	}
	if resp.Metadata.Cached {
		t.Error("Uncached response flagged as cached")
	}
}

func TestRespondCached(t *testing.T) {
	rec := httptest.NewRecorder()
	respondCached(rec, map[string]int{"count": 3})

	resp := decodeEnvelope(t, rec)
	if resp.Status != "success" {
		t.Errorf("envelope status = %q, want success", resp.Status)
	}
	if !resp.Metadata.Cached {
		t.Error("Cached response not flagged as cached")
	}
	if resp.Metadata.QueryTimeMS != 0 {
		t.Errorf("query_time_ms = %d, want omitted", resp.Metadata.QueryTimeMS)
	}
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, http.StatusBadRequest, ErrCodeValidation, "bad input", nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", rec.Code)
	}

	resp := decodeEnvelope(t, rec)
	if resp.Status != "error" {
		t.Errorf("envelope status = %q, want error", resp.Status)
	}
	if resp.Error == nil {
		t.Fatal("Expected error details")
	}
	if resp.Error.Code != ErrCodeValidation {
		t.Errorf("error code = %q, want %q", resp.Error.Code, ErrCodeValidation)
	}
	if resp.Error.Message != "bad input" {
		t.Errorf("error message = %q, want bad input", resp.Error.Message)
	}
	if resp.Data != nil {
		t.Errorf("Data = %v, want nil on error", resp.Data)
	}
}

func TestRespondErrorDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	details := map[string]interface{}{"field": "session_id", "tag": "required"}
	respondErrorDetails(rec, http.StatusBadRequest, ErrCodeValidation, "validation failed", details, nil)

	resp := decodeEnvelope(t, rec)
	if resp.Error == nil {
		t.Fatal("Expected error details")
	}
	if resp.Error.Details["field"] != "session_id" {
		t.Errorf("details.field = %v, want session_id", resp.Error.Details["field"])
	}
}

func TestGenerateETag(t *testing.T) {
	a := generateETag([]byte("payload-a"))
	b := generateETag([]byte("payload-a"))
	c := generateETag([]byte("payload-b"))

	if a == "" {
		t.Fatal("Empty ETag")
	}
	if a != b {
		t.Errorf("Same payload produced different ETags: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("Different payloads produced the same ETag: %q", a)
	}
}

func TestGetIntParam(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"missing", "", 50},
		{"valid", "limit=25", 25},
		{"unparseable", "limit=abc", 50},
		{"negative passes through", "limit=-3", -3},
		{"zero passes through", "limit=0", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
			if got := getIntParam(r, "limit", 50); got != tc.want {
				t.Errorf("getIntParam(%q) = %d, want %d", tc.query, got, tc.want)
			}
		})
	}
}

func TestSanitizeLogValue(t *testing.T) {
	got := sanitizeLogValue("clean\nvalue\r")
	if got != "clean\\x0avalue\\x0d" {
		t.Errorf("sanitizeLogValue = %q", got)
	}
	if sanitizeLogValue("plain") != "plain" {
		t.Error("Plain text should pass through untouched")
	}
}
