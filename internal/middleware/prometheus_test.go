// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestPrometheus_PassesThroughStatus(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	Prometheus(handler)(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestPrometheus_DefaultStatusOK(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	rec := httptest.NewRecorder()
	Prometheus(handler)(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("Body = %q, want %q", rec.Body.String(), "ok")
	}
}

func TestEndpointLabel_RoutePattern(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	rctx := chi.NewRouteContext()
	rctx.RoutePatterns = []string{"/users/{userID}"}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	if got := endpointLabel(req); got != "/users/{userID}" {
		t.Errorf("endpointLabel = %q, want route pattern", got)
	}
}

func TestEndpointLabel_FallsBackToPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	if got := endpointLabel(req); got != "/users/42" {
		t.Errorf("endpointLabel = %q, want raw path", got)
	}
}

func TestPrometheus_UnderChiRouter(t *testing.T) {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return Prometheus(next.ServeHTTP)
	})
	r.Get("/users/{userID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusOK)
	}
}
