// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

// Package middleware provides HTTP middleware shared by the API surface.
//
// Middleware here uses the http.HandlerFunc signature; the api package
// adapts it to Chi's func(http.Handler) http.Handler where needed.
//
// Placement in the router, outermost first:
//
//	RequestID    router-wide, tags every request for tracing
//	Prometheus   API routes, records method/endpoint/status/duration
//	BodyLimit    submission route only, caps the body before handlers read it
//	Compression  dashboard and report routes only, gzips large payloads
package middleware
