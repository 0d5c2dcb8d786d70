// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

// Package api provides the HTTP surface: Chi routing, request middleware
// wiring, and the handlers serving event submission and the analytics
// read endpoints.
//
// Every endpoint responds with the models.APIResponse envelope. Error
// codes are stable strings (VALIDATION_ERROR, STORAGE_ERROR, ...) so
// clients can branch without parsing messages.
//
// # Routes
//
//	POST /api/v1/events         submit an event batch
//	GET  /api/v1/stats          aggregate totals from the stats tracker
//	GET  /api/v1/events/recent  latest sessions flattened to events
//	GET  /api/v1/users/{userID} per-user rollup
//	GET  /api/v1/dashboard      derived dashboard (TTL-cached)
//	GET  /api/v1/report         overview plus recommendations (TTL-cached)
//	GET  /api/v1/health         liveness with uptime (alias: /health/live)
//	GET  /api/v1/health/ready   readiness (store and tracker constructed)
//	GET  /metrics               Prometheus
//
// Submission bodies are capped by the security config; dashboard and
// report responses are gzip-compressed for clients that accept it.
package api
