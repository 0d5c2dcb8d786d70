// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

// Package services contains suture.Service wrappers for components whose
// native lifecycle does not match suture's Serve(ctx) pattern.
//
// Currently this is only the HTTP server: http.Server blocks in
// ListenAndServe and shuts down via a separate method, so
// HTTPServerService bridges the two. Components that already expose
// Serve(ctx) error, like backup.Manager, are added to the tree directly.
package services
