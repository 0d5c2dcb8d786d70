// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

/*
Package supervisor provides process supervision for Pulselog using
suture v4.

The supervisor tree manages the lifecycle of the long-running services
with Erlang/OTP-style supervision: automatic restart, failure isolation,
and graceful shutdown.

# Overview

Services are organized into two layers:

	RootSupervisor ("pulselog")
	├── DataSupervisor ("data-layer")
	│   ├── backup.Manager (scheduled snapshots)
	│   └── sampler.Sampler (gauge refresh)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crash in the backup scheduler never takes down event ingestion, and a
crashed HTTP server restarts without touching the data layer's failure
counter.

# Failure Handling

Each service failure increments a counter that decays exponentially over
FailureDecay seconds. When the counter exceeds FailureThreshold, the
supervisor waits FailureBackoff before the next restart. Defaults match
suture's production values (5 failures, 30s decay, 15s backoff, 10s
shutdown timeout).

# Service Interface

Every supervised service implements suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

A service that returns is restarted, nil return or not, subject to the
backoff logic; suture.ErrDoNotRestart removes it permanently. Context
cancellation means shutdown was requested and the service must return
promptly.

# What Is Not Supervised

The event log store and stats tracker are embedded components without
run loops; they are opened at startup and closed at exit. The config
holder watches its file on its own goroutine and is stopped directly.

If services fail to stop within the timeout, UnstoppedServiceReport
names the stragglers.
*/
package supervisor
