// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

// Package sampler refreshes the Prometheus gauges that mirror durable
// state: event log records and file size, unique users, and process
// uptime. Counters update inline on the hot paths; these gauges are
// polled on an interval instead so appends never pay for an os.Stat.
package sampler

import (
	"context"
	"time"

	"github.com/tomtom215/pulselog/internal/eventlog"
	"github.com/tomtom215/pulselog/internal/logging"
	"github.com/tomtom215/pulselog/internal/metrics"
	"github.com/tomtom215/pulselog/internal/stats"
)

// DefaultInterval between samples.
const DefaultInterval = 15 * time.Second

// Sampler publishes gauge readings from the store and tracker.
// It implements suture.Service.
type Sampler struct {
	store    *eventlog.Store
	tracker  *stats.Tracker
	interval time.Duration
	started  time.Time
}

// New returns a sampler over the given store and tracker. A
// non-positive interval falls back to DefaultInterval.
func New(store *eventlog.Store, tracker *stats.Tracker, interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{
		store:    store,
		tracker:  tracker,
		interval: interval,
		started:  time.Now(),
	}
}

// Serve samples once immediately, then on every tick until the context
// is cancelled. Without the immediate sample the gauges would read zero
// from process start to the first tick.
func (s *Sampler) Serve(ctx context.Context) error {
	logging.Debug().Dur("interval", s.interval).Msg("Metrics sampler started")

	s.Sample()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sample()
		}
	}
}

// Sample publishes one reading. The tracker counts one session record
// per accepted batch, so its total doubles as the log's record count
// without a scan.
func (s *Sampler) Sample() {
	agg := s.tracker.Read()
	st := s.store.Stats()

	metrics.UpdateStoreGauges(int64(agg.TotalSessions), st.SizeBytes)
	metrics.StatsUniqueUsers.Set(float64(agg.UniqueUsers.Len()))
	metrics.SetUptime(time.Since(s.started))
}

// String identifies the sampler in supervisor logs.
func (s *Sampler) String() string {
	return "metrics-sampler"
}
