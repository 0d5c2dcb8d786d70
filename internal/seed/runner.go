// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package seed

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/tomtom215/pulselog/internal/ingest"
	"github.com/tomtom215/pulselog/internal/logging"
)

// progressEvery is how many sessions pass between progress log lines.
const progressEvery = 100

// Result summarizes a completed seed run.
type Result struct {
	Sessions int
	Events   int
}

// Runner drives generated sessions through the ingestion pipeline so
// seeded data takes the same validation, enrichment, and persistence
// path as live traffic.
type Runner struct {
	pipeline *ingest.Pipeline
	gen      *Generator
	limiter  *rate.Limiter
}

// NewRunner builds a runner for the given workload.
func NewRunner(pipeline *ingest.Pipeline, cfg Config) (*Runner, error) {
	gen, err := NewGenerator(cfg)
	if err != nil {
		return nil, err
	}

	r := &Runner{pipeline: pipeline, gen: gen}
	if cfg.PerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.PerSecond), 1)
	}
	return r, nil
}

// Run submits every session, pacing when configured. A pipeline error
// aborts the run; the partial result reflects what was submitted.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	cfg := r.gen.cfg
	logging.Info().
		Int("sessions", cfg.Sessions).
		Int("users", cfg.Users).
		Int("anonymous_percent", cfg.AnonymousPercent).
		Dur("time_spread", cfg.TimeSpread).
		Float64("per_second", cfg.PerSecond).
		Msg("Seed run starting")

	result := &Result{}
	for i := 0; i < cfg.Sessions; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return result, err
			}
		}

		req, err := r.gen.Request(i)
		if err != nil {
			return result, fmt.Errorf("generate session %d: %w", i, err)
		}
		res, err := r.pipeline.Ingest(ctx, req)
		if err != nil {
			return result, fmt.Errorf("submit session %d: %w", i, err)
		}

		result.Sessions++
		result.Events += res.EventsReceived
		if result.Sessions%progressEvery == 0 {
			logging.Info().
				Int("sessions", result.Sessions).
				Int("events", result.Events).
				Msg("Seed progress")
		}
	}

	logging.Info().
		Int("sessions", result.Sessions).
		Int("events", result.Events).
		Msg("Seed run complete")
	return result, nil
}
