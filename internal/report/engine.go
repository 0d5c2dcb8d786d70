// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/pulselog/internal/eventlog"
	"github.com/tomtom215/pulselog/internal/metrics"
	"github.com/tomtom215/pulselog/internal/models"
)

// Options selects what the composite derivations report on.
type Options struct {
	// FunnelFrom is the funnel base event, the denominator.
	FunnelFrom string

	// FunnelTo is the funnel target event, the numerator.
	FunnelTo string

	// TopUsers is how many ranked users Overview includes.
	TopUsers int

	// NumericProperties are the calculation properties aggregated on the
	// dashboard and overview.
	NumericProperties []string
}

// DefaultOptions returns the conversion pair and properties the stock
// client emits.
func DefaultOptions() Options {
	return Options{
		FunnelFrom:        models.EventAppOpened,
		FunnelTo:          models.EventCalculationPerformed,
		TopUsers:          5,
		NumericProperties: []string{models.PropertyPrice, models.PropertyRate},
	}
}

// Engine answers analytical queries by scanning the event log.
// It holds no state beyond the store handle and is safe for concurrent
// use.
type Engine struct {
	store *eventlog.Store
	opts  Options
}

// NewEngine creates an engine over the given store. Zero-valued option
// fields fall back to defaults.
func NewEngine(store *eventlog.Store, opts Options) *Engine {
	def := DefaultOptions()
	if opts.FunnelFrom == "" {
		opts.FunnelFrom = def.FunnelFrom
	}
	if opts.FunnelTo == "" {
		opts.FunnelTo = def.FunnelTo
	}
	if opts.TopUsers <= 0 {
		opts.TopUsers = def.TopUsers
	}
	if len(opts.NumericProperties) == 0 {
		opts.NumericProperties = def.NumericProperties
	}
	return &Engine{store: store, opts: opts}
}

// EventTypeCounts returns how often each event name occurs across the
// whole log.
func (e *Engine) EventTypeCounts(ctx context.Context) (map[string]int, error) {
	sessions, err := e.scan(ctx, "event_type_counts")
	if err != nil {
		return nil, err
	}
	return countEvents(sessions), nil
}

// NumericAggregate computes count/mean/min/max of a property across
// events of the given name. Only values present as finite numbers join
// the sample; a zero Count means nothing qualified.
func (e *Engine) NumericAggregate(ctx context.Context, eventName, property string) (models.NumericAggregate, error) {
	sessions, err := e.scan(ctx, "numeric_aggregate")
	if err != nil {
		return models.NumericAggregate{}, err
	}
	return numericAggregate(sessions, eventName, property), nil
}

// Funnel computes 100*count(numerator)/count(denominator) rounded to one
// decimal place. A zero denominator yields Computed=false.
func (e *Engine) Funnel(ctx context.Context, numerator, denominator string) (models.Funnel, error) {
	sessions, err := e.scan(ctx, "funnel")
	if err != nil {
		return models.Funnel{}, err
	}
	return funnelFromCounts(countEvents(sessions), numerator, denominator), nil
}

// UserRollup returns every session recorded for the given user together
// with session and event totals. The query is canonicalized the same way
// identifiers are at ingestion, so "42" finds sessions submitted with
// the number 42. An unknown user yields an empty rollup, not an error.
func (e *Engine) UserRollup(ctx context.Context, userID string) (*models.UserRollup, error) {
	sessions, err := e.scan(ctx, "user_rollup")
	if err != nil {
		return nil, err
	}

	if canonical, ok := models.CanonicalNumber(userID); ok {
		userID = canonical
	}

	rollup := &models.UserRollup{UserID: userID, Sessions: []*models.Session{}}
	for _, sess := range sessions {
		if sess.UserID != userID {
			continue
		}
		rollup.Sessions = append(rollup.Sessions, sess)
		rollup.SessionCount++
		rollup.EventCount += len(sess.Events)
	}
	return rollup, nil
}

// TimeRange reports the earliest and latest parseable client event
// timestamp and the ceiling day-span between them.
func (e *Engine) TimeRange(ctx context.Context) (models.TimeRange, error) {
	sessions, err := e.scan(ctx, "time_range")
	if err != nil {
		return models.TimeRange{}, err
	}
	return rangeOf(sessions), nil
}

// TopUsers ranks users descending by total event count. Ties keep the
// order users were first seen in the log. Anonymous sessions do not
// form a user.
func (e *Engine) TopUsers(ctx context.Context, n int) ([]models.UserActivity, error) {
	sessions, err := e.scan(ctx, "top_users")
	if err != nil {
		return nil, err
	}
	return topUsers(sessions, n), nil
}

// Dashboard composes per-type counts, calculation aggregates over the
// configured properties, and the distinct user count from one scan.
func (e *Engine) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	sessions, err := e.scan(ctx, "dashboard")
	if err != nil {
		return nil, err
	}

	return &models.Dashboard{
		EventCounts:  countEvents(sessions),
		Calculations: e.calculationAggregates(sessions),
		UniqueUsers:  distinctUsers(sessions),
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

// Overview produces the full analytical snapshot behind the operator
// report, all derived from a single scan.
func (e *Engine) Overview(ctx context.Context) (*models.Overview, error) {
	sessions, err := e.scan(ctx, "overview")
	if err != nil {
		return nil, err
	}

	counts := countEvents(sessions)
	totalEvents := 0
	for _, c := range counts {
		totalEvents += c
	}

	avgCalculations := 0.0
	if len(sessions) > 0 {
		avgCalculations = float64(counts[models.EventCalculationPerformed]) / float64(len(sessions))
	}

	return &models.Overview{
		GeneratedAt:               time.Now().UTC(),
		TotalSessions:             len(sessions),
		TotalEvents:               totalEvents,
		UniqueUsers:               distinctUsers(sessions),
		EventCounts:               counts,
		Conversion:                funnelFromCounts(counts, e.opts.FunnelTo, e.opts.FunnelFrom),
		Calculations:              e.calculationAggregates(sessions),
		AvgCalculationsPerSession: avgCalculations,
		Shares:                    counts[models.EventShareClicked],
		TimeRange:                 rangeOf(sessions),
		TopUsers:                  topUsers(sessions, e.opts.TopUsers),
	}, nil
}

// scan reads the full log, recording query metrics.
func (e *Engine) scan(ctx context.Context, query string) ([]*models.Session, error) {
	start := time.Now()
	sessions, err := e.store.ReadAll(ctx)
	metrics.RecordQuery(query, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("scan event log: %w", err)
	}
	return sessions, nil
}

func (e *Engine) calculationAggregates(sessions []*models.Session) map[string]models.NumericAggregate {
	aggregates := make(map[string]models.NumericAggregate, len(e.opts.NumericProperties))
	for _, property := range e.opts.NumericProperties {
		aggregates[property] = numericAggregate(sessions, models.EventCalculationPerformed, property)
	}
	return aggregates
}

func countEvents(sessions []*models.Session) map[string]int {
	counts := make(map[string]int)
	for _, sess := range sessions {
		for i := range sess.Events {
			counts[sess.Events[i].EventName]++
		}
	}
	return counts
}

func numericAggregate(sessions []*models.Session, eventName, property string) models.NumericAggregate {
	var agg models.NumericAggregate
	sum := 0.0
	for _, sess := range sessions {
		for i := range sess.Events {
			ev := &sess.Events[i]
			if ev.EventName != eventName {
				continue
			}
			v, ok := numericValue(ev.Properties[property])
			if !ok {
				continue
			}
			if agg.Count == 0 || v < agg.Min {
				agg.Min = v
			}
			if agg.Count == 0 || v > agg.Max {
				agg.Max = v
			}
			sum += v
			agg.Count++
		}
	}
	if agg.Count > 0 {
		agg.Mean = sum / float64(agg.Count)
	}
	return agg
}

// numericValue extracts a finite number from a decoded property value.
// JSON decoding yields float64; integer types cover hand-built sessions.
func numericValue(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func funnelFromCounts(counts map[string]int, numerator, denominator string) models.Funnel {
	funnel := models.Funnel{
		Numerator:        numerator,
		Denominator:      denominator,
		NumeratorCount:   counts[numerator],
		DenominatorCount: counts[denominator],
	}
	if funnel.DenominatorCount == 0 {
		return funnel
	}
	rate := 100 * float64(funnel.NumeratorCount) / float64(funnel.DenominatorCount)
	funnel.Rate = math.Round(rate*10) / 10
	funnel.Computed = true
	return funnel
}

func rangeOf(sessions []*models.Session) models.TimeRange {
	var tr models.TimeRange
	for _, sess := range sessions {
		for i := range sess.Events {
			ts, ok := parseTimestamp(sess.Events[i].Timestamp)
			if !ok {
				continue
			}
			if tr.Samples == 0 {
				earliest, latest := ts, ts
				tr.Earliest, tr.Latest = &earliest, &latest
			} else {
				if ts.Before(*tr.Earliest) {
					*tr.Earliest = ts
				}
				if ts.After(*tr.Latest) {
					*tr.Latest = ts
				}
			}
			tr.Samples++
		}
	}
	if tr.Samples > 0 {
		span := tr.Latest.Sub(*tr.Earliest)
		tr.Days = int(math.Ceil(span.Hours() / 24))
	}
	return tr
}

func topUsers(sessions []*models.Session, n int) []models.UserActivity {
	if n <= 0 {
		return []models.UserActivity{}
	}

	// Accumulate in first-encounter order so the stable sort resolves
	// ties by who appeared in the log first.
	index := make(map[string]int)
	ranking := []models.UserActivity{}
	for _, sess := range sessions {
		if sess.UserID == "" {
			continue
		}
		i, seen := index[sess.UserID]
		if !seen {
			i = len(ranking)
			index[sess.UserID] = i
			ranking = append(ranking, models.UserActivity{UserID: sess.UserID})
		}
		ranking[i].SessionCount++
		ranking[i].EventCount += len(sess.Events)
	}

	sort.SliceStable(ranking, func(a, b int) bool {
		return ranking[a].EventCount > ranking[b].EventCount
	})

	if n < len(ranking) {
		ranking = ranking[:n]
	}
	return ranking
}

func distinctUsers(sessions []*models.Session) int {
	seen := make(map[string]struct{})
	for _, sess := range sessions {
		if sess.UserID == "" {
			continue
		}
		seen[sess.UserID] = struct{}{}
	}
	return len(seen)
}
