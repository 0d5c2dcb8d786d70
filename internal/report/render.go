// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/pulselog/internal/models"
)

// defaultBarWidth is the bar cell count when RenderOptions leaves it
// unset.
const defaultBarWidth = 40

// RenderOptions adjusts the text report layout.
type RenderOptions struct {
	BarWidth int
}

// RenderText writes the operator report for an overview. Recommendation
// lines come pre-formatted from the caller; an empty slice renders a
// "none" marker. Output is deterministic for a given overview.
func RenderText(w io.Writer, overview *models.Overview, recommendations []string, opts RenderOptions) error {
	if opts.BarWidth <= 0 {
		opts.BarWidth = defaultBarWidth
	}

	rw := &reportWriter{w: w}

	rw.printf("Usage Analytics Report\n")
	rw.printf("Generated %s\n\n", overview.GeneratedAt.Format(time.RFC3339))

	renderTotals(rw, overview)
	renderEventCounts(rw, overview.EventCounts, opts.BarWidth)
	renderConversion(rw, overview.Conversion)
	renderCalculations(rw, overview.Calculations)
	renderTimeRange(rw, overview.TimeRange)
	renderTopUsers(rw, overview.TopUsers)
	renderRecommendations(rw, recommendations)

	return rw.err
}

func renderTotals(rw *reportWriter, overview *models.Overview) {
	rw.printf("Totals\n")
	rw.printf("  Sessions        %d\n", overview.TotalSessions)
	rw.printf("  Events          %d\n", overview.TotalEvents)
	rw.printf("  Unique users    %d\n", overview.UniqueUsers)
	rw.printf("  Shares          %d\n", overview.Shares)
	rw.printf("  Calcs/session   %.2f\n\n", overview.AvgCalculationsPerSession)
}

func renderEventCounts(rw *reportWriter, counts map[string]int, barWidth int) {
	rw.printf("Events by type\n")
	if len(counts) == 0 {
		rw.printf("  (no events recorded)\n\n")
		return
	}

	rows := sortedCounts(counts)
	nameWidth, maxCount := 0, 0
	for _, row := range rows {
		if len(row.name) > nameWidth {
			nameWidth = len(row.name)
		}
		if row.count > maxCount {
			maxCount = row.count
		}
	}
	for _, row := range rows {
		rw.printf("  %-*s  %s %d\n", nameWidth, row.name, bar(row.count, maxCount, barWidth), row.count)
	}
	rw.printf("\n")
}

func renderConversion(rw *reportWriter, funnel models.Funnel) {
	rw.printf("Conversion\n")
	rw.printf("  %s / %s  %s (%d/%d)\n\n",
		funnel.Numerator, funnel.Denominator, funnel.Display(),
		funnel.NumeratorCount, funnel.DenominatorCount)
}

func renderCalculations(rw *reportWriter, aggregates map[string]models.NumericAggregate) {
	rw.printf("Calculation properties\n")
	if len(aggregates) == 0 {
		rw.printf("  (none configured)\n\n")
		return
	}

	properties := make([]string, 0, len(aggregates))
	for property := range aggregates {
		properties = append(properties, property)
	}
	sort.Strings(properties)

	for _, property := range properties {
		agg := aggregates[property]
		if agg.Count == 0 {
			rw.printf("  %s: no finite samples\n", property)
			continue
		}
		rw.printf("  %s: count %d, mean %.2f, min %.2f, max %.2f\n",
			property, agg.Count, agg.Mean, agg.Min, agg.Max)
	}
	rw.printf("\n")
}

func renderTimeRange(rw *reportWriter, tr models.TimeRange) {
	rw.printf("Time range\n")
	if tr.Samples == 0 {
		rw.printf("  (no parseable timestamps)\n\n")
		return
	}
	rw.printf("  %s to %s (%d days over %d timestamps)\n\n",
		tr.Earliest.Format(time.RFC3339), tr.Latest.Format(time.RFC3339),
		tr.Days, tr.Samples)
}

func renderTopUsers(rw *reportWriter, users []models.UserActivity) {
	rw.printf("Top users\n")
	if len(users) == 0 {
		rw.printf("  (no identified users)\n\n")
		return
	}
	for i, user := range users {
		rw.printf("  %d. %s: %d events, %d sessions\n",
			i+1, user.UserID, user.EventCount, user.SessionCount)
	}
	rw.printf("\n")
}

func renderRecommendations(rw *reportWriter, recommendations []string) {
	rw.printf("Recommendations\n")
	if len(recommendations) == 0 {
		rw.printf("  (none)\n")
		return
	}
	for _, rec := range recommendations {
		rw.printf("  - %s\n", rec)
	}
}

// bar scales a count against the largest count in its section. Nonzero
// counts always render at least one cell.
func bar(count, maxCount, width int) string {
	if count <= 0 || maxCount <= 0 {
		return ""
	}
	cells := count * width / maxCount
	if cells == 0 {
		cells = 1
	}
	return strings.Repeat("█", cells)
}

type countRow struct {
	name  string
	count int
}

// sortedCounts orders by count descending, then name, so report output
// is stable.
func sortedCounts(counts map[string]int) []countRow {
	rows := make([]countRow, 0, len(counts))
	for name, count := range counts {
		rows = append(rows, countRow{name: name, count: count})
	}
	sort.Slice(rows, func(a, b int) bool {
		if rows[a].count != rows[b].count {
			return rows[a].count > rows[b].count
		}
		return rows[a].name < rows[b].name
	})
	return rows
}

// reportWriter carries the first write error through the section
// helpers.
type reportWriter struct {
	w   io.Writer
	err error
}

func (rw *reportWriter) printf(format string, args ...any) {
	if rw.err != nil {
		return
	}
	_, rw.err = fmt.Fprintf(rw.w, format, args...)
}
