// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

// Package recommend turns an analytics overview into operator
// recommendations using tunable threshold rules. Evaluation is pure:
// no I/O, no state, same input same output.
package recommend

import (
	"fmt"

	"github.com/tomtom215/pulselog/internal/models"
)

// Category groups recommendations by the behavior they concern.
type Category string

const (
	CategoryConversion Category = "conversion"
	CategoryEngagement Category = "engagement"
	CategorySharing    Category = "sharing"
)

// Severity marks which side of its thresholds a metric landed on.
type Severity string

const (
	SeverityLow  Severity = "low"
	SeverityHigh Severity = "high"
)

// Recommendation is one triggered rule with a human-readable message.
type Recommendation struct {
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Thresholds are the rule boundaries. Conversion bounds are percentages,
// calculation bounds are averages per session.
type Thresholds struct {
	ConversionLow        float64
	ConversionHigh       float64
	CalculationsLow      float64
	CalculationsHigh     float64
	ShareMinCalculations int
}

// DefaultThresholds returns the stock rule boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ConversionLow:        50,
		ConversionHigh:       80,
		CalculationsLow:      2,
		CalculationsHigh:     5,
		ShareMinCalculations: 10,
	}
}

// Validate checks the boundaries are ordered and in range.
func (t Thresholds) Validate() error {
	if t.ConversionLow < 0 || t.ConversionHigh > 100 {
		return fmt.Errorf("conversion thresholds must be within 0-100, got %v-%v",
			t.ConversionLow, t.ConversionHigh)
	}
	if t.ConversionLow >= t.ConversionHigh {
		return fmt.Errorf("conversion low threshold %v must be below high threshold %v",
			t.ConversionLow, t.ConversionHigh)
	}
	if t.CalculationsLow < 0 || t.CalculationsLow >= t.CalculationsHigh {
		return fmt.Errorf("calculation thresholds must satisfy 0 <= low < high, got %v-%v",
			t.CalculationsLow, t.CalculationsHigh)
	}
	if t.ShareMinCalculations < 0 {
		return fmt.Errorf("share minimum calculations must be non-negative, got %d",
			t.ShareMinCalculations)
	}
	return nil
}

// Evaluate runs every rule against the overview. An uncomputed
// conversion funnel produces no conversion recommendation, and an empty
// log triggers nothing.
func Evaluate(overview *models.Overview, thresholds Thresholds) []Recommendation {
	recs := []Recommendation{}
	if overview == nil {
		return recs
	}

	if overview.Conversion.Computed {
		rate := overview.Conversion.Rate
		switch {
		case rate < thresholds.ConversionLow:
			recs = append(recs, Recommendation{
				Category: CategoryConversion,
				Severity: SeverityLow,
				Message: fmt.Sprintf("Conversion from %s to %s is %.1f%%, below the %.0f%% target; improve the path into the calculator",
					overview.Conversion.Denominator, overview.Conversion.Numerator, rate, thresholds.ConversionLow),
			})
		case rate > thresholds.ConversionHigh:
			recs = append(recs, Recommendation{
				Category: CategoryConversion,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("Conversion from %s to %s is %.1f%%, above %.0f%%; engagement is strong",
					overview.Conversion.Denominator, overview.Conversion.Numerator, rate, thresholds.ConversionHigh),
			})
		}
	}

	if overview.TotalSessions > 0 {
		avg := overview.AvgCalculationsPerSession
		switch {
		case avg < thresholds.CalculationsLow:
			recs = append(recs, Recommendation{
				Category: CategoryEngagement,
				Severity: SeverityLow,
				Message: fmt.Sprintf("Sessions average %.1f calculations, below %.0f; prompt users to adjust inputs and recalculate",
					avg, thresholds.CalculationsLow),
			})
		case avg > thresholds.CalculationsHigh:
			recs = append(recs, Recommendation{
				Category: CategoryEngagement,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("Sessions average %.1f calculations, above %.0f; users are comparing many scenarios",
					avg, thresholds.CalculationsHigh),
			})
		}
	}

	calculations := overview.EventCounts[models.EventCalculationPerformed]
	if overview.Shares == 0 && calculations > thresholds.ShareMinCalculations {
		recs = append(recs, Recommendation{
			Category: CategorySharing,
			Severity: SeverityLow,
			Message: fmt.Sprintf("No shares despite %d calculations; surface the share feature more prominently",
				calculations),
		})
	}

	return recs
}

// Messages extracts the message lines for text rendering.
func Messages(recs []Recommendation) []string {
	messages := make([]string, 0, len(recs))
	for _, rec := range recs {
		messages = append(messages, rec.Message)
	}
	return messages
}
