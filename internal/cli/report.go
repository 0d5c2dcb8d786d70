// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package cli

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/pulselog/internal/models"
	"github.com/tomtom215/pulselog/internal/recommend"
	"github.com/tomtom215/pulselog/internal/report"
)

var (
	reportJSON bool
	reportTop  int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print an analytics report from the event log",
	Long: `Report scans the event log and prints totals, event counts with
bars, the conversion funnel, calculation aggregates, top users, and
recommendations. With --json the overview and recommendations are
emitted as a JSON document instead.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "emit JSON instead of text")
	reportCmd.Flags().IntVar(&reportTop, "top", 0, "override how many top users to show")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	opts := reportOptions(cfg.Report)
	if reportTop > 0 {
		opts.TopUsers = reportTop
	}
	engine := report.NewEngine(store, opts)

	overview, err := engine.Overview(cmd.Context())
	if err != nil {
		return fmt.Errorf("derive overview: %w", err)
	}
	recs := recommend.Evaluate(overview, reportThresholds(cfg.Report))

	if reportJSON {
		if recs == nil {
			recs = []recommend.Recommendation{}
		}
		payload := struct {
			Overview        *models.Overview           `json:"overview"`
			Recommendations []recommend.Recommendation `json:"recommendations"`
		}{overview, recs}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	return report.RenderText(cmd.OutOrStdout(), overview, recommend.Messages(recs),
		report.RenderOptions{BarWidth: cfg.Report.BarWidth})
}
