// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rebuildStatsCmd = &cobra.Command{
	Use:   "rebuild-stats",
	Short: "Recompute the stats snapshot from the event log",
	Long: `Rebuild-stats replays every session in the event log and rewrites
the aggregate stats snapshot. Use it after restoring a backup or
whenever the snapshot is suspect; the event log is the source of truth.`,
	RunE: runRebuildStats,
}

func init() {
	rootCmd.AddCommand(rebuildStatsCmd)
}

func runRebuildStats(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	store, tracker, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sessions, err := store.ReadAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan event log: %w", err)
	}
	if err := tracker.Rebuild(sessions); err != nil {
		return fmt.Errorf("rebuild stats: %w", err)
	}

	summary := tracker.Read().Summary()
	fmt.Fprintf(cmd.OutOrStdout(),
		"Rebuilt stats from %d sessions: %d events, %d calculations, %d shares, %d unique users\n",
		summary.TotalSessions, summary.TotalEvents, summary.TotalCalculations,
		summary.TotalShares, summary.UniqueUsers)
	return nil
}
