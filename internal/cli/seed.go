// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/pulselog/internal/ingest"
	"github.com/tomtom215/pulselog/internal/seed"
)

var (
	seedSessions  int
	seedUsers     int
	seedAnonymous int
	seedSpread    time.Duration
	seedRate      float64
	seedSeed      int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate and ingest synthetic sessions",
	Long: `Seed submits generated sessions through the same validation and
persistence path as live traffic, so the event log and stats snapshot
end up exactly as a real workload would leave them. A fixed --seed
makes the workload reproducible.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVar(&seedSessions, "sessions", 100, "sessions to submit")
	seedCmd.Flags().IntVar(&seedUsers, "users", 10, "identified user pool size")
	seedCmd.Flags().IntVar(&seedAnonymous, "anonymous", 20, "percent of sessions without a user id")
	seedCmd.Flags().DurationVar(&seedSpread, "spread", 7*24*time.Hour, "window ending now that session timestamps spread across")
	seedCmd.Flags().Float64Var(&seedRate, "rate", 0, "sessions per second, 0 submits unpaced")
	seedCmd.Flags().Int64Var(&seedSeed, "seed", 0, "random seed, 0 derives one from the clock")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	store, tracker, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runner, err := seed.NewRunner(ingest.New(store, tracker), seed.Config{
		Sessions:         seedSessions,
		Users:            seedUsers,
		AnonymousPercent: seedAnonymous,
		TimeSpread:       seedSpread,
		PerSecond:        seedRate,
		Seed:             seedSeed,
	})
	if err != nil {
		return err
	}

	// Paced runs can take a while; Ctrl-C stops cleanly mid-run.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("seed run: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d sessions (%d events)\n",
		result.Sessions, result.Events)
	return nil
}
