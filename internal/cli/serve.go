// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/pulselog/internal/api"
	"github.com/tomtom215/pulselog/internal/backup"
	"github.com/tomtom215/pulselog/internal/cache"
	"github.com/tomtom215/pulselog/internal/config"
	"github.com/tomtom215/pulselog/internal/ingest"
	"github.com/tomtom215/pulselog/internal/logging"
	"github.com/tomtom215/pulselog/internal/metrics"
	"github.com/tomtom215/pulselog/internal/report"
	"github.com/tomtom215/pulselog/internal/sampler"
	"github.com/tomtom215/pulselog/internal/supervisor"
	"github.com/tomtom215/pulselog/internal/supervisor/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the event collection and reporting server",
	Long: `Serve starts the HTTP server with supervised background services:
the backup scheduler and the metrics sampler. SIGINT or SIGTERM shuts
everything down gracefully; SIGHUP reloads the configuration.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.LoadFromPath(cfgPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("version", version).Msg("Starting Pulselog")
	logging.Info().
		Str("data_dir", cfg.Store.DataDir).
		Str("environment", cfg.Server.Environment).
		Bool("cache", cfg.API.CacheEnabled).
		Bool("backup", cfg.Backup.Enabled).
		Msg("Configuration loaded")

	store, tracker, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event log")
		}
	}()

	pipeline := ingest.New(store, tracker)
	engine := report.NewEngine(store, reportOptions(cfg.Report))

	var respCache *cache.Cache
	if cfg.API.CacheEnabled {
		respCache = cache.New("api", cfg.API.CacheTTL)
		defer respCache.Close()
	}

	metrics.SetAppInfo(version)

	handler := api.NewHandler(store, tracker, pipeline, engine, respCache,
		reportThresholds(cfg.Report), cfg.API, version)
	router := api.NewRouter(handler, api.NewMiddleware(cfg.Security), cfg.Security)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	if cfg.Backup.Enabled {
		manager, err := backup.NewManager(backup.Config{
			Dir:      cfg.ResolvedBackupDir(),
			Interval: cfg.Backup.Interval,
			Retain:   cfg.Backup.Retain,
			Sources:  []string{cfg.Store.EventLogPath(), cfg.Store.StatsPath()},
		})
		if err != nil {
			return fmt.Errorf("create backup manager: %w", err)
		}
		tree.AddDataService(manager)
		logging.Info().
			Str("dir", cfg.ResolvedBackupDir()).
			Dur("interval", cfg.Backup.Interval).
			Msg("Backup scheduler added")
	}
	tree.AddDataService(sampler.New(store, tracker, sampler.DefaultInterval))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Hot reload: SIGHUP always works; file watching is opt-in. Only
	// the logging section takes effect on a running server, everything
	// else was read once above.
	holder, err := config.NewHolder(cfg, cfgPath, logging.Logger())
	if err != nil {
		return fmt.Errorf("create config holder: %w", err)
	}
	holder.OnChange(func(next *config.Config) {
		logging.Init(logging.Config{
			Level:  next.Logging.Level,
			Format: next.Logging.Format,
			Caller: next.Logging.Caller,
		})
	})
	holder.WatchSignals()
	if cfg.Watch.Enabled {
		if err := holder.WatchFile(); err != nil {
			logging.Warn().Err(err).Msg("Config file watch unavailable")
		}
	}
	defer holder.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor closes the channel.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Pulselog stopped gracefully")
	return nil
}
