// Package main provides the entry point for the stormtrack cyclone
// tracking pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cyclonewatch/stormtrack/cmd/stormtrack/commands"
	"github.com/cyclonewatch/stormtrack/internal/fetch"
	"github.com/cyclonewatch/stormtrack/internal/jobs"
	"github.com/cyclonewatch/stormtrack/internal/lifecycle"
	pipelinemetrics "github.com/cyclonewatch/stormtrack/internal/observability"
	"github.com/cyclonewatch/stormtrack/internal/radii"
	"github.com/cyclonewatch/stormtrack/internal/store"
	"github.com/cyclonewatch/stormtrack/internal/zones"
	"github.com/cyclonewatch/stormtrack/pkg/cache"
	"github.com/cyclonewatch/stormtrack/pkg/checkpoint"
	"github.com/cyclonewatch/stormtrack/pkg/config"
	"github.com/cyclonewatch/stormtrack/pkg/eventbus"
	obs "github.com/cyclonewatch/stormtrack/pkg/observability"
	"github.com/cyclonewatch/stormtrack/pkg/schedule"
	"github.com/cyclonewatch/stormtrack/pkg/version"
)

// serverReadHeaderTimeout bounds the diagnostics HTTP server's header read
// phase (gosec G112).
const serverReadHeaderTimeout = 10 * time.Second

// validatorCacheSize bounds the conditional-GET cache's entry count.
const validatorCacheSize = 4096

var configPath string

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "stormtrack",
		Short: "Tropical cyclone tracking and forecast pipeline",
		Long: `stormtrack ingests upstream storm advisories, A-Deck ensemble
forecasts, and wind-radii files, reduces them into per-storm forecast
tracks, builds coastal watch/warning zones, and drives the storm
active/dormant/archived lifecycle.

Commands:
  serve               Run the scheduler and diagnostics HTTP server
  discover-now        Run one discovery cycle immediately
  ingest-now          Ingest one storm's observations and radii immediately
  rebuild-forecast    Recompute one storm's forecast from its A-Deck file
  regenerate-zones    Recompute one storm's watch/warning zones
  archive             Force a storm's dormant->archived transition
  health              Report store and cache connectivity
  version             Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(commands.NewDiscoverNowCommand(&configPath))
	rootCmd.AddCommand(commands.NewIngestNowCommand(&configPath))
	rootCmd.AddCommand(commands.NewRebuildForecastCommand(&configPath))
	rootCmd.AddCommand(commands.NewRegenerateZonesCommand(&configPath))
	rootCmd.AddCommand(commands.NewArchiveCommand(&configPath))
	rootCmd.AddCommand(commands.NewHealthCommand(&configPath))
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(commands.ExitCodeFor(err))
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "stormtrack %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and diagnostics HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

// runServe is the composition root: it wires every domain package into
// the pkg/schedule.Scheduler's job set and blocks until an interrupt or
// the scheduler's hard deadline handling terminates it.
func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	providers, err := obs.Init(obs.Config{
		ServiceName: "stormtrack",
		Mode:        obs.ModeServe,
		LogJSON:     cfg.Logging.Format == "json",
	})
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer providers.Shutdown(context.Background())

	logger := providers.Logger

	db, err := store.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	if err := store.RunMigrations(db.DB()); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	coast, err := zones.LoadCoastSource()
	if err != nil {
		return fmt.Errorf("load coastline data: %w", err)
	}

	if cfg.Features.RadiiCoefficientsPath != "" {
		if err := radii.LoadBasinCoefficients(cfg.Features.RadiiCoefficientsPath); err != nil {
			return fmt.Errorf("load radii coefficients override: %w", err)
		}
	}

	healthMetrics, err := pipelinemetrics.NewHealthMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("init health metrics: %w", err)
	}

	validators := cache.NewValidatorCache(validatorCacheSize)
	fetcher := fetch.New(fetch.Config{
		RateLimitPerOrigin: cfg.Fetch.RateLimitPerOrigin,
		BackoffBase:        cfg.Fetch.BackoffBase,
		BackoffMaxRetries:  cfg.Fetch.BackoffMaxRetries,
		RequestTimeout:     cfg.Fetch.RequestTimeout,
	}, validators)

	bus := eventbus.New()
	checker := lifecycle.NewChecker(db, bus)

	deps := &jobs.Deps{
		Store:     db,
		Fetcher:   fetcher,
		Bus:       bus,
		Lifecycle: checker,
		Coast:     coast,
		Config:    cfg,
		Logger:    logger,
		Cache:     validators,
		Health:    healthMetrics,
	}

	discoverJob := jobs.NewDiscoverJob(deps)

	scheduler := schedule.New(cfg.Schedule.WorkerCount, schedule.DefaultDeadlines(), logger)
	scheduler.RegisterJob(discoverJob)
	scheduler.RegisterJob(jobs.NewHealthJob(deps))
	scheduler.RegisterStormJob(jobs.NewIngestObservationsJob(deps))
	scheduler.RegisterStormJob(jobs.NewIngestRadiiJob(deps))
	scheduler.RegisterStormJob(jobs.NewUpdateForecastJob(deps))
	scheduler.RegisterStormJob(jobs.NewRegenerateZonesJob(deps))
	scheduler.RegisterStormJob(jobs.NewCheckDormantJob(deps))
	scheduler.RegisterStormJob(jobs.NewCheckArchiveJob(deps))

	if err := scheduler.Validate(); err != nil {
		return fmt.Errorf("validate scheduler dependency graph: %w", err)
	}

	cpManager := checkpoint.NewManager(checkpoint.DefaultDir(), checkpoint.SourceHash(cfg.Upstream.BaseDiscovery))
	if _, err := cpManager.Load([]checkpoint.Checkpointable{discoverJob}); err != nil {
		logger.Debug("no discovery checkpoint to resume from", "err", err)
	} else {
		logger.Info("resumed discovery checkpoint", "known_storms", len(discoverJob.KnownStorms()))
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var diagServer *http.Server
	if cfg.Server.Enabled {
		diagServer = startDiagnosticsServer(cfg.Server.Host, cfg.Server.Port, db, logger)
		defer diagServer.Close()
	}

	logger.Info("stormtrack scheduler starting", "workers", cfg.Schedule.WorkerCount)
	scheduler.Run(runCtx)
	scheduler.Shutdown()
	logger.Info("stormtrack scheduler stopped")

	saveErr := cpManager.Save(
		[]checkpoint.Checkpointable{discoverJob},
		checkpoint.ResumeState{KnownStormKeys: discoverJob.KnownStorms()},
		cfg.Upstream.BaseDiscovery,
		[]string{discoverJob.Name()},
	)
	if saveErr != nil {
		logger.Warn("save discovery checkpoint", "err", saveErr)
	}

	return nil
}

// startDiagnosticsServer exposes /healthz, /readyz, and /metrics on a
// dedicated mux, never http.DefaultServeMux, to avoid gosec G108.
func startDiagnosticsServer(host string, port int, s store.Store, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/healthz", obs.HealthHandler())
	mux.Handle("/readyz", obs.ReadyHandler(func(ctx context.Context) error {
		return s.Ping(ctx)
	}))
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           mux,
		ReadHeaderTimeout: serverReadHeaderTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("diagnostics server stopped", "err", err)
		}
	}()

	return server
}
