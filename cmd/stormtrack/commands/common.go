// Package commands implements the stormtrack admin CLI surface: one-shot
// invocations of the same job logic the scheduler runs periodically,
// for manual intervention and scripting.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyclonewatch/stormtrack/internal/fetch"
	"github.com/cyclonewatch/stormtrack/internal/jobs"
	"github.com/cyclonewatch/stormtrack/internal/lifecycle"
	pipelinemetrics "github.com/cyclonewatch/stormtrack/internal/observability"
	"github.com/cyclonewatch/stormtrack/internal/store"
	"github.com/cyclonewatch/stormtrack/internal/zones"
	"github.com/cyclonewatch/stormtrack/pkg/cache"
	"github.com/cyclonewatch/stormtrack/pkg/config"
	"github.com/cyclonewatch/stormtrack/pkg/eventbus"
	obs "github.com/cyclonewatch/stormtrack/pkg/observability"
	"github.com/cyclonewatch/stormtrack/pkg/schedule"
)

// Exit codes: 0 success, 1 transient, 2 permanent, 3 not found.
const (
	ExitOK        = 0
	ExitTransient = 1
	ExitPermanent = 2
	ExitNotFound  = 3

	adminValidatorCacheSize = 256
)

// ExitCodeFor maps a command error to its exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, store.ErrNotFound) {
		return ExitNotFound
	}

	var transient *transientError
	if errors.As(err, &transient) {
		return ExitTransient
	}

	return ExitPermanent
}

// transientError marks a command failure the caller should retry, mirroring
// schedule.OutcomeRetryable for admin-surface invocations that don't go
// through the scheduler.
type transientError struct{ err error }

func (t *transientError) Error() string { return t.err.Error() }
func (t *transientError) Unwrap() error { return t.err }

// resultToError converts a schedule.Result from a directly-invoked job into
// an error the cobra command layer can report and ExitCodeFor can classify.
func resultToError(res schedule.Result) error {
	switch res.Outcome {
	case schedule.OutcomeOK:
		return nil
	case schedule.OutcomeRetryable:
		return &transientError{err: res.Err}
	default:
		return res.Err
	}
}

// env bundles everything an admin command needs, built fresh per
// invocation from the loaded config.
type env struct {
	deps  *jobs.Deps
	store *store.Postgres
}

// newEnv wires the same collaborators runServe does, for one-shot command
// use. The caller must call the returned cleanup func before exiting.
func newEnv(ctx context.Context, configPath string) (*env, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	providers, err := obs.Init(obs.Config{
		ServiceName: "stormtrack",
		Mode:        obs.ModeAdminCLI,
		LogJSON:     cfg.Logging.Format == "json",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init observability: %w", err)
	}

	db, err := store.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
	if err != nil {
		_ = providers.Shutdown(ctx)

		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	coast, err := zones.LoadCoastSource()
	if err != nil {
		db.Close()
		_ = providers.Shutdown(ctx)

		return nil, nil, fmt.Errorf("load coastline data: %w", err)
	}

	healthMetrics, err := pipelinemetrics.NewHealthMetrics(providers.Meter)
	if err != nil {
		db.Close()
		_ = providers.Shutdown(ctx)

		return nil, nil, fmt.Errorf("init health metrics: %w", err)
	}

	validators := cache.NewValidatorCache(adminValidatorCacheSize)
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
		Logger:    providers.Logger,
		Cache:     validators,
		Health:    healthMetrics,
	}

	cleanup := func() {
		db.Close()
		_ = providers.Shutdown(context.Background())
	}

	return &env{deps: deps, store: db}, cleanup, nil
}
