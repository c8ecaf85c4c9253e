// Package jobs wires the pipeline's domain packages (fetch, discovery,
// history, adeck, radii, zones, lifecycle, store, eventbus) into the
// pkg/schedule.Job and pkg/schedule.StormJob implementations the scheduler
// runs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cyclonewatch/stormtrack/internal/discovery"
	"github.com/cyclonewatch/stormtrack/internal/fetch"
	"github.com/cyclonewatch/stormtrack/internal/lifecycle"
	"github.com/cyclonewatch/stormtrack/internal/model"
	"github.com/cyclonewatch/stormtrack/internal/observability"
	"github.com/cyclonewatch/stormtrack/internal/store"
	"github.com/cyclonewatch/stormtrack/internal/zones"
	"github.com/cyclonewatch/stormtrack/pkg/cache"
	"github.com/cyclonewatch/stormtrack/pkg/config"
	"github.com/cyclonewatch/stormtrack/pkg/eventbus"
	"github.com/cyclonewatch/stormtrack/pkg/schedule"
)

// Job names. StormJob.TriggersNext() and the scheduler's byName lookup key
// off these exactly, so they're named constants rather than inline string
// literals.
const (
	NameDiscover           = "discover"
	NameIngestObservations = "ingest_observations"
	NameIngestRadii        = "ingest_radii"
	NameUpdateForecast     = "update_forecast"
	NameRegenerateZones    = "regenerate_zones"
	NameCheckDormant       = "check_dormant"
	NameCheckArchive       = "check_archive"
	NameHealth             = "health"
)

// Deps bundles every collaborator a job needs, constructed once in the
// composition root and shared across all jobs.
type Deps struct {
	Store     store.Store
	Fetcher   *fetch.Fetcher
	Bus       *eventbus.Bus
	Lifecycle *lifecycle.Checker
	Coast     *zones.CoastSource
	Config    *config.Config
	Logger    *slog.Logger
	Cache     *cache.ValidatorCache
	Health    *observability.HealthMetrics
}

func (d *Deps) fetchConfig() fetch.Config {
	return fetch.Config{
		RateLimitPerOrigin: d.Config.Fetch.RateLimitPerOrigin,
		BackoffBase:        d.Config.Fetch.BackoffBase,
		BackoffMaxRetries:  d.Config.Fetch.BackoffMaxRetries,
		RequestTimeout:     d.Config.Fetch.RequestTimeout,
	}
}

// radiiURL builds the per-storm wind-radii companion file URL, shaped
// "<discovery_base>/<CODE>.2dwind.txt".
func radiiURL(discoveryBase, code string) string {
	return strings.TrimRight(discoveryBase, "/") + "/" + code + ".2dwind.txt"
}

// historyURLFallback rebuilds a storm's history-file URL when its persisted
// HistoryURL is empty (storms upserted before discovery.Entry.HistoryURL
// existed, or seeded directly by an admin command).
func historyURLFallback(discoveryBase, code string) string {
	return discovery.HistoryURL(discoveryBase, code)
}

// errFailureRateExceeded reports a history file whose parse failure rate
// crossed the escalation threshold, a permanent failure for the cycle.
func errFailureRateExceeded(stormCode string, skipped, total int) error {
	return fmt.Errorf("%w: storm %s: %d/%d lines skipped", errParseFailureRate, stormCode, skipped, total)
}

var errParseFailureRate = errors.New("jobs: history file failure rate exceeds threshold")

// adeckNumberAndYear splits an upstream storm code like "28W" into its
// numeric storm number ("28") and the season year, the latter taken from
// firstSeen since Storm carries no separate season field.
func adeckNumberAndYear(code string, firstSeen time.Time) (string, int) {
	number := strings.TrimRightFunc(code, func(r rune) bool { return r < '0' || r > '9' })

	return number, firstSeen.Year()
}

// adeckURL builds the A-Deck file URL, shaped
// "<adeck_base>/a<basin_letter><NN><YYYY>.dat". The upstream history-file
// convention uses two-letter basin codes (al, ep, cp, wp, sh, io) that
// already match model.Basin's string form, so that is reused here rather
// than collapsing to one letter.
func adeckURL(adeckBase string, storm model.Storm) string {
	number, year := adeckNumberAndYear(storm.Code, storm.FirstSeenUTC)

	return fmt.Sprintf("%s/a%s%s%04d.dat", strings.TrimRight(adeckBase, "/"), strings.ToLower(string(storm.Basin)), number, year)
}

// discoveryIndexURL is the upstream storm index page.
func discoveryIndexURL(base string) string {
	return strings.TrimRight(base, "/") + "/adt.html"
}

// activeStormIDs lists the IDs of every currently active storm, the
// eligible set for ingest_radii, update_forecast, regenerate_zones and
// check_dormant (ingest_observations uses activeAndDormantStormIDs).
func activeStormIDs(ctx context.Context, s store.Store) ([]int64, error) {
	storms, err := s.ListStormsByStatus(ctx, model.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active storms: %w", err)
	}

	ids := make([]int64, len(storms))
	for i, storm := range storms {
		ids[i] = storm.ID
	}

	return ids, nil
}

// dormantStormIDs lists the IDs of every currently dormant storm, the
// eligible set for check_archive.
func dormantStormIDs(ctx context.Context, s store.Store) ([]int64, error) {
	storms, err := s.ListStormsByStatus(ctx, model.StatusDormant)
	if err != nil {
		return nil, fmt.Errorf("list dormant storms: %w", err)
	}

	ids := make([]int64, len(storms))
	for i, storm := range storms {
		ids[i] = storm.ID
	}

	return ids, nil
}

// activeAndDormantStormIDs lists active and dormant storms together, the
// eligible set for ingest_observations: a dormant storm must keep being
// re-ingested so a genuinely newer advisory can reactivate it.
func activeAndDormantStormIDs(ctx context.Context, s store.Store) ([]int64, error) {
	active, err := activeStormIDs(ctx, s)
	if err != nil {
		return nil, err
	}

	dormant, err := dormantStormIDs(ctx, s)
	if err != nil {
		return nil, err
	}

	return append(active, dormant...), nil
}

// outcomeToResult maps a fetch.Outcome that is not OutcomeFetched (the
// caller handles that one itself, since only it carries a body to process)
// to the matching schedule.Result.
func outcomeToResult(logger *slog.Logger, name string, result fetch.Result) (schedRes schedule.Result, handled bool) {
	switch result.Outcome {
	case fetch.OutcomeNotModified:
		return schedule.Ok(), true
	case fetch.OutcomeNotFound:
		if logger != nil {
			logger.Debug("upstream resource not found", "job", name, "err", result.Err)
		}

		return schedule.Ok(), true
	case fetch.OutcomeTransient:
		return schedule.Retryable(result.Err), true
	case fetch.OutcomePermanent:
		return schedule.Permanent(result.Err), true
	default:
		return schedule.Result{}, false
	}
}
