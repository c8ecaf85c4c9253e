package jobs

import (
	"context"
	"time"

	"github.com/cyclonewatch/stormtrack/internal/fetch"
	"github.com/cyclonewatch/stormtrack/internal/history"
	"github.com/cyclonewatch/stormtrack/internal/model"
	"github.com/cyclonewatch/stormtrack/pkg/eventbus"
	"github.com/cyclonewatch/stormtrack/pkg/schedule"
)

// IngestObservationsJob refetches and reparses a storm's history file,
// upserting the resulting advisories.
type IngestObservationsJob struct {
	deps *Deps
}

// NewIngestObservationsJob constructs the ingest_observations job.
func NewIngestObservationsJob(deps *Deps) *IngestObservationsJob {
	return &IngestObservationsJob{deps: deps}
}

// Name implements schedule.StormJob.
func (j *IngestObservationsJob) Name() string { return NameIngestObservations }

// Queue implements schedule.StormJob.
func (j *IngestObservationsJob) Queue() schedule.Queue { return schedule.QueueIngest }

// Period implements schedule.StormJob.
func (j *IngestObservationsJob) Period() time.Duration { return 15 * time.Minute }

// TriggersNext implements schedule.StormJob: a successful ingest triggers
// the forecast update for the same storm (the intra-storm dependency
// chain).
func (j *IngestObservationsJob) TriggersNext() string { return NameUpdateForecast }

// Storms implements schedule.StormJob. Dormant storms are included
// alongside active ones: a dormant storm's history file can still change
// (the upstream site keeps serving it for a while after advisories stop),
// and observing a genuinely newer advisory there is exactly the trigger
// that reactivates it to active.
func (j *IngestObservationsJob) Storms(ctx context.Context) ([]int64, error) {
	return activeAndDormantStormIDs(ctx, j.deps.Store)
}

// Run implements schedule.StormJob.
func (j *IngestObservationsJob) Run(ctx context.Context, stormID int64) schedule.Result {
	storm, err := j.deps.Store.GetStormByID(ctx, stormID)
	if err != nil {
		return schedule.Permanent(err)
	}

	url := storm.HistoryURL
	if url == "" {
		url = historyURLFallback(j.deps.Config.Upstream.BaseDiscovery, storm.Code)
	}

	result := j.deps.Fetcher.Get(ctx, url, j.deps.fetchConfig())

	if result.Outcome != fetch.OutcomeFetched {
		if res, handled := outcomeToResult(j.deps.Logger, j.Name(), result); handled {
			return res
		}
	}

	advisories, report := history.Parse(storm.Basin, string(result.Body))
	if report.FailureRateExceeded() {
		return schedule.Permanent(errFailureRateExceeded(storm.Code, report.SkippedLines, report.TotalLines))
	}

	for i := range advisories {
		advisories[i].StormID = storm.ID
	}

	written, err := j.deps.Store.UpsertAdvisories(ctx, storm.ID, advisories)
	if err != nil {
		return schedule.Retryable(err)
	}

	now := time.Now().UTC()

	// last_seen_utc tracks the newest advisory's issuance time, not
	// ingestion wall-clock, and only advances (and reactivates a dormant
	// storm) when that advisory is actually newer than what was already
	// recorded.
	latestIssuance := maxIssuanceTimeUTC(advisories)
	if !latestIssuance.IsZero() && latestIssuance.After(storm.LastSeenUTC) {
		if err := j.deps.Store.TouchLastSeen(ctx, storm.ID, latestIssuance); err != nil {
			return schedule.Retryable(err)
		}
	}

	if written > 0 && j.deps.Bus != nil {
		latest, err := j.deps.Store.LatestAdvisory(ctx, storm.ID)
		if err == nil {
			j.deps.Bus.Publish(eventbus.AdvisoryIngested{
				StormCode:  storm.Code,
				AdvisoryID: latest.ID,
				At:         now,
			})
		}
	}

	return schedule.Ok()
}

// maxIssuanceTimeUTC returns the latest IssuanceTimeUTC among advisories,
// or the zero time if advisories is empty.
func maxIssuanceTimeUTC(advisories []model.Advisory) time.Time {
	var latest time.Time

	for _, a := range advisories {
		if a.IssuanceTimeUTC.After(latest) {
			latest = a.IssuanceTimeUTC
		}
	}

	return latest
}
