package jobs

import (
	"context"
	"time"

	"github.com/cyclonewatch/stormtrack/internal/adeck"
	"github.com/cyclonewatch/stormtrack/internal/fetch"
	"github.com/cyclonewatch/stormtrack/pkg/eventbus"
	"github.com/cyclonewatch/stormtrack/pkg/schedule"
)

// UpdateForecastJob refetches a storm's A-Deck file and reduces the
// ensemble to a single mean track, replacing the storm's current forecast.
type UpdateForecastJob struct {
	deps *Deps
}

// NewUpdateForecastJob constructs the update_forecast job.
func NewUpdateForecastJob(deps *Deps) *UpdateForecastJob {
	return &UpdateForecastJob{deps: deps}
}

// Name implements schedule.StormJob.
func (j *UpdateForecastJob) Name() string { return NameUpdateForecast }

// Queue implements schedule.StormJob.
func (j *UpdateForecastJob) Queue() schedule.Queue { return schedule.QueueForecast }

// Period implements schedule.StormJob.
func (j *UpdateForecastJob) Period() time.Duration { return 15 * time.Minute }

// TriggersNext implements schedule.StormJob: a successful forecast update
// triggers the same storm's zone regeneration.
func (j *UpdateForecastJob) TriggersNext() string { return NameRegenerateZones }

// Storms implements schedule.StormJob.
func (j *UpdateForecastJob) Storms(ctx context.Context) ([]int64, error) {
	return activeStormIDs(ctx, j.deps.Store)
}

// Run implements schedule.StormJob.
func (j *UpdateForecastJob) Run(ctx context.Context, stormID int64) schedule.Result {
	storm, err := j.deps.Store.GetStormByID(ctx, stormID)
	if err != nil {
		return schedule.Permanent(err)
	}

	url := adeckURL(j.deps.Config.Upstream.BaseADeck, storm)

	result := j.deps.Fetcher.Get(ctx, url, j.deps.fetchConfig())

	if result.Outcome != fetch.OutcomeFetched {
		if res, handled := outcomeToResult(j.deps.Logger, j.Name(), result); handled {
			return res
		}
	}

	fixes := adeck.Parse(string(result.Body))

	points := adeck.Reduce(fixes)
	if len(points) == 0 {
		return schedule.Ok()
	}

	if err := j.deps.Store.ReplaceForecast(ctx, storm.ID, points); err != nil {
		return schedule.Retryable(err)
	}

	if j.deps.Bus != nil {
		j.deps.Bus.Publish(eventbus.ForecastUpdated{
			StormCode:   storm.Code,
			IssuanceUTC: points[0].IssuanceTimeUTC,
			At:          time.Now().UTC(),
		})
	}

	return schedule.Ok()
}
