package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/cyclonewatch/stormtrack/internal/zones"
	"github.com/cyclonewatch/stormtrack/pkg/eventbus"
	"github.com/cyclonewatch/stormtrack/pkg/schedule"
)

// RegenerateZonesJob recomputes watch/warning zones from a storm's current
// forecast track against its basin's coastline.
type RegenerateZonesJob struct {
	deps *Deps
}

// NewRegenerateZonesJob constructs the regenerate_zones job.
func NewRegenerateZonesJob(deps *Deps) *RegenerateZonesJob {
	return &RegenerateZonesJob{deps: deps}
}

// Name implements schedule.StormJob.
func (j *RegenerateZonesJob) Name() string { return NameRegenerateZones }

// Queue implements schedule.StormJob.
func (j *RegenerateZonesJob) Queue() schedule.Queue { return schedule.QueueZones }

// Period implements schedule.StormJob.
func (j *RegenerateZonesJob) Period() time.Duration { return 30 * time.Minute }

// TriggersNext implements schedule.StormJob: zone regeneration has no
// downstream dependency edge.
func (j *RegenerateZonesJob) TriggersNext() string { return "" }

// Storms implements schedule.StormJob.
func (j *RegenerateZonesJob) Storms(ctx context.Context) ([]int64, error) {
	return activeStormIDs(ctx, j.deps.Store)
}

// Run implements schedule.StormJob: a storm with no forecast track yet
// produces no zones without error; existing zones, if any, are left
// untouched.
func (j *RegenerateZonesJob) Run(ctx context.Context, stormID int64) schedule.Result {
	storm, err := j.deps.Store.GetStormByID(ctx, stormID)
	if err != nil {
		return schedule.Permanent(err)
	}

	track, err := j.deps.Store.LatestForecast(ctx, storm.ID)
	if err != nil {
		return schedule.Retryable(err)
	}

	coast := j.deps.Coast.SegmentsFor(storm.Basin)

	now := time.Now().UTC()

	built, err := zones.Build(track, coast, now, zones.DefaultParams())
	if err != nil {
		if errors.Is(err, zones.ErrNoForecast) {
			return schedule.Ok()
		}

		return schedule.Permanent(err)
	}

	if err := j.deps.Store.ReplaceZones(ctx, storm.ID, built); err != nil {
		return schedule.Retryable(err)
	}

	if j.deps.Bus != nil {
		j.deps.Bus.Publish(eventbus.ZonesUpdated{
			StormCode: storm.Code,
			At:        now,
		})
	}

	return schedule.Ok()
}
