package schedule_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/pkg/schedule"
)

type fakeJob struct {
	name   string
	queue  schedule.Queue
	period time.Duration
	runs   atomic.Int32
	delay  time.Duration
}

func (f *fakeJob) Name() string            { return f.name }
func (f *fakeJob) Queue() schedule.Queue   { return f.queue }
func (f *fakeJob) Period() time.Duration   { return f.period }

func (f *fakeJob) Run(ctx context.Context) schedule.Result {
	f.runs.Add(1)

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return schedule.Cancelled(ctx.Err())
		}
	}

	return schedule.Ok()
}

type fakeStormJob struct {
	name         string
	period       time.Duration
	storms       []int64
	triggersNext string
	delay        time.Duration
	runs         atomic.Int32
}

func (f *fakeStormJob) Name() string          { return f.name }
func (f *fakeStormJob) Queue() schedule.Queue { return schedule.QueueIngest }
func (f *fakeStormJob) Period() time.Duration { return f.period }
func (f *fakeStormJob) TriggersNext() string  { return f.triggersNext }

func (f *fakeStormJob) Storms(ctx context.Context) ([]int64, error) {
	return f.storms, nil
}

func (f *fakeStormJob) Run(ctx context.Context, stormID int64) schedule.Result {
	f.runs.Add(1)

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return schedule.Cancelled(ctx.Err())
		}
	}

	return schedule.Ok()
}

func TestSchedulerRunsRegisteredJobOnTicker(t *testing.T) {
	t.Parallel()

	job := &fakeJob{name: "discover", period: 10 * time.Millisecond}

	s := schedule.New(2, schedule.Deadlines{Soft: time.Second, Hard: 2 * time.Second}, nil)
	s.RegisterJob(job)

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	s.Run(ctx)

	assert.GreaterOrEqual(t, job.runs.Load(), int32(2))
}

func TestSchedulerDropsOverlappingTickInsteadOfQueueing(t *testing.T) {
	t.Parallel()

	job := &fakeJob{name: "slow", period: 5 * time.Millisecond, delay: 60 * time.Millisecond}

	s := schedule.New(4, schedule.Deadlines{Soft: time.Second, Hard: 2 * time.Second}, nil)
	s.RegisterJob(job)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s.Run(ctx)

	assert.Equal(t, int32(1), job.runs.Load(), "overlapping ticks for a slow job must be dropped, not queued")
}

func TestSchedulerChainsIntraStormDependency(t *testing.T) {
	t.Parallel()

	ingest := &fakeStormJob{name: "ingest_observations", period: 30 * time.Millisecond, storms: []int64{1}, triggersNext: "update_forecast"}
	forecast := &fakeStormJob{name: "update_forecast", period: time.Hour, storms: []int64{1}, triggersNext: "regenerate_zones"}
	zonesJob := &fakeStormJob{name: "regenerate_zones", period: time.Hour, storms: []int64{1}}

	s := schedule.New(4, schedule.Deadlines{Soft: time.Second, Hard: 2 * time.Second}, nil)
	s.RegisterStormJob(ingest)
	s.RegisterStormJob(forecast)
	s.RegisterStormJob(zonesJob)

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Millisecond)
	defer cancel()

	s.Run(ctx)

	assert.Equal(t, int32(1), ingest.runs.Load())
	assert.Equal(t, int32(1), forecast.runs.Load())
	assert.Equal(t, int32(1), zonesJob.runs.Load())
}

func TestSchedulerValidateAcceptsLinearChain(t *testing.T) {
	t.Parallel()

	ingest := &fakeStormJob{name: "ingest_observations", period: time.Hour, triggersNext: "update_forecast"}
	forecast := &fakeStormJob{name: "update_forecast", period: time.Hour, triggersNext: "regenerate_zones"}
	zonesJob := &fakeStormJob{name: "regenerate_zones", period: time.Hour}

	s := schedule.New(4, schedule.DefaultDeadlines(), nil)
	s.RegisterStormJob(ingest)
	s.RegisterStormJob(forecast)
	s.RegisterStormJob(zonesJob)

	assert.NoError(t, s.Validate())
}

func TestSchedulerValidateRejectsCycle(t *testing.T) {
	t.Parallel()

	a := &fakeStormJob{name: "a", period: time.Hour, triggersNext: "b"}
	b := &fakeStormJob{name: "b", period: time.Hour, triggersNext: "a"}

	s := schedule.New(4, schedule.DefaultDeadlines(), nil)
	s.RegisterStormJob(a)
	s.RegisterStormJob(b)

	assert.Error(t, s.Validate())
}

func TestSchedulerRegenerateZonesTickerWaitsForInFlightForecast(t *testing.T) {
	t.Parallel()

	forecast := &fakeStormJob{
		name: "update_forecast", period: 10 * time.Millisecond, storms: []int64{1},
		triggersNext: "regenerate_zones", delay: 50 * time.Millisecond,
	}
	zonesJob := &fakeStormJob{name: "regenerate_zones", period: 5 * time.Millisecond, storms: []int64{1}}

	s := schedule.New(4, schedule.Deadlines{Soft: time.Second, Hard: 2 * time.Second}, nil)
	s.RegisterStormJob(forecast)
	s.RegisterStormJob(zonesJob)
	require.NoError(t, s.Validate())

	// regenerate_zones's own ticker runs it once at 5ms, before
	// update_forecast's own ticker starts it at 10ms. update_forecast then
	// stays in flight past the 55ms deadline, so it is cancelled and
	// triggers nothing; every regenerate_zones tick during that window must
	// be dropped, leaving the single run from the first tick.
	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	s.Run(ctx)

	assert.Equal(t, int32(1), forecast.runs.Load())
	assert.Equal(t, int32(1), zonesJob.runs.Load(), "regenerate_zones's independent ticker must not start while update_forecast is in flight")
}

func TestSchedulerValidateRejectsUnknownSuccessor(t *testing.T) {
	t.Parallel()

	a := &fakeStormJob{name: "a", period: time.Hour, triggersNext: "ghost"}

	s := schedule.New(4, schedule.DefaultDeadlines(), nil)
	s.RegisterStormJob(a)

	assert.Error(t, s.Validate())
}
