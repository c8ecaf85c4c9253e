package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cyclonewatch/stormtrack/internal/discovery"
	"github.com/cyclonewatch/stormtrack/internal/fetch"
	"github.com/cyclonewatch/stormtrack/internal/model"
	"github.com/cyclonewatch/stormtrack/pkg/persist"
	"github.com/cyclonewatch/stormtrack/pkg/schedule"
)

// knownStormsBasename names the checkpoint file DiscoverJob's resume state
// is saved under (see pkg/checkpoint).
const knownStormsBasename = "known_storms"

// DiscoverJob refreshes the set of active storms from the upstream index
// page.
type DiscoverJob struct {
	deps *Deps

	mu    sync.Mutex
	known []string
}

// NewDiscoverJob constructs the discover job.
func NewDiscoverJob(deps *Deps) *DiscoverJob {
	return &DiscoverJob{deps: deps}
}

// KnownStorms returns the storm codes observed by the most recent
// successful discovery cycle, for checkpointing.
func (j *DiscoverJob) KnownStorms() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]string, len(j.known))
	copy(out, j.known)

	return out
}

// SaveCheckpoint implements checkpoint.Checkpointable.
func (j *DiscoverJob) SaveCheckpoint(dir string) error {
	known := j.KnownStorms()

	return persist.SaveState(dir, knownStormsBasename, persist.NewJSONCodec(), &known)
}

// LoadCheckpoint implements checkpoint.Checkpointable.
func (j *DiscoverJob) LoadCheckpoint(dir string) error {
	var known []string

	if err := persist.LoadState(dir, knownStormsBasename, persist.NewJSONCodec(), &known); err != nil {
		return err
	}

	j.mu.Lock()
	j.known = known
	j.mu.Unlock()

	return nil
}

// Name implements schedule.Job.
func (j *DiscoverJob) Name() string { return NameDiscover }

// Queue implements schedule.Job.
func (j *DiscoverJob) Queue() schedule.Queue { return schedule.QueueDefault }

// Period implements schedule.Job.
func (j *DiscoverJob) Period() time.Duration {
	if p := j.deps.Config.Schedule.DiscoveryPeriod; p > 0 {
		return p
	}

	return 10 * time.Minute
}

// Run implements schedule.Job: fetches the index page and upserts every
// recognized storm. NotModified and zero-entries are both valid,
// non-error outcomes.
func (j *DiscoverJob) Run(ctx context.Context) schedule.Result {
	base := j.deps.Config.Upstream.BaseDiscovery

	result := j.deps.Fetcher.Get(ctx, discoveryIndexURL(base), j.deps.fetchConfig())

	if result.Outcome != fetch.OutcomeFetched {
		if res, handled := outcomeToResult(j.deps.Logger, j.Name(), result); handled {
			return res
		}
	}

	entries, err := discovery.Parse(string(result.Body), base)
	if err != nil {
		if errors.Is(err, discovery.ErrNoEntries) {
			return schedule.Ok()
		}

		return schedule.Permanent(err)
	}

	now := time.Now().UTC()
	codes := make([]string, 0, len(entries))

	for _, entry := range entries {
		_, err := j.deps.Store.UpsertStorm(ctx, model.Storm{
			Code:         entry.Code,
			Basin:        entry.Basin,
			Name:         entry.Name,
			Status:       model.StatusActive,
			FirstSeenUTC: now,
			LastSeenUTC:  now,
			HistoryURL:   entry.HistoryURL,
		})
		if err != nil {
			return schedule.Retryable(err)
		}

		codes = append(codes, entry.Code)
	}

	sort.Strings(codes)

	j.mu.Lock()
	j.known = codes
	j.mu.Unlock()

	return schedule.Ok()
}
