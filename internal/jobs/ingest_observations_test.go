package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/internal/audit"
	"github.com/cyclonewatch/stormtrack/internal/fetch"
	"github.com/cyclonewatch/stormtrack/internal/model"
	"github.com/cyclonewatch/stormtrack/internal/store"
	"github.com/cyclonewatch/stormtrack/pkg/cache"
	"github.com/cyclonewatch/stormtrack/pkg/config"
	"github.com/cyclonewatch/stormtrack/pkg/schedule"
)

func newIngestTestDeps(t *testing.T, body string) (*Deps, *store.Memory) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	mem := store.NewMemory()

	deps := &Deps{
		Store:   mem,
		Fetcher: fetch.New(fetch.Config{}, cache.NewValidatorCache(cache.DefaultValidatorCacheSize)),
		Config: &config.Config{
			Upstream: config.UpstreamConfig{BaseDiscovery: srv.URL},
		},
	}

	storm, err := mem.UpsertStorm(context.Background(), model.Storm{
		Code:        "28W",
		Basin:       model.BasinWP,
		Status:      model.StatusActive,
		HistoryURL:  srv.URL,
		LastSeenUTC: time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	return deps, mem
}

func TestIngestObservationsJob_LastSeenTracksAdvisoryIssuance(t *testing.T) {
	t.Parallel()

	raw := "202510180340 14.25N 126.75W 1004.6 30\n" +
		"202510180940 14.80N 127.10W 1002.0 35\n"

	deps, mem := newIngestTestDeps(t, raw)
	j := NewIngestObservationsJob(deps)

	storms, err := j.Storms(context.Background())
	require.NoError(t, err)
	require.Len(t, storms, 1)

	result := j.Run(context.Background(), storms[0])
	require.Equal(t, schedule.OutcomeOK, result.Outcome)

	updated, err := mem.GetStormByID(context.Background(), storms[0])
	require.NoError(t, err)

	want := time.Date(2025, 10, 18, 9, 40, 0, 0, time.UTC)
	assert.True(t, updated.LastSeenUTC.Equal(want), "last_seen_utc = %v, want %v", updated.LastSeenUTC, want)
}

func TestIngestObservationsJob_ReactivatesDormantOnlyWhenAdvisoryIsNewer(t *testing.T) {
	t.Parallel()

	// Only one advisory, older than the storm's current last_seen_utc: this
	// must not reactivate the dormant storm.
	raw := "202510180340 14.25N 126.75W 1004.6 30\n"

	deps, mem := newIngestTestDeps(t, raw)
	ctx := context.Background()

	storm, err := mem.GetStormByID(ctx, 1)
	require.NoError(t, err)

	lastSeen := time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC)
	require.NoError(t, mem.TouchLastSeen(ctx, storm.ID, lastSeen))
	require.NoError(t, mem.TransitionStatus(ctx, storm.ID, model.StatusActive, model.StatusDormant, audit.Entry{
		StormID:      storm.ID,
		StormCode:    storm.Code,
		Action:       audit.ActionStatusChanged,
		FromStatus:   model.StatusActive,
		ToStatus:     model.StatusDormant,
		CreatedAtUTC: lastSeen,
	}))

	j := NewIngestObservationsJob(deps)

	storms, err := j.Storms(ctx)
	require.NoError(t, err)
	require.Contains(t, storms, storm.ID)

	j.Run(ctx, storm.ID)

	after, err := mem.GetStormByID(ctx, storm.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDormant, after.Status, "an older advisory must not reactivate a dormant storm")
}

func TestMaxIssuanceTimeUTC(t *testing.T) {
	t.Parallel()

	assert.True(t, maxIssuanceTimeUTC(nil).IsZero())

	base := time.Date(2025, 10, 18, 3, 40, 0, 0, time.UTC)
	advisories := []model.Advisory{
		{IssuanceTimeUTC: base.Add(6 * time.Hour)},
		{IssuanceTimeUTC: base},
	}

	assert.True(t, maxIssuanceTimeUTC(advisories).Equal(base.Add(6*time.Hour)))
}

func TestActiveAndDormantStormIDs(t *testing.T) {
	t.Parallel()

	mem := store.NewMemory()
	ctx := context.Background()

	active, err := mem.UpsertStorm(ctx, model.Storm{Code: "01L", Basin: model.BasinAL, Status: model.StatusActive})
	require.NoError(t, err)

	dormant, err := mem.UpsertStorm(ctx, model.Storm{Code: "02L", Basin: model.BasinAL, Status: model.StatusActive})
	require.NoError(t, err)
	require.NoError(t, mem.TransitionStatus(ctx, dormant.ID, model.StatusActive, model.StatusDormant, audit.Entry{
		StormID:      dormant.ID,
		StormCode:    dormant.Code,
		Action:       audit.ActionStatusChanged,
		FromStatus:   model.StatusActive,
		ToStatus:     model.StatusDormant,
		CreatedAtUTC: time.Now().UTC(),
	}))

	ids, err := activeAndDormantStormIDs(ctx, mem)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{active.ID, dormant.ID}, ids)
}
