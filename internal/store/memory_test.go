package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/internal/audit"
	"github.com/cyclonewatch/stormtrack/internal/model"
	"github.com/cyclonewatch/stormtrack/internal/store"
)

func newTestStorm(t *testing.T, s store.Store, code string) model.Storm {
	t.Helper()

	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	storm, err := s.UpsertStorm(context.Background(), model.Storm{
		Code:         code,
		Basin:        model.BasinWP,
		Status:       model.StatusActive,
		FirstSeenUTC: now,
		LastSeenUTC:  now,
	})
	require.NoError(t, err)

	return storm
}

func TestUpsertStormIsIdempotentByCode(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	ctx := context.Background()

	first := newTestStorm(t, s, "28W")
	second, err := s.UpsertStorm(ctx, model.Storm{Code: "28W", Basin: model.BasinWP})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	all, err := s.ListStormsByStatus(ctx, model.StatusActive)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertAdvisoriesDeduplicatesByChecksum(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	ctx := context.Background()
	storm := newTestStorm(t, s, "28W")

	issuance := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	advisory := model.Advisory{IssuanceTimeUTC: issuance, Lat: 14.2, Lon: 128.5, VmaxKt: 45}

	written, err := s.UpsertAdvisories(ctx, storm.ID, []model.Advisory{advisory})
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	writtenAgain, err := s.UpsertAdvisories(ctx, storm.ID, []model.Advisory{advisory})
	require.NoError(t, err)
	assert.Equal(t, 0, writtenAgain, "resubmitting identical content must be a no-op")

	changed := advisory
	changed.VmaxKt = 50

	writtenChanged, err := s.UpsertAdvisories(ctx, storm.ID, []model.Advisory{changed})
	require.NoError(t, err)
	assert.Equal(t, 1, writtenChanged)

	list, err := s.ListAdvisories(ctx, storm.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.InDelta(t, 50, list[0].VmaxKt, 1e-9)
}

func TestReplaceForecastLeavesExactlyOneFinalSet(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	ctx := context.Background()
	storm := newTestStorm(t, s, "28W")

	issuance := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	first := []model.ForecastPoint{
		{IssuanceTimeUTC: issuance, ValidAtUTC: issuance.Add(24 * time.Hour), LeadHours: 24, Lat: 15, Lon: 130},
	}
	require.NoError(t, s.ReplaceForecast(ctx, storm.ID, first))

	second := []model.ForecastPoint{
		{IssuanceTimeUTC: issuance.Add(6 * time.Hour), ValidAtUTC: issuance.Add(30 * time.Hour), LeadHours: 24, Lat: 15.5, Lon: 130.5},
		{IssuanceTimeUTC: issuance.Add(6 * time.Hour), ValidAtUTC: issuance.Add(54 * time.Hour), LeadHours: 48, Lat: 16, Lon: 131},
	}
	require.NoError(t, s.ReplaceForecast(ctx, storm.ID, second))

	latest, err := s.LatestForecast(ctx, storm.ID)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, 24, latest[0].LeadHours)
	assert.Equal(t, 48, latest[1].LeadHours)
}

func TestTransitionStatusRejectsStaleFrom(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	ctx := context.Background()
	storm := newTestStorm(t, s, "28W")
	now := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)

	entry := audit.NewStatusChange(storm, model.StatusActive, model.StatusDormant, "stale", now)
	require.NoError(t, s.TransitionStatus(ctx, storm.ID, model.StatusActive, model.StatusDormant, entry))

	staleEntry := audit.NewStatusChange(storm, model.StatusActive, model.StatusDormant, "stale again", now)
	err := s.TransitionStatus(ctx, storm.ID, model.StatusActive, model.StatusDormant, staleEntry)
	require.ErrorIs(t, err, store.ErrConcurrentTransition)

	got, err := s.GetStormByCode(ctx, storm.Code)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDormant, got.Status)

	log := s.AuditLog()
	assert.Len(t, log, 1, "rejected transition must not append a second audit entry")
}

func TestTouchLastSeenReactivatesDormantStorm(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	ctx := context.Background()
	storm := newTestStorm(t, s, "28W")
	now := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)

	entry := audit.NewStatusChange(storm, model.StatusActive, model.StatusDormant, "stale", now)
	require.NoError(t, s.TransitionStatus(ctx, storm.ID, model.StatusActive, model.StatusDormant, entry))

	reactivatedAt := now.Add(72 * time.Hour)
	require.NoError(t, s.TouchLastSeen(ctx, storm.ID, reactivatedAt))

	got, err := s.GetStormByCode(ctx, storm.Code)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, got.Status)
	assert.Equal(t, reactivatedAt, got.LastSeenUTC)
}

func TestGetStormByCodeNotFound(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()

	_, err := s.GetStormByCode(context.Background(), "99Z")
	require.ErrorIs(t, err, store.ErrNotFound)
}
