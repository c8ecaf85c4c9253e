package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/internal/lifecycle"
	"github.com/cyclonewatch/stormtrack/internal/model"
	"github.com/cyclonewatch/stormtrack/internal/store"
	"github.com/cyclonewatch/stormtrack/pkg/eventbus"
)

func TestCheckDormantTransitionsAfter24Hours(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemory()
	bus := eventbus.New()

	var events []eventbus.Event
	bus.Subscribe(func(e eventbus.Event) { events = append(events, e) })

	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	storm, err := s.UpsertStorm(ctx, model.Storm{
		Code: "28W", Basin: model.BasinWP, Status: model.StatusActive,
		FirstSeenUTC: now, LastSeenUTC: now,
	})
	require.NoError(t, err)

	checker := lifecycle.NewChecker(s, bus)

	later := now.Add(25 * time.Hour)
	require.NoError(t, checker.CheckDormant(ctx, storm, later))

	got, err := s.GetStormByCode(ctx, "28W")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDormant, got.Status)
	require.Len(t, events, 1)

	change, ok := events[0].(eventbus.StormStatusChanged)
	require.True(t, ok)
	assert.Equal(t, "active", change.From)
	assert.Equal(t, "dormant", change.To)
}

func TestCheckDormantIsNoopBeforeThreshold(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemory()
	checker := lifecycle.NewChecker(s, nil)

	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	storm, err := s.UpsertStorm(ctx, model.Storm{
		Code: "28W", Basin: model.BasinWP, Status: model.StatusActive,
		FirstSeenUTC: now, LastSeenUTC: now,
	})
	require.NoError(t, err)

	require.NoError(t, checker.CheckDormant(ctx, storm, now.Add(2*time.Hour)))

	got, err := s.GetStormByCode(ctx, "28W")
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, got.Status)
}

func TestCheckArchiveRequiresAtLeastOneAdvisory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemory()
	checker := lifecycle.NewChecker(s, nil)

	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	storm, err := s.UpsertStorm(ctx, model.Storm{
		Code: "28W", Basin: model.BasinWP, Status: model.StatusDormant,
		FirstSeenUTC: now, LastSeenUTC: now,
	})
	require.NoError(t, err)

	err = checker.CheckArchive(ctx, storm, now.Add(169*time.Hour))
	require.ErrorIs(t, err, lifecycle.ErrNoAdvisories)
}

func TestCheckArchiveComputesStatsPack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemory()
	checker := lifecycle.NewChecker(s, nil)

	base := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
	storm, err := s.UpsertStorm(ctx, model.Storm{
		Code: "28W", Basin: model.BasinWP, Status: model.StatusDormant,
		FirstSeenUTC: base, LastSeenUTC: base,
	})
	require.NoError(t, err)

	advisories := []model.Advisory{
		{IssuanceTimeUTC: base, Lat: 14.0, Lon: 128.0, VmaxKt: 35, MSLPHpa: 1000},
		{IssuanceTimeUTC: base.Add(6 * time.Hour), Lat: 14.5, Lon: 128.5, VmaxKt: 65, MSLPHpa: 975},
		{IssuanceTimeUTC: base.Add(12 * time.Hour), Lat: 15.0, Lon: 129.0, VmaxKt: 40, MSLPHpa: 990},
	}
	_, err = s.UpsertAdvisories(ctx, storm.ID, advisories)
	require.NoError(t, err)

	now := base.Add(169 * time.Hour)
	require.NoError(t, checker.CheckArchive(ctx, storm, now))

	got, err := s.GetStormByCode(ctx, "28W")
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, got.Status)

	log := s.AuditLog()
	require.Len(t, log, 1)
	require.NotNil(t, log[0].ArchivalStats)
	assert.InDelta(t, 65.0, log[0].ArchivalStats.PeakVmaxKt, 1e-9)
	assert.InDelta(t, 975.0, log[0].ArchivalStats.MinMSLPHpa, 1e-9)
	assert.Equal(t, 3, log[0].ArchivalStats.AdvisoryCount)
	assert.Greater(t, log[0].ArchivalStats.TrackLengthKm, 0.0)
}
