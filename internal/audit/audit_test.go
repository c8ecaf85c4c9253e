package audit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/internal/audit"
	"github.com/cyclonewatch/stormtrack/internal/model"
)

func TestNewStatusChangeCarriesFromAndTo(t *testing.T) {
	storm := model.Storm{ID: 7, Code: "28W"}
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	entry := audit.NewStatusChange(storm, model.StatusActive, model.StatusDormant, "stale", now)

	require.NotEqual(t, entry.ID.String(), "")
	assert.Equal(t, model.StatusActive, entry.FromStatus)
	assert.Equal(t, model.StatusDormant, entry.ToStatus)
	assert.Equal(t, audit.ActionStatusChanged, entry.Action)
	assert.Nil(t, entry.ArchivalStats)
}

func TestNewArchivalCarriesStats(t *testing.T) {
	storm := model.Storm{ID: 7, Code: "28W"}
	stats := audit.ArchivalStats{PeakVmaxKt: 120, ACE: 4.5, AdvisoryCount: 12}

	entry := audit.NewArchival(storm, "past archive threshold", stats, time.Now())

	require.NotNil(t, entry.ArchivalStats)
	assert.Equal(t, model.StatusArchived, entry.ToStatus)
	assert.InDelta(t, 120.0, entry.ArchivalStats.PeakVmaxKt, 0)
}
