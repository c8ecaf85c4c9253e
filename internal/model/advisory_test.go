package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cyclonewatch/stormtrack/internal/model"
)

func TestAdvisory_Valid(t *testing.T) {
	t.Parallel()

	good := model.Advisory{Lat: 14.25, Lon: -126.75, VmaxKt: 30}
	assert.True(t, good.Valid())

	bad := model.Advisory{Lat: 95, Lon: -126.75, VmaxKt: 30}
	assert.False(t, bad.Valid())
}

func TestRadii_NestingValid(t *testing.T) {
	t.Parallel()

	assert.True(t, model.Radii{R34: 120, R50: 60, R64: 30}.NestingValid())
	assert.False(t, model.Radii{R34: 30, R50: 60, R64: 90}.NestingValid())
	assert.True(t, model.Radii{R34: 120}.NestingValid())
}

func TestForecastPoint_LeadHoursConsistent(t *testing.T) {
	t.Parallel()

	issuance := time.Date(2025, 10, 18, 12, 0, 0, 0, time.UTC)
	fp := model.ForecastPoint{
		IssuanceTimeUTC: issuance,
		ValidAtUTC:      issuance.Add(24 * time.Hour),
		LeadHours:       24,
	}

	assert.True(t, fp.LeadHoursConsistent())

	fp.LeadHours = 23
	assert.False(t, fp.LeadHoursConsistent())
}
