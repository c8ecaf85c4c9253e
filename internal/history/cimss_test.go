package history_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/internal/history"
)

func TestParseCIMSS_ExtractsPositionalFields(t *testing.T) {
	t.Parallel()

	// date time pressure intensity ... lat lon <3 trailing tokens>
	raw := "2025OCT18 034000 1004 30 14.25N 126.75W X Y Z\n"

	advisories, report := history.ParseCIMSS(raw)
	require.Len(t, advisories, 1)
	assert.Equal(t, 0, report.SkippedLines)

	adv := advisories[0]
	assert.InDelta(t, 1004, adv.MSLPHpa, 1e-9)
	assert.InDelta(t, 30, adv.VmaxKt, 1e-9)
	assert.InDelta(t, 14.25, adv.Lat, 1e-9)
	assert.InDelta(t, -126.75, adv.Lon, 1e-9)
	assert.Equal(t, 18, adv.IssuanceTimeUTC.Day())
	assert.Equal(t, 3, adv.IssuanceTimeUTC.Hour())
}

func TestParseCIMSS_SkipsShortRows(t *testing.T) {
	t.Parallel()

	_, report := history.ParseCIMSS("too short\n")
	assert.Equal(t, 1, report.SkippedLines)
}
