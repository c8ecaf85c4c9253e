package history_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/internal/history"
)

// TestParseStandard_S2 mirrors scenario S2: two valid rows plus one
// malformed row.
func TestParseStandard_S2(t *testing.T) {
	t.Parallel()

	raw := "202510180340 14.25N 126.75W 1004.6 30\n" +
		"202510180940 14.80N 127.10W 1002.0 35\n" +
		"not a valid row at all\n"

	advisories, report := history.ParseStandard(raw)

	require.Len(t, advisories, 2)
	assert.Equal(t, 1, report.SkippedLines)
	assert.Equal(t, 2, report.ParsedLines)

	assert.InDelta(t, 14.25, advisories[0].Lat, 1e-9)
	assert.InDelta(t, -126.75, advisories[0].Lon, 1e-9)
	assert.InDelta(t, 1004.6, advisories[0].MSLPHpa, 1e-9)
	assert.InDelta(t, 30, advisories[0].VmaxKt, 1e-9)

	assert.Equal(t, advisories[1].IssuanceTimeUTC.Hour(), 9)
}

func TestParseStandard_SkipsCommentsAndBlankLines(t *testing.T) {
	t.Parallel()

	raw := "# header comment\n\n202510180340 14.25N 126.75W 1004.6 30\n"

	advisories, report := history.ParseStandard(raw)
	require.Len(t, advisories, 1)
	assert.Equal(t, 0, report.SkippedLines)
}

func TestReport_FailureRateExceeded(t *testing.T) {
	t.Parallel()

	r := history.Report{ParsedLines: 1, SkippedLines: 2}
	assert.True(t, r.FailureRateExceeded())

	r2 := history.Report{ParsedLines: 2, SkippedLines: 1}
	assert.False(t, r2.FailureRateExceeded())
}
