package radii_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/internal/model"
	"github.com/cyclonewatch/stormtrack/internal/radii"
)

func TestParse_TwelveQuadrantValues(t *testing.T) {
	t.Parallel()

	raw := "18OCT20250340 120 80 40 100 70 35 90 60 30 110 75 38\n"

	records := radii.Parse(raw)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, model.QuadrantNE, rec.Quadrants[0].Quadrant)
	assert.InDelta(t, 120, rec.Quadrants[0].R34, 1e-9)
	assert.InDelta(t, 80, rec.Quadrants[0].R50, 1e-9)
	assert.InDelta(t, 40, rec.Quadrants[0].R64, 1e-9)
}

func TestMatchToAdvisory_WithinWindow(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 10, 18, 12, 0, 0, 0, time.UTC)

	advisories := []model.Advisory{
		{IssuanceTimeUTC: base},
		{IssuanceTimeUTC: base.Add(6 * time.Hour)},
	}

	rec := radii.Record{TimestampUTC: base.Add(2 * time.Hour)}
	idx := radii.MatchToAdvisory(rec, advisories)
	assert.Equal(t, 0, idx)

	farRec := radii.Record{TimestampUTC: base.Add(-4 * time.Hour)}
	assert.Equal(t, -1, radii.MatchToAdvisory(farRec, advisories))
}

func TestInferQuadrants_NestingHolds(t *testing.T) {
	t.Parallel()

	quads := radii.InferQuadrants(model.BasinWP, 65, 12)
	require.Len(t, quads, 4)

	for _, q := range quads {
		assert.True(t, q.NestingValid())
		assert.Equal(t, model.RadiiSourceInferred, q.Source)
	}

	// NE (right-front analog) should be largest at nonzero forward speed.
	var ne, sw float64

	for _, q := range quads {
		switch q.Quadrant {
		case model.QuadrantNE:
			ne = q.R34
		case model.QuadrantSW:
			sw = q.R34
		}
	}

	assert.Greater(t, ne, sw)
}

func TestLoadBasinCoefficients_OverridesTable(t *testing.T) {
	original := radii.BasinCoefficients[model.BasinWP][34]
	t.Cleanup(func() {
		radii.BasinCoefficients[model.BasinWP][34] = original
	})

	path := filepath.Join(t.TempDir(), "coefficients.yaml")
	contents := "WP:\n  34:\n    a: 9.9\n    b: 1.1\n    c: 30\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	require.NoError(t, radii.LoadBasinCoefficients(path))

	got := radii.BasinCoefficients[model.BasinWP][34]
	assert.InDelta(t, 9.9, got.A, 1e-9)
	assert.InDelta(t, 1.1, got.B, 1e-9)
	assert.InDelta(t, 30, got.C, 1e-9)
}
