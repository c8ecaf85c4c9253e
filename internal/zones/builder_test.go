package zones_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/internal/geo"
	"github.com/cyclonewatch/stormtrack/internal/model"
	"github.com/cyclonewatch/stormtrack/internal/zones"
)

func trackPoint(issuance time.Time, leadHours int, lat, lon, r34NM float64) model.ForecastPoint {
	return model.ForecastPoint{
		IssuanceTimeUTC: issuance,
		ValidAtUTC:      issuance.Add(time.Duration(leadHours) * time.Hour),
		LeadHours:       leadHours,
		Lat:             lat,
		Lon:             lon,
		Radii:           []model.Radii{{Quadrant: model.QuadrantNE, R34: r34NM}},
	}
}

func TestBuildClassifiesByTOFIHorizon(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	issuance := now

	// Segment A is reached immediately -> warning.
	segA := zones.Segment{ID: "A", Start: geo.Point{Lon: 121.0, Lat: 18.0}, End: geo.Point{Lon: 121.2, Lat: 17.8}}
	// Segment B is only reached around lead 36h -> watch.
	segB := zones.Segment{ID: "B", Start: geo.Point{Lon: 125.0, Lat: 12.0}, End: geo.Point{Lon: 125.2, Lat: 11.8}}
	// Segment C is never reached within 48h -> excluded.
	segC := zones.Segment{ID: "C", Start: geo.Point{Lon: 140.0, Lat: 35.0}, End: geo.Point{Lon: 140.2, Lat: 34.8}}

	track := []model.ForecastPoint{
		trackPoint(issuance, 0, 17.9, 121.1, 40),
		trackPoint(issuance, 12, 17.9, 121.1, 40),
		trackPoint(issuance, 24, 15.0, 123.0, 40),
		trackPoint(issuance, 36, 11.9, 125.1, 40),
		trackPoint(issuance, 48, 11.9, 125.1, 40),
	}

	zonesOut, err := zones.Build(track, []zones.Segment{segA, segB, segC}, now, zones.DefaultParams())
	require.NoError(t, err)
	require.Len(t, zonesOut, 2)

	byType := make(map[model.ZoneType]model.Zone)
	for _, z := range zonesOut {
		byType[z.Type] = z
	}

	warning, ok := byType[model.ZoneTypeWarning]
	require.True(t, ok, "expected a warning zone for segment A")
	assert.Equal(t, now, warning.ValidFrom)
	assert.Equal(t, now.Add(24*time.Hour), warning.ValidTo)

	watch, ok := byType[model.ZoneTypeWatch]
	require.True(t, ok, "expected a watch zone for segment B")
	assert.Equal(t, now.Add(48*time.Hour), watch.ValidTo)
}

func TestBuildReturnsErrNoForecastOnEmptyTrack(t *testing.T) {
	t.Parallel()

	_, err := zones.Build(nil, nil, time.Now(), zones.DefaultParams())
	require.ErrorIs(t, err, zones.ErrNoForecast)
}

func TestLoadCoastSourceCoversWestPacificAndAtlantic(t *testing.T) {
	t.Parallel()

	cs, err := zones.LoadCoastSource()
	require.NoError(t, err)

	assert.NotEmpty(t, cs.SegmentsFor(model.BasinWP))
	assert.NotEmpty(t, cs.SegmentsFor(model.BasinAL))
	assert.Empty(t, cs.SegmentsFor(model.BasinIO), "no coastdata file is bundled for IO yet")
}
