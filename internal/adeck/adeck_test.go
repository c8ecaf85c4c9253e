package adeck_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/internal/adeck"
)

func TestIsEnsembleMember(t *testing.T) {
	t.Parallel()

	assert.True(t, adeck.IsEnsembleMember("AP01"))
	assert.True(t, adeck.IsEnsembleMember("ap30"))
	assert.False(t, adeck.IsEnsembleMember("AP31"))
	assert.False(t, adeck.IsEnsembleMember("AVNO"))
}

func line(lat, lon float64, vmax float64, leadHour int) string {
	latTok := fmt.Sprintf("%03dN", int(lat*10))
	lonTok := fmt.Sprintf("%04dW", int(-lon*10))

	return fmt.Sprintf("WP, 28, 2025101812, 00, AP01, %02d, %s, %s, %.0f, 1000",
		leadHour, latTok, lonTok, vmax)
}

// TestReduce_S3 mirrors scenario S3: 30 members at forecast hour 24 with
// lat in [14.8,15.4], lon in [-128.0,-127.6], vmax in [55,75].
func TestReduce_S3(t *testing.T) {
	t.Parallel()

	var lines []string

	for i := 0; i < 30; i++ {
		lat := 14.8 + float64(i)*(15.4-14.8)/29
		lon := -128.0 + float64(i)*(-127.6-(-128.0))/29
		vmax := 55 + float64(i)*(75-55)/29

		raw := line(lat, lon, vmax, 24)
		raw = strings.Replace(raw, "AP01", fmt.Sprintf("AP%02d", i+1), 1)
		lines = append(lines, raw)
	}

	fixes := adeck.Parse(strings.Join(lines, "\n"))
	require.Len(t, fixes, 30)

	points := adeck.Reduce(fixes)
	require.Len(t, points, 1)

	p := points[0]
	assert.Equal(t, 24, p.LeadHours)
	assert.Equal(t, 30, p.MemberCount)
	assert.InDelta(t, 15.10, p.Lat, 0.05)
	assert.InDelta(t, -127.80, p.Lon, 0.05)
	assert.InDelta(t, 65, p.VmaxKt, 1)
	assert.Equal(t, p.IssuanceTimeUTC.Add(24*time.Hour), p.ValidAtUTC)
}

// TestReduce_S4 mirrors scenario S4: members straddling the antimeridian at
// lead 48h, longitudes [179.5, -179.5].
func TestReduce_S4(t *testing.T) {
	t.Parallel()

	fixes := []adeck.Fix{}
	for i := 0; i < 2; i++ {
		lon := 179.5
		if i == 1 {
			lon = -179.5
		}

		fixes = append(fixes, adeck.Fix{
			ModelCode:    fmt.Sprintf("AP%02d", i+1),
			IssuanceUTC:  time.Date(2025, 10, 18, 12, 0, 0, 0, time.UTC),
			ForecastHour: 48,
			Lat:          15,
			Lon:          lon,
			VmaxKt:       60,
		})
	}

	points := adeck.Reduce(fixes)
	require.Len(t, points, 1)

	resultLon := points[0].Lon
	assert.True(t, resultLon > 179 || resultLon < -179, "expected mean lon near antimeridian, got %v", resultLon)
}
