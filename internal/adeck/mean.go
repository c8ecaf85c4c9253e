package adeck

import (
	"sort"
	"time"

	"github.com/cyclonewatch/stormtrack/internal/model"
)

// Reduce groups fixes by (issuance_time, forecast_hour), selects the most
// recent issuance present, and computes the per-lead-time ensemble mean
//. Returns model.ForecastPoint values with IsFinal set and
// SourceTag "adeck-ensemble-mean".
func Reduce(fixes []Fix) []model.ForecastPoint {
	if len(fixes) == 0 {
		return nil
	}

	latest := fixes[0].IssuanceUTC
	for _, f := range fixes[1:] {
		if f.IssuanceUTC.After(latest) {
			latest = f.IssuanceUTC
		}
	}

	byLead := make(map[int][]Fix)

	for _, f := range fixes {
		if !f.IssuanceUTC.Equal(latest) {
			continue
		}

		byLead[f.ForecastHour] = append(byLead[f.ForecastHour], f)
	}

	leads := make([]int, 0, len(byLead))
	for lead := range byLead {
		leads = append(leads, lead)
	}

	sort.Ints(leads)

	points := make([]model.ForecastPoint, 0, len(leads))

	for _, lead := range leads {
		members := byLead[lead]

		lat, lon := meanPosition(members)

		var vmaxSum, mslpSum float64
		for _, m := range members {
			vmaxSum += m.VmaxKt
			mslpSum += m.MSLPHpa
		}

		n := float64(len(members))

		points = append(points, model.ForecastPoint{
			IssuanceTimeUTC: latest,
			ValidAtUTC:      latest.Add(time.Duration(lead) * time.Hour),
			LeadHours:       lead,
			Lat:             lat,
			Lon:             lon,
			VmaxKt:          vmaxSum / n,
			MSLPHpa:         mslpSum / n,
			MemberCount:     len(members),
			SourceTag:       "adeck-ensemble-mean",
			IsFinal:         true,
		})
	}

	return points
}

// meanPosition computes the mean lat/lon across members, handling the
// antimeridian case by rotating longitudes into [0, 360) before averaging
// when the raw longitude range exceeds 180°, then renormalizing back into
// (-180, 180].
func meanPosition(members []Fix) (lat, lon float64) {
	var latSum float64

	minLon, maxLon := members[0].Lon, members[0].Lon

	for _, m := range members {
		latSum += m.Lat

		if m.Lon < minLon {
			minLon = m.Lon
		}

		if m.Lon > maxLon {
			maxLon = m.Lon
		}
	}

	lat = latSum / float64(len(members))

	if maxLon-minLon > 180 {
		var rotatedSum float64

		for _, m := range members {
			rotated := m.Lon
			if rotated < 0 {
				rotated += 360
			}

			rotatedSum += rotated
		}

		meanRotated := rotatedSum / float64(len(members))

		lon = meanRotated
		if lon > 180 {
			lon -= 360
		}

		if lon <= -180 {
			lon += 360
		}

		return lat, lon
	}

	var lonSum float64
	for _, m := range members {
		lonSum += m.Lon
	}

	lon = lonSum / float64(len(members))

	return lat, lon
}
