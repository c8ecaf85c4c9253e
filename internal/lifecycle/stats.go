package lifecycle

import (
	"github.com/cyclonewatch/stormtrack/internal/audit"
	"github.com/cyclonewatch/stormtrack/internal/geo"
	"github.com/cyclonewatch/stormtrack/internal/model"
	"github.com/cyclonewatch/stormtrack/pkg/metrics"
)

// aceMinVmaxKt is the vmax floor for ACE accumulation.
const aceMinVmaxKt = 34.0

// aceIntervalHours is the bucket width ACE is summed over.
const aceIntervalHours = 6.0

// peakVmaxMetric reports the highest vmax across a storm's advisories.
type peakVmaxMetric struct{ metrics.MetricMeta }

func (peakVmaxMetric) Compute(advisories []model.Advisory) float64 {
	var peak float64

	for _, a := range advisories {
		if a.VmaxKt > peak {
			peak = a.VmaxKt
		}
	}

	return peak
}

// minMSLPMetric reports the lowest reported sea-level pressure, ignoring
// advisories that never recorded one (MSLPHpa == 0).
type minMSLPMetric struct{ metrics.MetricMeta }

func (minMSLPMetric) Compute(advisories []model.Advisory) float64 {
	var min float64

	for _, a := range advisories {
		if a.MSLPHpa <= 0 {
			continue
		}

		if min == 0 || a.MSLPHpa < min {
			min = a.MSLPHpa
		}
	}

	return min
}

// aceMetric computes Accumulated Cyclone Energy: sum of vmax^2/10000 over
// advisories with vmax >= 34kt, bucketed into 6-hour intervals.
type aceMetric struct{ metrics.MetricMeta }

func (aceMetric) Compute(advisories []model.Advisory) float64 {
	if len(advisories) == 0 {
		return 0
	}

	buckets := make(map[int64]float64)

	base := advisories[0].IssuanceTimeUTC

	for _, a := range advisories {
		if a.VmaxKt < aceMinVmaxKt {
			continue
		}

		hoursSinceBase := a.IssuanceTimeUTC.Sub(base).Hours()
		bucket := int64(hoursSinceBase / aceIntervalHours)

		contribution := a.VmaxKt * a.VmaxKt / 10000

		if existing, ok := buckets[bucket]; !ok || contribution > existing {
			buckets[bucket] = contribution
		}
	}

	var total float64
	for _, v := range buckets {
		total += v
	}

	return total
}

// trackLengthMetric sums great-circle distance between consecutive
// advisories.
type trackLengthMetric struct{ metrics.MetricMeta }

func (trackLengthMetric) Compute(advisories []model.Advisory) float64 {
	var total float64

	for i := 1; i < len(advisories); i++ {
		prev := geo.Point{Lon: advisories[i-1].Lon, Lat: advisories[i-1].Lat}
		cur := geo.Point{Lon: advisories[i].Lon, Lat: advisories[i].Lat}
		total += geo.DistanceKm(prev, cur)
	}

	return total
}

// newArchivalRegistry builds a new archival-stats metric registry on each
// call, reusing the
// teacher's generic Metric[In, Out]/Registry framework (pkg/metrics)
// instead of hand-rolling a parallel aggregation mechanism.
func newArchivalRegistry() *metrics.Registry {
	r := metrics.NewRegistry()

	metrics.Register[[]model.Advisory, float64](r, peakVmaxMetric{metrics.MetricMeta{
		MetricName: "peak_vmax_kt", MetricDisplayName: "Peak intensity", MetricType: "aggregate",
	}})
	metrics.Register[[]model.Advisory, float64](r, minMSLPMetric{metrics.MetricMeta{
		MetricName: "min_mslp_hpa", MetricDisplayName: "Minimum pressure", MetricType: "aggregate",
	}})
	metrics.Register[[]model.Advisory, float64](r, aceMetric{metrics.MetricMeta{
		MetricName: "ace", MetricDisplayName: "Accumulated Cyclone Energy", MetricType: "aggregate",
	}})
	metrics.Register[[]model.Advisory, float64](r, trackLengthMetric{metrics.MetricMeta{
		MetricName: "track_length_km", MetricDisplayName: "Track length", MetricType: "aggregate",
	}})

	return r
}

// ComputeArchivalStats builds the archival statistics pack for a storm's
// full advisory history.
func ComputeArchivalStats(advisories []model.Advisory) audit.ArchivalStats {
	r := newArchivalRegistry()

	compute := func(name string) float64 {
		m, ok := r.Get(name)
		if !ok {
			return 0
		}

		typed, ok := m.(interface{ Compute([]model.Advisory) float64 })
		if !ok {
			return 0
		}

		return typed.Compute(advisories)
	}

	var duration float64
	if len(advisories) > 0 {
		duration = advisories[len(advisories)-1].IssuanceTimeUTC.Sub(advisories[0].IssuanceTimeUTC).Hours()
	}

	return audit.ArchivalStats{
		PeakVmaxKt:    compute("peak_vmax_kt"),
		MinMSLPHpa:    compute("min_mslp_hpa"),
		ACE:           compute("ace"),
		TrackLengthKm: compute("track_length_km"),
		DurationHours: duration,
		AdvisoryCount: len(advisories),
		LandfallCount: 0,
	}
}
