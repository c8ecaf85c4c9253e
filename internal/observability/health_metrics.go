// Package observability adapts pkg/observability's OTel instrument
// patterns to pipeline-specific signals: the health job's store/cache
// gauge.
package observability

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/metric"
)

const (
	metricStoreUp      = "stormtrack.health.store.up"
	metricCacheHitRate = "stormtrack.health.cache.hit_rate"
)

// HealthMetrics exposes the health job's last observation as OTel
// observable gauges; the registered callback reports the values cached by
// the latest Observe call.
type HealthMetrics struct {
	storeUp      metric.Int64ObservableGauge
	cacheHitRate metric.Float64ObservableGauge

	mu              sync.Mutex
	storeUpVal      int64
	cacheHitRateVal float64
}

// NewHealthMetrics creates the health gauges from mt.
func NewHealthMetrics(mt metric.Meter) (*HealthMetrics, error) {
	storeUp, err := mt.Int64ObservableGauge(metricStoreUp,
		metric.WithDescription("1 if the store responded to the last health check, 0 otherwise"),
		metric.WithUnit("{status}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricStoreUp, err)
	}

	hitRate, err := mt.Float64ObservableGauge(metricCacheHitRate,
		metric.WithDescription("Validator cache hit rate as of the last health check"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheHitRate, err)
	}

	hm := &HealthMetrics{storeUp: storeUp, cacheHitRate: hitRate}

	if _, err := mt.RegisterCallback(hm.observe, storeUp, hitRate); err != nil {
		return nil, fmt.Errorf("register health metrics callback: %w", err)
	}

	return hm, nil
}

// Observe records the outcome of one health check for the next collection
// cycle to report.
func (hm *HealthMetrics) Observe(storeUp bool, cacheHitRate float64) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if storeUp {
		hm.storeUpVal = 1
	} else {
		hm.storeUpVal = 0
	}

	hm.cacheHitRateVal = cacheHitRate
}

func (hm *HealthMetrics) observe(_ context.Context, obs metric.Observer) error {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	obs.ObserveInt64(hm.storeUp, hm.storeUpVal)
	obs.ObserveFloat64(hm.cacheHitRate, hm.cacheHitRateVal)

	return nil
}
