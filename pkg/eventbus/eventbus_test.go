package eventbus_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclonewatch/stormtrack/pkg/eventbus"
)

func TestBusPublishFansOutToAllSubscribers(t *testing.T) {
	bus := eventbus.New()

	var gotA, gotB eventbus.Event

	bus.Subscribe(func(e eventbus.Event) { gotA = e })
	bus.Subscribe(func(e eventbus.Event) { gotB = e })

	event := eventbus.StormStatusChanged{StormCode: "28W", From: "active", To: "dormant", Reason: "stale", At: time.Now()}
	bus.Publish(event)

	assert.Equal(t, event, gotA)
	assert.Equal(t, event, gotB)
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := eventbus.New()

	calls := 0
	unsubscribe := bus.Subscribe(func(eventbus.Event) { calls++ })

	bus.Publish(eventbus.ZonesUpdated{StormCode: "28W"})
	require.Equal(t, 1, calls)

	unsubscribe()

	bus.Publish(eventbus.ZonesUpdated{StormCode: "28W"})
	assert.Equal(t, 1, calls)
}

func TestBusIsolatesPanickingHandler(t *testing.T) {
	bus := eventbus.New()

	bus.Subscribe(func(eventbus.Event) { panic("boom") })

	delivered := false
	bus.Subscribe(func(eventbus.Event) { delivered = true })

	assert.NotPanics(t, func() {
		bus.Publish(eventbus.AdvisoryIngested{StormCode: "28W", AdvisoryID: 1})
	})
	assert.True(t, delivered)
}
