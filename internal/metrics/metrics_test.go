package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterIncrement(t *testing.T) {
	r := NewRegistry()

	r.IncrementCounter(MessagesSent, nil)
	r.IncrementCounter(MessagesSent, nil)
	r.AddToCounter(MessagesSent, 3, nil)

	snap := r.Snapshot()
	counters := snap["counters"].(map[string]*Counter)
	require.Contains(t, counters, MessagesSent)
	assert.Equal(t, float64(5), counters[MessagesSent].Value)
}

func TestCountersSeparatedByLabels(t *testing.T) {
	r := NewRegistry()

	r.IncrementCounter(GatewayRequests, map[string]string{"status": "200"})
	r.IncrementCounter(GatewayRequests, map[string]string{"status": "200"})
	r.IncrementCounter(GatewayRequests, map[string]string{"status": "500"})

	counters := r.Snapshot()["counters"].(map[string]*Counter)
	assert.Equal(t, float64(2), counters[GatewayRequests+"_status:200"].Value)
	assert.Equal(t, float64(1), counters[GatewayRequests+"_status:500"].Value)
}

func TestTimerAggregation(t *testing.T) {
	r := NewRegistry()

	r.RecordTimer(SendLatency, 10*time.Millisecond, nil)
	r.RecordTimer(SendLatency, 30*time.Millisecond, nil)
	r.RecordTimer(SendLatency, 20*time.Millisecond, nil)

	timers := r.Snapshot()["timers"].(map[string]*Timer)
	timer := timers[SendLatency]
	require.NotNil(t, timer)
	assert.Equal(t, int64(3), timer.Count)
	assert.InDelta(t, 10, timer.Min, 1)
	assert.InDelta(t, 30, timer.Max, 1)
	assert.InDelta(t, 20, timer.Average, 1)
}

func TestTimerP95AfterEnoughSamples(t *testing.T) {
	r := NewRegistry()

	for i := 1; i <= 100; i++ {
		r.RecordTimer(HistoryFetchLatency, time.Duration(i)*time.Millisecond, nil)
	}

	timers := r.Snapshot()["timers"].(map[string]*Timer)
	timer := timers[HistoryFetchLatency]
	require.NotNil(t, timer)
	assert.InDelta(t, 95, timer.P95, 2)
}

func TestGaugeOverwrites(t *testing.T) {
	r := NewRegistry()

	r.SetGauge("queue_depth", 3, nil)
	r.SetGauge("queue_depth", 7, nil)

	gauges := r.Snapshot()["gauges"].(map[string]*Gauge)
	assert.Equal(t, float64(7), gauges["queue_depth"].Value)
}

func TestSnapshotCarriesUptime(t *testing.T) {
	r := NewRegistry()
	snap := r.Snapshot()

	assert.Contains(t, snap, "uptime_ms")
	assert.Contains(t, snap, "timestamp")
}

func TestLabelsCopiedNotAliased(t *testing.T) {
	r := NewRegistry()
	labels := map[string]string{"kind": "text"}
	r.IncrementCounter(MessagesSent, labels)
	labels["kind"] = "mutated"

	counters := r.Snapshot()["counters"].(map[string]*Counter)
	assert.Equal(t, "text", counters[MessagesSent+"_kind:text"].Labels["kind"])
}
