package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryMetrics_Counter(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Counter(MetricRebalanceApplied, 2)
	m.Counter(MetricRebalanceApplied, 1)
	m.Counter(MetricPlannerRequests, 1, T("outcome", "ok"))

	assert.Equal(t, int64(3), m.GetCounter(MetricRebalanceApplied))
	assert.Equal(t, int64(1), m.GetCounter(MetricPlannerRequests, T("outcome", "ok")))
	assert.Zero(t, m.GetCounter(MetricPlannerRequests, T("outcome", "error")))
}

func TestInMemoryMetrics_TagOrder(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Counter(MetricEventsPublished, 1, T("routing_key", "a"), T("broker", "local"))

	assert.Equal(t, int64(1), m.GetCounter(MetricEventsPublished, T("broker", "local"), T("routing_key", "a")))
}

func TestInMemoryMetrics_GaugeAndTiming(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Gauge(MetricPlannerBreakerState, 2)
	m.Gauge(MetricPlannerBreakerState, 0)
	m.Timing(MetricOperationDuration, 10*time.Millisecond)
	m.Timing(MetricOperationDuration, 30*time.Millisecond)

	assert.Zero(t, m.GetGauge(MetricPlannerBreakerState))
	assert.Len(t, m.GetTimings(MetricOperationDuration), 2)
	assert.Zero(t, m.GetCounter(MetricOperationDuration), "timings are not counters")
}

func TestInMemoryMetrics_Snapshot(t *testing.T) {
	m := NewInMemoryMetrics()
	m.Counter(MetricRebalancePreviews, 4)
	m.Timing(MetricOperationDuration, 10*time.Millisecond, T("operation", "rebalance.preview"))
	m.Timing(MetricOperationDuration, 30*time.Millisecond, T("operation", "rebalance.preview"))

	snap := m.Snapshot()

	require.Len(t, snap, 2)
	assert.Equal(t, "kinplan.operation.duration_ms{operation=rebalance.preview}", snap[0].Series)
	assert.Equal(t, KindTiming, snap[0].Kind)
	assert.Equal(t, float64(2), snap[0].Value)
	assert.InDelta(t, 20.0, snap[0].MeanMS, 0.001)
	assert.Equal(t, Sample{Series: MetricRebalancePreviews, Kind: KindCounter, Value: 4}, snap[1])
}

func TestInMemoryMetrics_Concurrent(t *testing.T) {
	m := NewInMemoryMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Counter(MetricRebalanceApplied, 1)
			_ = m.Snapshot()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), m.GetCounter(MetricRebalanceApplied))
}

func TestNoopMetrics(t *testing.T) {
	var m Metrics = NoopMetrics{}
	m.Counter("x", 1)
	m.Gauge("x", 1)
	m.Timing("x", time.Second)
}
