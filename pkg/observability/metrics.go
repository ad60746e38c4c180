package observability

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Metric names recorded by kinplan.
const (
	MetricOperationTotal    = "kinplan.operation.total"
	MetricOperationDuration = "kinplan.operation.duration_ms"
	MetricOperationErrors   = "kinplan.operation.errors"

	MetricRebalancePreviews  = "kinplan.rebalance.previews"
	MetricRebalanceApplied   = "kinplan.rebalance.applied"
	MetricRebalanceFailed    = "kinplan.rebalance.failed"
	MetricRebalanceConflicts = "kinplan.rebalance.conflicts"

	MetricPlannerRequests     = "kinplan.planner.requests"
	MetricPlannerBreakerState = "kinplan.planner.breaker_state"

	MetricEventsPublished = "kinplan.events.published"
)

// Metrics records counters, gauges and timings.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag labels a metric series.
type Tag struct {
	Key   string
	Value string
}

// T creates a Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)         {}
func (NoopMetrics) Gauge(string, float64, ...Tag)         {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// MetricKind tells what a Sample holds.
type MetricKind string

const (
	KindCounter MetricKind = "counter"
	KindGauge   MetricKind = "gauge"
	KindTiming  MetricKind = "timing"
)

// Sample is the current state of one series.
type Sample struct {
	Series string     `json:"series"`
	Kind   MetricKind `json:"kind"`
	// Value is the counter total, the last gauge value or the timing count.
	Value float64 `json:"value"`
	// MeanMS is set for timings.
	MeanMS float64 `json:"mean_ms,omitempty"`
}

type series struct {
	kind    MetricKind
	value   float64
	timings []time.Duration
}

// InMemoryMetrics keeps every series in process. The container uses it in
// all modes; the MCP metrics resource reads it through Snapshot.
type InMemoryMetrics struct {
	mu     sync.RWMutex
	series map[string]*series
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{series: make(map[string]*series)}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.update(name, tags, KindCounter, func(s *series) { s.value += float64(value) })
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.update(name, tags, KindGauge, func(s *series) { s.value = value })
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.update(name, tags, KindTiming, func(s *series) { s.timings = append(s.timings, duration) })
}

func (m *InMemoryMetrics) update(name string, tags []Tag, kind MetricKind, fn func(*series)) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.series[key]
	if !ok {
		s = &series{kind: kind}
		m.series[key] = s
	}
	fn(s)
}

// GetCounter returns a counter total.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.series[seriesKey(name, tags)]; ok && s.kind == KindCounter {
		return int64(s.value)
	}
	return 0
}

// GetGauge returns the last gauge value.
func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.series[seriesKey(name, tags)]; ok && s.kind == KindGauge {
		return s.value
	}
	return 0
}

// GetTimings returns a copy of the recorded durations.
func (m *InMemoryMetrics) GetTimings(name string, tags ...Tag) []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.series[seriesKey(name, tags)]
	if !ok || s.kind != KindTiming {
		return nil
	}
	return append([]time.Duration(nil), s.timings...)
}

// Snapshot returns every series sorted by name.
func (m *InMemoryMetrics) Snapshot() []Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Sample, 0, len(m.series))
	for key, s := range m.series {
		sample := Sample{Series: key, Kind: s.kind, Value: s.value}
		if s.kind == KindTiming {
			sample.Value = float64(len(s.timings))
			var total time.Duration
			for _, d := range s.timings {
				total += d
			}
			if len(s.timings) > 0 {
				sample.MeanMS = float64(total.Microseconds()) / 1000 / float64(len(s.timings))
			}
		}
		out = append(out, sample)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Series < out[j].Series })
	return out
}

// seriesKey renders name{k=v,...} with tags sorted by key so call sites
// may pass tags in any order.
func seriesKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := append([]Tag(nil), tags...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, t := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	b.WriteByte('}')
	return b.String()
}
