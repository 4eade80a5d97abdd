package statsd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlassian/gmetricd"
	"github.com/atlassian/gmetricd/internal/fixtures"
	"github.com/atlassian/gmetricd/pkg/store"
)

func TestSummarizeTimer(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		samples  []float64
		pct      float64
		expected TimerSummary
	}{
		{
			name:     "one to ten",
			samples:  []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1},
			pct:      90,
			expected: TimerSummary{Count: 10, Min: 1, Max: 10, Mean: 5, UpperPct: 9},
		},
		{
			name:     "single sample",
			samples:  []float64{42},
			pct:      90,
			expected: TimerSummary{Count: 1, Min: 42, Max: 42, Mean: 42, UpperPct: 42},
		},
		{
			name:     "two samples",
			samples:  []float64{4, 2},
			pct:      90,
			expected: TimerSummary{Count: 2, Min: 2, Max: 4, Mean: 2, UpperPct: 2},
		},
		{
			name:     "hundredth percentile",
			samples:  []float64{1, 2, 3, 4},
			pct:      100,
			expected: TimerSummary{Count: 4, Min: 1, Max: 4, Mean: 2.5, UpperPct: 4},
		},
		{
			name:     "low percentile clamps to first sample",
			samples:  []float64{3, 1, 2},
			pct:      10,
			expected: TimerSummary{Count: 3, Min: 1, Max: 3, Mean: 1, UpperPct: 1},
		},
		{
			name:     "fractional percentile",
			samples:  []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			pct:      55.5,
			expected: TimerSummary{Count: 10, Min: 1, Max: 10, Mean: 3, UpperPct: 5},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, SummarizeTimer(tt.samples, tt.pct))
		})
	}
}

func TestAggregatorFlush(t *testing.T) {
	t.Parallel()
	st := store.New()
	st.IncrementCounter("hits", 50, 0)
	st.IncrementCounter("idle", 0, 0)
	for i := 1; i <= 10; i++ {
		st.RecordTimer("latency", float64(i*100))
	}
	st.RecordTimer("unused", 1)
	st.FlushTimers(func(string, []float64) {}) // leaves "unused" empty
	st.SetGauge("temperature", 21.5)

	a := NewMetricAggregator(st, 90, 10*time.Second)
	points := fixtures.ByName(a.Flush())

	expected := map[string]gmetricd.Datapoint{
		"hits":                      {Name: "hits", Group: "hits", Unit: "count/sec", Value: 5, Type: gmetricd.DOUBLE},
		"hits_total":                {Name: "hits_total", Group: "hits", Unit: "count", Value: 50, Type: gmetricd.DOUBLE},
		"idle":                      {Name: "idle", Group: "idle", Unit: "count/sec", Value: 0, Type: gmetricd.DOUBLE},
		"idle_total":                {Name: "idle_total", Group: "idle", Unit: "count", Value: 0, Type: gmetricd.DOUBLE},
		"latency_mean":              {Name: "latency_mean", Group: "latency", Unit: "sec", Value: 0.5, Type: gmetricd.DOUBLE},
		"latency_upper":             {Name: "latency_upper", Group: "latency", Unit: "sec", Value: 1, Type: gmetricd.DOUBLE},
		"latency_upper_90":          {Name: "latency_upper_90", Group: "latency", Unit: "sec", Value: 0.9, Type: gmetricd.DOUBLE},
		"latency_lower":             {Name: "latency_lower", Group: "latency", Unit: "sec", Value: 0.1, Type: gmetricd.DOUBLE},
		"latency_count":             {Name: "latency_count", Group: "latency", Unit: "count", Value: 10, Type: gmetricd.INT32},
		"temperature":               {Name: "temperature", Group: "temperature", Unit: "value", Value: 21.5, Type: gmetricd.DOUBLE},
		"statsd_numstats_collected": {Name: "statsd_numstats_collected", Group: "statsd", Unit: "count", Value: 3, Type: gmetricd.INT32},
	}
	require.Len(t, points, len(expected))
	for name, e := range expected {
		p, ok := points[name]
		require.True(t, ok, name)
		assert.Equal(t, e.Group, p.Group, name)
		assert.Equal(t, e.Unit, p.Unit, name)
		assert.Equal(t, e.Type, p.Type, name)
		assert.InDelta(t, e.Value, p.Value, 1e-9, name)
	}

	// Reset law: counters are zero, timers are empty, gauges are kept.
	snap := st.Snapshot()
	assert.Equal(t, map[string]float64{"hits": 0, "idle": 0}, snap.Counters)
	for key, samples := range snap.Timers {
		assert.Empty(t, samples, key)
	}
	assert.Equal(t, map[string]float64{"temperature": 21.5}, snap.Gauges)

	// A second flush still emits the zeroed counters but no timers.
	points = fixtures.ByName(a.Flush())
	assert.Contains(t, points, "hits")
	assert.NotContains(t, points, "latency_mean")
	assert.EqualValues(t, 2, points[NumStatsName].Value)
}

func TestAggregatorPercentileSuffix(t *testing.T) {
	t.Parallel()
	st := store.New()
	st.RecordTimer("t", 1)
	a := NewMetricAggregator(st, 99.5, time.Second)
	assert.Contains(t, fixtures.ByName(a.Flush()), "t_upper_99_5")
}
