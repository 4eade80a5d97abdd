package persist

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlassian/gmetricd/pkg/store"
)

func TestDecode(t *testing.T) {
	t.Parallel()
	snap, err := Decode([]byte(`{
		"stats": {"messages.last_msg_seen": 1500, "flush.last_flush": 1490, "uptime": 7},
		"timers": {"latency": [1, 2.5, 3], "idle": []},
		"counters": {"requests": 3.5}
	}`))
	require.NoError(t, err)
	assert.Equal(t, map[store.StatKey]int64{
		{Group: "messages", Name: "last_msg_seen"}: 1500,
		{Group: "flush", Name: "last_flush"}:       1490,
		{Name: "uptime"}:                           7,
	}, snap.Stats)
	assert.Equal(t, map[string][]float64{
		"latency": {1, 2.5, 3},
		"idle":    {},
	}, snap.Timers)
	assert.Equal(t, map[string]float64{"requests": 3.5}, snap.Counters)
	assert.Empty(t, snap.Gauges)
}

func TestDecodeSplitsAtFirstDot(t *testing.T) {
	t.Parallel()
	snap, err := Decode([]byte(`{"stats": {"a.b.c": 1}}`))
	require.NoError(t, err)
	assert.Equal(t, map[store.StatKey]int64{{Group: "a", Name: "b.c"}: 1}, snap.Stats)
	assert.Empty(t, snap.Timers)
	assert.Empty(t, snap.Counters)
}

func TestDecodeInvalid(t *testing.T) {
	t.Parallel()
	input := []string{
		`{"stats": `,
		`{"counters": {"a": "b"}}`,
		`[]`,
	}
	for _, inp := range input {
		inp := inp
		t.Run(inp, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(inp))
			assert.Error(t, err)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	st := store.New()
	st.IncrementCounter("requests", 3, 1)
	st.IncrementCounter("errors", 1, 0.5)
	st.RecordTimer("latency", 12)
	st.RecordTimer("latency", 7.5)
	st.SetGauge("queue", 42)
	st.SetStat("messages", "bad_lines_seen", 4)
	st.SetStat("", "plain", 9)

	data, err := Encode(st.Snapshot())
	require.NoError(t, err)
	snap, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, st.Snapshot(), snap)
}

func TestEncodeEmptyTimer(t *testing.T) {
	t.Parallel()
	snap := store.NewSnapshot()
	snap.Timers["idle"] = nil
	data, err := Encode(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"stats":{},"timers":{"idle":[]},"counters":{}}`, string(data))
}

func TestEncodeSkipsNonFiniteValues(t *testing.T) {
	t.Parallel()
	st := store.New()
	st.IncrementCounter("overflow", math.MaxFloat64, 1)
	st.IncrementCounter("overflow", math.MaxFloat64, 1)
	st.IncrementCounter("requests", 2, 1)
	st.RecordTimer("latency", math.NaN())
	st.RecordTimer("latency", 5)
	st.SetGauge("broken", math.Inf(-1))
	st.SetGauge("queue", 3)
	st.SetStat("messages", "bad_lines_seen", 1)

	data, err := Encode(st.Snapshot())
	require.NoError(t, err)
	snap, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"requests": 2}, snap.Counters)
	assert.Equal(t, map[string][]float64{"latency": {5}}, snap.Timers)
	assert.Equal(t, map[string]float64{"queue": 3}, snap.Gauges)
	assert.Equal(t, map[store.StatKey]int64{{Group: "messages", Name: "bad_lines_seen"}: 1}, snap.Stats)
}
