package gmetricd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricTypeString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "counter", COUNTER.String())
	assert.Equal(t, "timer", TIMER.String())
	assert.Equal(t, "gauge", GAUGE.String())
	assert.Equal(t, "unknown", MetricType(42).String())
}

func TestSampleString(t *testing.T) {
	t.Parallel()
	s := &Sample{Name: "foo", Value: 1.5, Rate: 0.5, Type: TIMER}
	assert.Equal(t, "{timer, foo, 1.500000, 0.500000}", s.String())
}
