package gmetricd

import (
	"fmt"
)

// MetricType is an enumeration of all the possible types of Sample.
type MetricType byte

const (
	_ = iota
	// COUNTER is statsd counter type
	COUNTER MetricType = iota
	// TIMER is statsd timer type
	TIMER
	// GAUGE is statsd gauge type
	GAUGE
)

func (m MetricType) String() string {
	switch m {
	case COUNTER:
		return "counter"
	case TIMER:
		return "timer"
	case GAUGE:
		return "gauge"
	}
	return "unknown"
}

// Sample is a single observation decoded from the wire.
type Sample struct {
	Name  string     // The sanitized name of the metric
	Value float64    // The value of the observation
	Rate  float64    // The sampling rate of the observation, 0 if none was given
	Type  MetricType // The type of metric
}

func (s *Sample) String() string {
	return fmt.Sprintf("{%s, %s, %f, %f}", s.Type, s.Name, s.Value, s.Rate)
}
