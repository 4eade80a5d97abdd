package statsd

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atlassian/gmetricd"
	"github.com/atlassian/gmetricd/pkg/store"
)

const (
	// NumStatsName is the name of the health metric counting what a flush processed.
	NumStatsName = "statsd_numstats_collected"
	// NumStatsGroup is the group of NumStatsName.
	NumStatsGroup = "statsd"

	unitCount   = "count"
	unitRate    = "count/sec"
	unitSeconds = "sec"
	unitValue   = "value"
)

// TimerSummary is the outcome of summarising the samples of a timer. Values are in the unit of the samples.
type TimerSummary struct {
	Count int
	Min   float64
	Max   float64
	// Mean of the samples at or below the percentile.
	Mean float64
	// UpperPct is the highest sample at or below the percentile.
	UpperPct float64
}

// SummarizeTimer computes the TimerSummary of samples for the percentile pct, which must be in (0, 100].
// samples must not be empty and are sorted in place.
func SummarizeTimer(samples []float64, pct float64) TimerSummary {
	sort.Float64s(samples)
	count := len(samples)
	ts := TimerSummary{
		Count: count,
		Min:   samples[0],
		Max:   samples[count-1],
	}
	if count == 1 {
		ts.Mean = ts.Min
		ts.UpperPct = ts.Max
		return ts
	}
	thresholdIndex := int(math.Floor(pct / 100 * float64(count)))
	if thresholdIndex < 1 {
		thresholdIndex = 1
	} else if thresholdIndex > count {
		thresholdIndex = count
	}
	ts.UpperPct = samples[thresholdIndex-1]
	sum := 0.0
	for _, v := range samples[:thresholdIndex] {
		sum += v
	}
	ts.Mean = sum / float64(thresholdIndex)
	return ts
}

// MetricAggregator turns the content of a Store into Datapoints, resetting counters and timers as it goes.
type MetricAggregator struct {
	store            *store.Store
	percentThreshold float64
	pctSuffix        string
	flushInterval    time.Duration
}

// NewMetricAggregator creates a MetricAggregator. Counter rates are computed against flushInterval.
func NewMetricAggregator(st *store.Store, percentThreshold float64, flushInterval time.Duration) *MetricAggregator {
	return &MetricAggregator{
		store:            st,
		percentThreshold: percentThreshold,
		pctSuffix:        "_upper_" + strings.Replace(strconv.FormatFloat(percentThreshold, 'f', -1, 64), ".", "_", -1),
		flushInterval:    flushInterval,
	}
}

// Flush produces the Datapoints of one flush cycle.
func (a *MetricAggregator) Flush() []*gmetricd.Datapoint {
	var points []*gmetricd.Datapoint
	numStats := 0
	intervalSeconds := a.flushInterval.Seconds()

	a.store.FlushCounters(func(key string, value float64) {
		numStats++
		rate := value
		if intervalSeconds > 0 {
			rate = value / intervalSeconds
		}
		points = append(points,
			&gmetricd.Datapoint{Name: key, Group: key, Unit: unitRate, Value: rate, Type: gmetricd.DOUBLE},
			&gmetricd.Datapoint{Name: key + "_total", Group: key, Unit: unitCount, Value: value, Type: gmetricd.DOUBLE},
		)
	})

	// Summarise outside of the timers lock.
	timers := make(map[string][]float64)
	a.store.FlushTimers(func(key string, samples []float64) {
		timers[key] = samples
	})
	for key, samples := range timers {
		numStats++
		ts := SummarizeTimer(samples, a.percentThreshold)
		points = append(points,
			&gmetricd.Datapoint{Name: key + "_mean", Group: key, Unit: unitSeconds, Value: ts.Mean / 1000, Type: gmetricd.DOUBLE},
			&gmetricd.Datapoint{Name: key + "_upper", Group: key, Unit: unitSeconds, Value: ts.Max / 1000, Type: gmetricd.DOUBLE},
			&gmetricd.Datapoint{Name: key + a.pctSuffix, Group: key, Unit: unitSeconds, Value: ts.UpperPct / 1000, Type: gmetricd.DOUBLE},
			&gmetricd.Datapoint{Name: key + "_lower", Group: key, Unit: unitSeconds, Value: ts.Min / 1000, Type: gmetricd.DOUBLE},
			&gmetricd.Datapoint{Name: key + "_count", Group: key, Unit: unitCount, Value: float64(ts.Count), Type: gmetricd.INT32},
		)
	}

	a.store.ForEachGauge(func(key string, value float64) {
		points = append(points, &gmetricd.Datapoint{Name: key, Group: key, Unit: unitValue, Value: value, Type: gmetricd.DOUBLE})
	})

	points = append(points, &gmetricd.Datapoint{
		Name:  NumStatsName,
		Group: NumStatsGroup,
		Unit:  unitCount,
		Value: float64(numStats),
		Type:  gmetricd.INT32,
	})
	return points
}
