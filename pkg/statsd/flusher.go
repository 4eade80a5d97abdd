package statsd

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tilinna/clock"

	"github.com/atlassian/gmetricd"
	"github.com/atlassian/gmetricd/internal/util"
	"github.com/atlassian/gmetricd/pkg/store"
)

// MetricFlusher periodically aggregates the Store and sends the result to the backends.
type MetricFlusher struct {
	logger        logrus.FieldLogger
	flushInterval time.Duration // How often to flush metrics to the backends
	flushOffset   time.Duration // Offset for when to flush if alignment is enabled
	flushAligned  bool          // Indicate if flush is aligned to the interval or not
	aggregator    *MetricAggregator
	store         *store.Store
	backends      []gmetricd.Backend
}

// NewMetricFlusher creates a new MetricFlusher with provided configuration.
func NewMetricFlusher(logger logrus.FieldLogger, flushInterval, flushOffset time.Duration, aligned bool, aggregator *MetricAggregator, st *store.Store, backends []gmetricd.Backend) *MetricFlusher {
	return &MetricFlusher{
		logger:        logger,
		flushInterval: flushInterval,
		flushOffset:   flushOffset,
		flushAligned:  aligned,
		aggregator:    aggregator,
		store:         st,
		backends:      backends,
	}
}

func (f *MetricFlusher) makeTicker(ctx context.Context) (<-chan time.Time, func()) {
	if f.flushAligned {
		flushTicker := util.NewAlignedTicker(ctx, f.flushInterval, f.flushOffset)
		return flushTicker.C, flushTicker.Stop
	}
	clck := clock.FromContext(ctx)
	flushTicker := clck.NewTicker(f.flushInterval)
	return flushTicker.C, flushTicker.Stop
}

// Run runs the MetricFlusher until the context is done.
func (f *MetricFlusher) Run(ctx context.Context) {
	ch, stop := f.makeTicker(ctx)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case thisFlush := <-ch: // Time to flush to the backends
			f.flushData(ctx, thisFlush)
		}
	}
}

func (f *MetricFlusher) flushData(ctx context.Context, now time.Time) {
	points := f.aggregator.Flush()
	f.logger.WithField("datapoints", len(points)).Debug("Flushing")

	var wg sync.WaitGroup
	wg.Add(len(f.backends))
	for _, backend := range f.backends {
		backend := backend
		backend.SendMetricsAsync(ctx, points, func(errs []error) {
			defer wg.Done()
			f.handleSendResult(backend.Name(), now, errs)
		})
	}
	wg.Wait()
}

func (f *MetricFlusher) handleSendResult(name string, now time.Time, errs []error) {
	failed := false
	for _, err := range errs {
		if err != nil {
			failed = true
			if err != context.DeadlineExceeded && err != context.Canceled {
				f.logger.WithError(err).WithField("backend", name).Error("Sending metrics to backend failed")
			}
		}
	}
	if failed {
		f.store.SetStat(gmetricd.StatGroupFlush, gmetricd.StatLastException, now.Unix())
		return
	}
	f.store.SetStat(gmetricd.StatGroupFlush, gmetricd.StatLastFlush, now.Unix())
}
