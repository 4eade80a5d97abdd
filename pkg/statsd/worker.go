package statsd

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tilinna/clock"
	"golang.org/x/time/rate"

	"github.com/atlassian/gmetricd"
	"github.com/atlassian/gmetricd/pkg/parser"
	"github.com/atlassian/gmetricd/pkg/store"
)

// Dequeuer supplies raw packets, blocking until one is available.
type Dequeuer interface {
	Dequeue(ctx context.Context) ([]byte, error)
}

// PacketWorker is the single consumer of the packet queue. It parses every packet and applies the samples to the
// Store.
type PacketWorker struct {
	// Counter fields below must be read/written only using atomic instructions.
	// 64-bit fields must be the first fields in the struct to guarantee proper memory alignment.
	// See https://golang.org/pkg/sync/atomic/#pkg-note-BUG
	samplesProcessed uint64
	badLines         uint64

	logger         logrus.FieldLogger
	queue          Dequeuer
	store          *store.Store
	badLineLimiter *rate.Limiter
}

// NewPacketWorker initialises a new PacketWorker. At most badLineRateLimitPerSecond bad lines are logged per
// second.
func NewPacketWorker(logger logrus.FieldLogger, queue Dequeuer, st *store.Store, badLineRateLimitPerSecond rate.Limit) *PacketWorker {
	return &PacketWorker{
		logger:         logger,
		queue:          queue,
		store:          st,
		badLineLimiter: rate.NewLimiter(badLineRateLimitPerSecond, 1),
	}
}

// Run processes packets until the context is done.
func (pw *PacketWorker) Run(ctx context.Context) {
	clck := clock.FromContext(ctx)
	for {
		msg, err := pw.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		pw.handlePacket(clck.Now(), msg)
	}
}

func (pw *PacketWorker) handlePacket(now time.Time, msg []byte) {
	samples, bad := parser.ParsePacket(msg)
	for i := range samples {
		pw.apply(&samples[i])
	}
	atomic.AddUint64(&pw.samplesProcessed, uint64(len(samples)))

	pw.store.SetStat(gmetricd.StatGroupMessages, gmetricd.StatLastMessageSeen, now.Unix())
	if len(bad) == 0 {
		return
	}
	atomic.AddUint64(&pw.badLines, uint64(len(bad)))
	pw.store.IncrementStat(gmetricd.StatGroupMessages, gmetricd.StatBadLinesSeen, int64(len(bad)))
	for _, err := range bad {
		// logging as debug to avoid spamming logs when a bad actor sends
		// badly formatted messages
		if pw.badLineLimiter.Allow() {
			pw.logger.WithError(err).Debug("Error parsing packet")
		}
	}
}

func (pw *PacketWorker) apply(s *gmetricd.Sample) {
	switch s.Type {
	case gmetricd.COUNTER:
		pw.store.IncrementCounter(s.Name, s.Value, s.Rate)
	case gmetricd.TIMER:
		pw.store.RecordTimer(s.Name, s.Value)
	case gmetricd.GAUGE:
		pw.store.SetGauge(s.Name, s.Value)
	default:
		pw.logger.WithField("sample", s.String()).Warn("Unknown sample type")
	}
}
