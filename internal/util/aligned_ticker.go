package util

import (
	"context"
	"time"

	"github.com/tilinna/clock"
)

// AlignedTicker delivers ticks at offset past every multiple of interval, so that several daemons flushing with
// the same interval send their data at the same moment. Instead of firing at:
// [T+1*interval, T+2*interval, ...]
//
// It fires at:
// [roundup(T-offset, interval)+offset, ... + interval, ...]
//
// The time sent on C is the boundary itself, not the time the tick was observed. Ticks are dropped if the reader
// falls behind, like time.Ticker.
type AlignedTicker struct {
	C <-chan time.Time

	ch       chan time.Time
	stop     chan struct{}
	interval time.Duration
	offset   time.Duration
}

// NewAlignedTicker starts an AlignedTicker driven by the clock attached to ctx. It stops when ctx is done or Stop
// is called.
func NewAlignedTicker(ctx context.Context, interval, offset time.Duration) *AlignedTicker {
	ch := make(chan time.Time, 1)
	at := &AlignedTicker{
		C:        ch,
		ch:       ch,
		stop:     make(chan struct{}),
		interval: interval,
		offset:   offset,
	}
	go at.run(ctx)
	return at
}

// nextBoundary returns the first aligned time strictly after now.
func nextBoundary(now time.Time, interval, offset time.Duration) time.Time {
	return now.Add(-offset).Truncate(interval).Add(interval + offset)
}

func (at *AlignedTicker) run(ctx context.Context) {
	clck := clock.FromContext(ctx)
	for {
		now := clck.Now()
		next := nextBoundary(now, at.interval, at.offset)
		tmr := clck.NewTimer(next.Sub(now))
		select {
		case <-tmr.C:
			select {
			case at.ch <- next:
			default:
			}
		case <-at.stop:
			tmr.Stop()
			return
		case <-ctx.Done():
			tmr.Stop()
			return
		}
	}
}

// Stop turns off the ticker. It must only be called once.
func (at *AlignedTicker) Stop() {
	close(at.stop)
}
