package statsd

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// ip packet size is stored in two bytes and that is how big in theory the packet can be.
// In practice it is highly unlikely but still possible to get packets bigger than usual MTU of 1500.
const packetSizeUDP = 0xffff

// Enqueuer accepts raw packets for later processing.
type Enqueuer interface {
	Enqueue([]byte) bool
}

// MetricReceiver reads datagrams from a PacketConn and hands a copy of each to an Enqueuer. It does no parsing,
// so the socket is drained as fast as possible.
type MetricReceiver struct {
	// Counter fields below must be read/written only using atomic instructions.
	// 64-bit fields must be the first fields in the struct to guarantee proper memory alignment.
	// See https://golang.org/pkg/sync/atomic/#pkg-note-BUG
	lastPacket      int64 // When last packet was received. Unix timestamp in nsec.
	packetsReceived uint64

	logger logrus.FieldLogger
	queue  Enqueuer
}

// NewMetricReceiver initialises a new MetricReceiver.
func NewMetricReceiver(logger logrus.FieldLogger, queue Enqueuer) *MetricReceiver {
	return &MetricReceiver{
		logger: logger,
		queue:  queue,
	}
}

// Receive reads datagrams from c until it is closed. Closing c after ctx is done is a normal shutdown and returns
// nil; any other non-temporary error is returned.
func (mr *MetricReceiver) Receive(ctx context.Context, c net.PacketConn) error {
	buf := make([]byte, packetSizeUDP)
	for {
		// This will error out when the socket is closed.
		nbytes, _, err := c.ReadFrom(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if netErr, ok := err.(net.Error); ok && netErr.Temporary() {
				mr.logger.WithError(err).Warn("Error reading from socket")
				continue
			}
			return fmt.Errorf("error reading from socket: %v", err)
		}
		atomic.AddUint64(&mr.packetsReceived, 1)
		atomic.StoreInt64(&mr.lastPacket, time.Now().UnixNano())
		if nbytes == 0 {
			continue
		}
		msg := make([]byte, nbytes)
		copy(msg, buf[:nbytes])
		mr.queue.Enqueue(msg)
	}
}
