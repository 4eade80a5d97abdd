package statsd

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/ash2k/stager/wait"
	"github.com/libp2p/go-reuseport"
	"github.com/sirupsen/logrus"
	"github.com/tilinna/clock"
	"golang.org/x/time/rate"

	"github.com/atlassian/gmetricd"
	"github.com/atlassian/gmetricd/pkg/queue"
	"github.com/atlassian/gmetricd/pkg/store"
)

// Server encapsulates all of the parameters necessary for starting up
// the daemon. These can either be set via command line or directly.
type Server struct {
	Logger                    logrus.FieldLogger
	Store                     *store.Store
	Backends                  []gmetricd.Backend
	Runnables                 []gmetricd.Runnable
	MetricsAddr               string
	ConsoleAddr               string
	ConsoleListener           net.Listener // If set, used instead of listening on ConsoleAddr
	FlushInterval             time.Duration
	FlushOffset               time.Duration
	FlushAligned              bool
	PercentThreshold          float64
	MaxReaders                int
	ConnPerReader             bool
	MaxQueueSize              int
	BadLineRateLimitPerSecond rate.Limit
	FriendlyConsole           bool
}

// SocketFactory is an indirection layer over net.ListenPacket() to allow for different implementations.
type SocketFactory func() (net.PacketConn, error)

// Run runs the server until context signals done.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithCustomSocket(ctx, s.socketFactory())
}

func (s *Server) socketFactory() SocketFactory {
	if s.ConnPerReader {
		return func() (net.PacketConn, error) {
			return reuseport.ListenPacket("udp", s.MetricsAddr)
		}
	}
	return func() (net.PacketConn, error) {
		return net.ListenPacket("udp", s.MetricsAddr)
	}
}

// InitStats stamps the bookkeeping stats at startup.
func InitStats(st *store.Store, now time.Time) {
	st.SetStat(gmetricd.StatGroupFlush, gmetricd.StatLastFlush, now.Unix())
	st.SetStat(gmetricd.StatGroupMessages, gmetricd.StatLastMessageSeen, now.Unix())
	st.SetStat(gmetricd.StatGroupMessages, gmetricd.StatBadLinesSeen, 0)
}

// RunWithCustomSocket runs the server until context signals done, or a listener fails.
// Listening sockets are created using sf.
func (s *Server) RunWithCustomSocket(ctx context.Context, sf SocketFactory) error {
	if s.MaxReaders < 1 {
		return fmt.Errorf("max readers must be positive, got %d", s.MaxReaders)
	}
	if s.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive, got %v", s.FlushInterval)
	}
	st := s.Store
	InitStats(st, clock.FromContext(ctx).Now())

	// 1. Bind every socket before starting anything
	numConns := 1
	if s.ConnPerReader {
		numConns = s.MaxReaders
	}
	conns := make([]net.PacketConn, 0, numConns)
	closeConns := func() {
		for _, c := range conns {
			if err := c.Close(); err != nil {
				s.Logger.WithError(err).Warn("Error closing socket")
			}
		}
	}
	for i := 0; i < numConns; i++ {
		c, err := sf()
		if err != nil {
			closeConns()
			return fmt.Errorf("failed to listen for metrics: %v", err)
		}
		conns = append(conns, c)
	}

	consoleListener := s.ConsoleListener
	if consoleListener == nil && s.ConsoleAddr != "" {
		l, err := net.Listen("tcp", s.ConsoleAddr)
		if err != nil {
			closeConns()
			return fmt.Errorf("failed to listen for console connections: %v", err)
		}
		consoleListener = l
	}

	var wg wait.Group
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, s.MaxReaders+1)

	// 2. Start runnables and the worker
	for _, runnable := range s.Runnables {
		wg.StartWithContext(ctx, runnable)
	}

	q := queue.New(s.MaxQueueSize, func() {
		st.IncrementStat(gmetricd.StatGroupMessages, gmetricd.StatDroppedPackets, 1)
	})
	worker := NewPacketWorker(s.Logger.WithField("component", "worker"), q, st, s.BadLineRateLimitPerSecond)
	wg.StartWithContext(ctx, worker.Run)

	// 3. Start the Flusher
	aggregator := NewMetricAggregator(st, s.PercentThreshold, s.FlushInterval)
	flusher := NewMetricFlusher(s.Logger.WithField("component", "flusher"), s.FlushInterval, s.FlushOffset, s.FlushAligned, aggregator, st, s.Backends)
	wg.StartWithContext(ctx, flusher.Run)

	// 4. Start the console
	if consoleListener != nil {
		console := NewConsoleServer(s.Logger.WithField("component", "console"), st, s.FriendlyConsole)
		wg.Start(func() {
			if err := console.Serve(ctx, consoleListener); err != nil {
				errs <- fmt.Errorf("console failed: %v", err)
			}
		})
	}

	// 5. Start the Receivers
	receiver := NewMetricReceiver(s.Logger.WithField("component", "receiver"), q)
	for r := 0; r < s.MaxReaders; r++ {
		c := conns[r%len(conns)]
		wg.Start(func() {
			if err := receiver.Receive(ctx, c); err != nil {
				errs <- err
			}
		})
	}
	wg.Start(func() {
		<-ctx.Done()
		// This makes receivers error out and stop
		closeConns()
	})

	s.Logger.WithFields(logrus.Fields{
		"metrics-addr": s.MetricsAddr,
		"console-addr": s.ConsoleAddr,
		"readers":      s.MaxReaders,
		"backends":     len(s.Backends),
	}).Info("Server started")

	// 6. Listen until done
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errs:
		return err
	}
}
