package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tilinna/clock"

	"github.com/atlassian/gmetricd/internal/util"
)

const (
	dialTimeout        = 1 * time.Second
	dialInitialBackOff = 100 * time.Millisecond
	dialMaxElapsedTime = 10 * time.Second
)

func main() {
	parser, opts, err := parseArgs(os.Args[1:])
	if err != nil {
		if isHelp(err) {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		parser.WriteHelp(os.Stderr)
		_, _ = fmt.Fprintf(os.Stderr, "\n\nerror parsing command line: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := logrus.StandardLogger()
	sent, err := send(ctx, logger, opts)
	if opts.Repeat != 1 {
		logger.WithField("packets", sent).Info("done")
	}
	if err != nil && err != context.Canceled {
		logger.WithError(err).Fatal("failed to send")
	}
}

// formatLine renders the options as a single metric line.
func formatLine(opts commandOptions) string {
	name, typ := opts.Counter, "c"
	if opts.Timer != "" {
		name, typ = opts.Timer, "ms"
	}
	line := name + ":" + strconv.FormatInt(opts.Value, 10) + "|" + typ
	if opts.SampleRate != 1 {
		line += "|@" + strconv.FormatFloat(opts.SampleRate, 'f', -1, 64)
	}
	return line
}

func dial(ctx context.Context, logger logrus.FieldLogger, address string) (net.Conn, error) {
	var conn net.Conn
	bo := util.NewExponentialBackOff(dialInitialBackOff, dialMaxElapsedTime, 0)
	err := util.Retry(ctx, bo, func() error {
		var err error
		conn, err = net.DialTimeout("udp", address, dialTimeout)
		return err
	}, func(err error, next time.Duration) {
		logger.WithError(err).WithField("retry-in", next).Warn("failed to connect")
	})
	return conn, err
}

// send writes the packet opts.Repeat times, or until ctx is done if it is 0. It returns the number of packets sent.
func send(ctx context.Context, logger logrus.FieldLogger, opts commandOptions) (uint, error) {
	address := net.JoinHostPort(opts.Host, strconv.Itoa(int(opts.Port)))
	conn, err := dial(ctx, logger, address)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = conn.Close()
	}()

	payload := []byte(formatLine(opts))
	clck := clock.FromContext(ctx)
	var sent uint
	for opts.Repeat == 0 || sent < opts.Repeat {
		if _, err := conn.Write(payload); err != nil {
			return sent, err
		}
		sent++
		if opts.Interval <= 0 {
			if err := ctx.Err(); err != nil {
				return sent, err
			}
			continue
		}
		timer := clck.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return sent, ctx.Err()
		case <-timer.C:
		}
	}
	return sent, nil
}
