package statsd

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/ash2k/stager/wait"
	"github.com/sirupsen/logrus"

	"github.com/atlassian/gmetricd/pkg/store"
)

// consoleWriteTimeout bounds how long a slow client can hold up the dispatcher.
const consoleWriteTimeout = 5 * time.Second

// ConsoleServer serves the text management protocol over TCP.
//
// Connection goroutines only split input into lines. Every command from every connection is executed, and every
// response written, by a single dispatcher goroutine.
type ConsoleServer struct {
	logger   logrus.FieldLogger
	store    *store.Store
	friendly bool
}

// NewConsoleServer creates a ConsoleServer. In friendly mode clients are sent a prompt.
func NewConsoleServer(logger logrus.FieldLogger, st *store.Store, friendly bool) *ConsoleServer {
	return &ConsoleServer{
		logger:   logger,
		store:    st,
		friendly: friendly,
	}
}

type consoleEvent int

const (
	eventOpen consoleEvent = iota
	eventLine
	eventClosed
)

type consoleRequest struct {
	conn  *consoleConn
	event consoleEvent
	line  string
}

// consoleConn represents a single ConsoleServer connection.
type consoleConn struct {
	conn      net.Conn
	closeOnce sync.Once
}

func (cc *consoleConn) close() {
	cc.closeOnce.Do(func() {
		_ = cc.conn.Close()
	})
}

// Serve accepts connections on l until ctx is done or accepting fails. l is closed on return.
func (cs *ConsoleServer) Serve(ctx context.Context, l net.Listener) error {
	var wg wait.Group
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	requests := make(chan consoleRequest)
	wg.StartWithContext(ctx, func(ctx context.Context) {
		cs.dispatch(ctx, requests)
	})
	wg.Start(func() {
		<-ctx.Done()
		_ = l.Close()
	})

	for {
		c, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if netErr, ok := err.(net.Error); ok && netErr.Temporary() {
				cs.logger.WithError(err).Warn("Error accepting console connection")
				continue
			}
			return err
		}
		cc := &consoleConn{conn: c}
		wg.Start(func() {
			cs.read(ctx, cc, requests)
		})
	}
}

// read forwards the lines received on cc to the dispatcher.
func (cs *ConsoleServer) read(ctx context.Context, cc *consoleConn, requests chan<- consoleRequest) {
	defer cc.close()
	send := func(req consoleRequest) bool {
		select {
		case <-ctx.Done():
			return false
		case requests <- req:
			return true
		}
	}
	if !send(consoleRequest{conn: cc, event: eventOpen}) {
		return
	}
	scanner := bufio.NewScanner(cc.conn)
	for scanner.Scan() {
		if !send(consoleRequest{conn: cc, event: eventLine, line: scanner.Text()}) {
			return
		}
	}
	send(consoleRequest{conn: cc, event: eventClosed})
}

func (cs *ConsoleServer) dispatch(ctx context.Context, requests <-chan consoleRequest) {
	conns := make(map[*consoleConn]struct{})
	defer func() {
		for cc := range conns {
			cc.close()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-requests:
			switch req.event {
			case eventOpen:
				conns[req.conn] = struct{}{}
				if cs.friendly && !cs.write(req.conn, prompt) {
					delete(conns, req.conn)
					req.conn.close()
				}
			case eventLine:
				cmd := parseCommand(req.line)
				keep := cs.write(req.conn, func(w *bufio.Writer) bool {
					keep := respond(w, cs.store, cmd)
					if keep && cs.friendly {
						w.WriteString(ConsolePrompt)
					}
					return keep
				})
				if !keep {
					delete(conns, req.conn)
					req.conn.close()
				}
			case eventClosed:
				delete(conns, req.conn)
				req.conn.close()
			}
		}
	}
}

func prompt(w *bufio.Writer) bool {
	w.WriteString(ConsolePrompt)
	return true
}

// write runs f against a buffered writer for cc and flushes it. It reports false if the connection should be
// closed, either because f said so or because the write failed.
func (cs *ConsoleServer) write(cc *consoleConn, f func(w *bufio.Writer) bool) bool {
	_ = cc.conn.SetWriteDeadline(time.Now().Add(consoleWriteTimeout))
	w := bufio.NewWriter(cc.conn)
	keep := f(w)
	if err := w.Flush(); err != nil {
		cs.logger.WithError(err).Debug("Error writing to console connection")
		return false
	}
	return keep
}
