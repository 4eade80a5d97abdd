// Package fakesocket provides net.PacketConn implementations for tests and benchmarks.
package fakesocket

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"
)

// FakeAddr is a fake net.Addr
var FakeAddr = &net.UDPAddr{
	IP:   net.IPv4(127, 0, 0, 1),
	Port: 8181,
}

// ErrClosedConnection is returned when reading from or writing to a closed connection.
var ErrClosedConnection = errors.New("connection is closed")

// ErrAlreadyClosedConnection is returned when closing a closed connection.
var ErrAlreadyClosedConnection = errors.New("connection is already closed")

// ScriptedPacketConn is a net.PacketConn which returns the given packets in order, and then blocks until closed.
type ScriptedPacketConn struct {
	packets chan []byte
	closed  chan struct{}
	once    sync.Once
}

var _ net.PacketConn = &ScriptedPacketConn{}

// NewScriptedPacketConn creates a ScriptedPacketConn returning packets.
func NewScriptedPacketConn(packets ...[]byte) *ScriptedPacketConn {
	ch := make(chan []byte, len(packets))
	for _, p := range packets {
		ch <- p
	}
	return &ScriptedPacketConn{
		packets: ch,
		closed:  make(chan struct{}),
	}
}

// ReadFrom copies the next packet into b.
func (spc *ScriptedPacketConn) ReadFrom(b []byte) (int, net.Addr, error) {
	select {
	case <-spc.closed:
		return 0, nil, ErrClosedConnection
	default:
	}
	select {
	case p := <-spc.packets:
		return copy(b, p), FakeAddr, nil
	case <-spc.closed:
		return 0, nil, ErrClosedConnection
	}
}

// WriteTo dummy impl.
func (spc *ScriptedPacketConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	select {
	case <-spc.closed:
		return 0, ErrClosedConnection
	default:
		return len(b), nil
	}
}

// Close unblocks readers.
func (spc *ScriptedPacketConn) Close() error {
	err := ErrAlreadyClosedConnection
	spc.once.Do(func() {
		close(spc.closed)
		err = nil
	})
	return err
}

// LocalAddr dummy impl.
func (spc *ScriptedPacketConn) LocalAddr() net.Addr { return FakeAddr }

// SetDeadline dummy impl.
func (spc *ScriptedPacketConn) SetDeadline(t time.Time) error { return nil }

// SetReadDeadline dummy impl.
func (spc *ScriptedPacketConn) SetReadDeadline(t time.Time) error { return nil }

// SetWriteDeadline dummy impl.
func (spc *ScriptedPacketConn) SetWriteDeadline(t time.Time) error { return nil }

// FailingPacketConn is a net.PacketConn whose reads fail with Err.
type FailingPacketConn struct {
	*ScriptedPacketConn
	Err error
}

// NewFailingPacketConn creates a FailingPacketConn.
func NewFailingPacketConn(err error) *FailingPacketConn {
	return &FailingPacketConn{
		ScriptedPacketConn: NewScriptedPacketConn(),
		Err:                err,
	}
}

// ReadFrom returns Err.
func (fpc *FailingPacketConn) ReadFrom(b []byte) (int, net.Addr, error) {
	return 0, nil, fpc.Err
}

// RandomPacketConn is a net.PacketConn providing an endless supply of random metrics.
type RandomPacketConn struct {
	closed chan struct{}
	once   sync.Once
}

// ReadFrom generates a random packet and writes in into b.
func (rpc *RandomPacketConn) ReadFrom(b []byte) (int, net.Addr, error) {
	select {
	case <-rpc.closed:
		return 0, nil, ErrClosedConnection
	default:
	}
	num := rand.Int31n(10000) // Randomize metric name
	buf := new(bytes.Buffer)
	switch rand.Int31n(3) {
	case 0: // Counter
		fmt.Fprintf(buf, "statsd.tester.counter_%d:%f|c\n", num, rand.Float64()*100) // #nosec
	case 1: // Timer
		for i := 0; i < 10; i++ {
			fmt.Fprintf(buf, "statsd.tester.timer_%d:%f|ms\n", num, rand.Float64()*100) // #nosec
		}
	case 2: // Batch
		fmt.Fprintf(buf, `[{"counter":"statsd.tester.batch_%d","value":%f,"sample_rate":0.5},{"timer":"statsd.tester.batch_%d","value":%f}]`,
			num, rand.Float64()*100, num, rand.Float64()*100) // #nosec
	default:
		panic(errors.New("unreachable"))
	}
	n := copy(b, buf.Bytes())
	return n, FakeAddr, nil
}

// WriteTo dummy impl.
func (rpc *RandomPacketConn) WriteTo(b []byte, addr net.Addr) (int, error) { return len(b), nil }

// Close stops the supply of packets.
func (rpc *RandomPacketConn) Close() error {
	err := ErrAlreadyClosedConnection
	rpc.once.Do(func() {
		close(rpc.closed)
		err = nil
	})
	return err
}

// LocalAddr dummy impl.
func (rpc *RandomPacketConn) LocalAddr() net.Addr { return FakeAddr }

// SetDeadline dummy impl.
func (rpc *RandomPacketConn) SetDeadline(t time.Time) error { return nil }

// SetReadDeadline dummy impl.
func (rpc *RandomPacketConn) SetReadDeadline(t time.Time) error { return nil }

// SetWriteDeadline dummy impl.
func (rpc *RandomPacketConn) SetWriteDeadline(t time.Time) error { return nil }

// Factory is a replacement for net.ListenPacket() that produces instances of RandomPacketConn.
func Factory() (net.PacketConn, error) {
	return &RandomPacketConn{closed: make(chan struct{})}, nil
}
