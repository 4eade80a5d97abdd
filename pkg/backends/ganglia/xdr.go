package ganglia

import (
	"bytes"
	"encoding/binary"

	"github.com/atlassian/gmetricd"
)

const (
	// Message ids of the gmetric 3.1 protocol. Value messages use metadataID plus the value type.
	metadataID = 128

	// slopeBoth tells gmond the value may go up and down.
	slopeBoth = 3

	valueFormat = "%s"
	groupKey    = "GROUP"
)

var typeNames = [...]string{
	gmetricd.STRING: "string",
	gmetricd.UINT16: "uint16",
	gmetricd.INT16:  "int16",
	gmetricd.UINT32: "uint32",
	gmetricd.INT32:  "int32",
	gmetricd.FLOAT:  "float",
	gmetricd.DOUBLE: "double",
}

func typeName(t gmetricd.ValueType) string {
	if int(t) >= len(typeNames) {
		return ""
	}
	return typeNames[t]
}

// message is one metric as put on the wire.
type message struct {
	host  string
	name  string
	group string
	unit  string
	value string
	typ   gmetricd.ValueType
	spoof bool
	tmax  uint32
	dmax  uint32
}

type xdrWriter struct {
	buf bytes.Buffer
}

func (w *xdrWriter) putUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *xdrWriter) putBool(v bool) {
	if v {
		w.putUint32(1)
	} else {
		w.putUint32(0)
	}
}

// putString writes the length, the bytes and zero padding up to a multiple of four.
func (w *xdrWriter) putString(s string) {
	w.putUint32(uint32(len(s)))
	w.buf.WriteString(s)
	if pad := (4 - len(s)%4) % 4; pad > 0 {
		w.buf.Write(make([]byte, pad))
	}
}

func (w *xdrWriter) header(id uint32, m *message) {
	w.putUint32(id)
	w.putString(m.host)
	w.putString(m.name)
	w.putBool(m.spoof)
}

func (w *xdrWriter) reset() {
	w.buf.Reset()
}

func (w *xdrWriter) bytes() []byte {
	return w.buf.Bytes()
}

// encodeMetadata encodes the packet describing the metric. gmond discards values of metrics it has no metadata for.
func encodeMetadata(w *xdrWriter, m *message) []byte {
	w.reset()
	w.header(metadataID, m)
	w.putString(typeName(m.typ))
	w.putString(m.name)
	w.putString(m.unit)
	w.putUint32(slopeBoth)
	w.putUint32(m.tmax)
	w.putUint32(m.dmax)
	if m.group == "" {
		w.putUint32(0)
	} else {
		w.putUint32(1)
		w.putString(groupKey)
		w.putString(m.group)
	}
	return w.bytes()
}

// encodeValue encodes the packet carrying the value, always as a string.
func encodeValue(w *xdrWriter, m *message) []byte {
	w.reset()
	w.header(metadataID+uint32(m.typ), m)
	w.putString(valueFormat)
	w.putString(m.value)
	return w.bytes()
}
