package gmetricd

import (
	"context"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ValueType is the type a Datapoint is reported as. The values match the gmetric type ids.
type ValueType uint32

const (
	_ ValueType = iota
	// STRING is reported verbatim.
	STRING
	// UINT16 is an unsigned short.
	UINT16
	// INT16 is a signed short.
	INT16
	// UINT32 is an unsigned int.
	UINT32
	// INT32 is a signed int.
	INT32
	// FLOAT is a single precision float.
	FLOAT
	// DOUBLE is a double precision float.
	DOUBLE
)

// Datapoint is a single aggregated value produced by a flush.
type Datapoint struct {
	Name  string    // Fully qualified name of the value
	Group string    // Optional group the value belongs to
	Unit  string    // Unit of the value, free text
	Value float64   // The value
	Type  ValueType // How the value should be reported
}

// FormatValue renders the value as decimal text, integers without a fractional part.
func (d *Datapoint) FormatValue() string {
	switch d.Type {
	case UINT16, INT16, UINT32, INT32:
		return strconv.FormatInt(int64(d.Value), 10)
	}
	return strconv.FormatFloat(d.Value, 'f', -1, 64)
}

// SendCallback is called by Backend.SendMetricsAsync() to notify about the result of operation.
// A list of errors is passed to the callback. It may be empty or contain nil values. Every non-nil value is an error
// that happened while sending metrics.
type SendCallback func([]error)

// Backend represents a backend.
// If Backend implements the Runner interface, it's started in a new goroutine at creation.
type Backend interface {
	// Name returns the name of the backend.
	Name() string
	// SendMetricsAsync sends the datapoints of a flush cycle, calling cb once done.
	// Must not retain the slice after cb has been called.
	SendMetricsAsync(context.Context, []*Datapoint, SendCallback)
}

// BackendFactory is a function that can be used to create a backend.
type BackendFactory func(v *viper.Viper, logger logrus.FieldLogger) (Backend, error)
