package fixtures

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

// testWriter sends log output to the test log, so it is only shown for failing or verbose tests.
type testWriter struct {
	tb testing.TB
}

var _ io.Writer = testWriter{}

func (w testWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(string(p))
	return len(p), nil
}

// NewTestLogger returns a debug level logger writing to tb.
func NewTestLogger(tb testing.TB) logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.DebugLevel)
	l.SetOutput(testWriter{tb: tb})
	return l
}
