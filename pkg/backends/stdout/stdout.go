package stdout

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/atlassian/gmetricd"
)

// BackendName is the name of this backend.
const BackendName = "stdout"

// Client writes datapoints to stdout, one per line.
type Client struct {
	logger logrus.FieldLogger
	mu     sync.Mutex
	out    io.Writer
}

// NewClientFromViper constructs a stdout backend.
func NewClientFromViper(v *viper.Viper, logger logrus.FieldLogger) (gmetricd.Backend, error) {
	return NewClient(os.Stdout, logger), nil
}

// NewClient constructs a stdout backend writing to out.
func NewClient(out io.Writer, logger logrus.FieldLogger) *Client {
	return &Client{
		logger: logger,
		out:    out,
	}
}

// SendMetricsAsync prints the datapoints.
func (client *Client) SendMetricsAsync(ctx context.Context, points []*gmetricd.Datapoint, cb gmetricd.SendCallback) {
	buf := preparePayload(points)
	client.mu.Lock()
	_, err := client.out.Write(buf.Bytes())
	client.mu.Unlock()
	if err != nil {
		client.logger.WithError(err).Warn("failed to write datapoints")
	}
	cb([]error{err})
}

func preparePayload(points []*gmetricd.Datapoint) *bytes.Buffer {
	buf := new(bytes.Buffer)
	for _, p := range points {
		_, _ = fmt.Fprintf(buf, "%s %s %s group=%s\n", p.Name, p.FormatValue(), p.Unit, p.Group)
	}
	return buf
}

// Name returns the name of the backend.
func (client *Client) Name() string {
	return BackendName
}
