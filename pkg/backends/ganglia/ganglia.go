package ganglia

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/atlassian/gmetricd"
)

const (
	// BackendName is the name of this backend.
	BackendName = "ganglia"
	// DefaultPort is the default port of gmond.
	DefaultPort = 8649
	// DefaultSpoof is the default spoofed "ip:host" the metrics are reported for.
	DefaultSpoof = "statsd:statsd"
	// DefaultTmax is the default maximum number of seconds between reports of a metric.
	DefaultTmax = 60
	// DefaultDialTimeout is the default net.Dial timeout.
	DefaultDialTimeout = 5 * time.Second
	// DefaultWriteTimeout is the default socket write timeout.
	DefaultWriteTimeout = 5 * time.Second

	// dmaxSlack is added to the flush interval to get the number of seconds gmond keeps a metric around.
	dmaxSlack = 10
)

// Names of the configuration parameters.
const (
	ParamHost   = "ganglia-host"
	ParamPort   = "ganglia-port"
	ParamSpoof  = "ganglia-spoof"
	ParamPrefix = "ganglia-prefix"
	ParamTmax   = "ganglia-tmax"
)

// AddFlags adds the flags of the backend to the specified FlagSet.
func AddFlags(fs *pflag.FlagSet) {
	fs.String(ParamHost, "", "Host running gmond, enables the ganglia backend when no backends are configured")
	fs.Int(ParamPort, DefaultPort, "Port gmond listens on")
	fs.String(ParamSpoof, DefaultSpoof, "Spoofed ip:host the metrics are reported for, empty reports them for this host")
	fs.String(ParamPrefix, "", "Prefix added to every metric name")
	fs.Int(ParamTmax, DefaultTmax, "Maximum number of seconds between reports of a metric")
}

// Client sends datapoints to gmond using the gmetric 3.1 protocol over UDP.
type Client struct {
	logger       logrus.FieldLogger
	address      string
	host         string
	spoof        bool
	prefix       string
	tmax         uint32
	dmax         uint32
	dialTimeout  time.Duration
	writeTimeout time.Duration
}

// NewClientFromViper constructs a Client object using configuration provided by Viper.
func NewClientFromViper(v *viper.Viper, logger logrus.FieldLogger) (gmetricd.Backend, error) {
	v.SetDefault(ParamPort, DefaultPort)
	v.SetDefault(ParamSpoof, DefaultSpoof)
	v.SetDefault(ParamTmax, DefaultTmax)
	v.SetDefault(gmetricd.ParamFlushInterval, gmetricd.DefaultFlushInterval)
	return NewClient(
		v.GetString(ParamHost),
		v.GetInt(ParamPort),
		v.GetString(ParamSpoof),
		v.GetString(ParamPrefix),
		v.GetInt(ParamTmax),
		v.GetDuration(gmetricd.ParamFlushInterval),
		logger,
	)
}

// NewClient constructs a Ganglia backend object. An empty spoof reports the metrics for the local host.
func NewClient(host string, port int, spoof, prefix string, tmax int, flushInterval time.Duration, logger logrus.FieldLogger) (*Client, error) {
	if host == "" {
		return nil, fmt.Errorf("[%s] host is required", BackendName)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("[%s] port must be in (0,65535]", BackendName)
	}
	if tmax < 0 {
		return nil, fmt.Errorf("[%s] tmax should be non-negative", BackendName)
	}
	reportHost := spoof
	if spoof == "" {
		var err error
		if reportHost, err = os.Hostname(); err != nil {
			return nil, fmt.Errorf("[%s] unable to get hostname: %v", BackendName, err)
		}
	}
	address := net.JoinHostPort(host, strconv.Itoa(port))
	dmax := uint32(flushInterval/time.Second) + dmaxSlack

	logger.WithFields(logrus.Fields{
		"address": address,
		"spoof":   spoof,
		"prefix":  prefix,
		"tmax":    tmax,
		"dmax":    dmax,
	}).Info("created backend")

	return &Client{
		logger:       logger,
		address:      address,
		host:         reportHost,
		spoof:        spoof != "",
		prefix:       prefix,
		tmax:         uint32(tmax),
		dmax:         dmax,
		dialTimeout:  DefaultDialTimeout,
		writeTimeout: DefaultWriteTimeout,
	}, nil
}

// Name returns the name of the backend.
func (client *Client) Name() string {
	return BackendName
}

// SendMetricsAsync sends every datapoint as a metadata packet followed by a value packet. A new socket is used for
// each call, and the cycle is abandoned at the first failure.
func (client *Client) SendMetricsAsync(ctx context.Context, points []*gmetricd.Datapoint, cb gmetricd.SendCallback) {
	go func() {
		cb([]error{client.send(ctx, points)})
	}()
}

func (client *Client) send(ctx context.Context, points []*gmetricd.Datapoint) error {
	dialer := net.Dialer{Timeout: client.dialTimeout}
	conn, err := dialer.DialContext(ctx, "udp", client.address)
	if err != nil {
		return fmt.Errorf("[%s] error connecting to %s: %v", BackendName, client.address, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	var w xdrWriter
	for _, p := range points {
		if err := ctx.Err(); err != nil {
			return err
		}
		m := client.message(p)
		if err := client.write(conn, encodeMetadata(&w, m)); err != nil {
			return fmt.Errorf("[%s] error sending metadata of %s: %v", BackendName, m.name, err)
		}
		if err := client.write(conn, encodeValue(&w, m)); err != nil {
			return fmt.Errorf("[%s] error sending value of %s: %v", BackendName, m.name, err)
		}
		client.logger.WithField("name", m.name).Debug("sent gmetric")
	}
	return nil
}

func (client *Client) message(p *gmetricd.Datapoint) *message {
	return &message{
		host:  client.host,
		name:  client.prefix + p.Name,
		group: p.Group,
		unit:  p.Unit,
		value: p.FormatValue(),
		typ:   p.Type,
		spoof: client.spoof,
		tmax:  client.tmax,
		dmax:  client.dmax,
	}
}

func (client *Client) write(conn net.Conn, b []byte) error {
	if client.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(client.writeTimeout)); err != nil {
			return err
		}
	}
	_, err := conn.Write(b)
	return err
}
