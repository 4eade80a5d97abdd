package gmetricd

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// DefaultBackends is the list of default backends' names.
var DefaultBackends = []string{}

const (
	// DefaultMetricsAddr is the default address on which to listen for metrics.
	DefaultMetricsAddr = ":8125"
	// DefaultConsoleAddr is the default address on which to listen for management connections.
	DefaultConsoleAddr = ":8126"
	// DefaultFlushInterval is the default metrics flush interval.
	DefaultFlushInterval = 10 * time.Second
	// DefaultFlushOffset is the default offset for flush alignment.
	DefaultFlushOffset = 0
	// DefaultFlushAligned is the default value for flush alignment.
	DefaultFlushAligned = false
	// DefaultPercentThreshold is the default percentile used to summarise timers.
	DefaultPercentThreshold = 90.0
	// DefaultMaxReaders is the default number of socket reading goroutines.
	DefaultMaxReaders = 1
	// DefaultConnPerReader is the default for whether to create a connection per reader.
	DefaultConnPerReader = false
	// DefaultMaxQueueSize is the default number of packets buffered between the readers and the worker.
	DefaultMaxQueueSize = 1024 * 1024
	// DefaultBadLinesPerMinute is the default number of bad lines to log per minute, 0 logs all of them.
	DefaultBadLinesPerMinute = 0
	// DefaultFriendlyConsole is the default for sending a prompt to management clients.
	DefaultFriendlyConsole = false
	// DefaultSnapshotRedisKey is the default Redis key holding the snapshot.
	DefaultSnapshotRedisKey = "gmetricd:snapshot"
)

const (
	// ParamBackends is the name of parameter with backends.
	ParamBackends = "backends"
	// ParamMetricsAddr is the name of parameter with address on which to listen for metrics.
	ParamMetricsAddr = "metrics-addr"
	// ParamConsoleAddr is the name of parameter with the management console address.
	ParamConsoleAddr = "console-addr"
	// ParamWebAddr is the name of parameter with the address of the http server, empty disables it.
	ParamWebAddr = "web-addr"
	// ParamFlushInterval is the name of parameter with metrics flush interval.
	ParamFlushInterval = "flush-interval"
	// ParamFlushOffset is the name of parameter with the offset of aligned flushes.
	ParamFlushOffset = "flush-offset"
	// ParamFlushAligned is the name of parameter with whether flushes are aligned to the interval.
	ParamFlushAligned = "flush-aligned"
	// ParamPercentThreshold is the name of parameter with the percentile used to summarise timers.
	ParamPercentThreshold = "percent-threshold"
	// ParamMaxReaders is the name of parameter with number of socket readers.
	ParamMaxReaders = "max-readers"
	// ParamConnPerReader is the name of parameter indicating whether to create a connection per reader.
	ParamConnPerReader = "conn-per-reader"
	// ParamMaxQueueSize is the name of parameter with the number of packets buffered before the oldest is dropped.
	ParamMaxQueueSize = "max-queue-size"
	// ParamBadLinesPerMinute is the name of parameter with the number of bad lines to log per minute.
	ParamBadLinesPerMinute = "bad-lines-per-minute"
	// ParamFriendlyConsole is the name of parameter enabling the management console prompt.
	ParamFriendlyConsole = "friendly-console"
	// ParamSnapshotPath is the name of parameter with the path of the snapshot file.
	ParamSnapshotPath = "snapshot-path"
	// ParamSnapshotRedisAddr is the name of parameter with the address of the Redis snapshot store.
	ParamSnapshotRedisAddr = "snapshot-redis-addr"
	// ParamSnapshotRedisKey is the name of parameter with the Redis key holding the snapshot.
	ParamSnapshotRedisKey = "snapshot-redis-key"
	// ParamClearStats is the name of parameter which skips loading the snapshot at startup.
	ParamClearStats = "clear-stats"
)

// AddFlags adds flags to the specified FlagSet.
func AddFlags(fs *pflag.FlagSet) {
	fs.String(ParamMetricsAddr, DefaultMetricsAddr, "Address on which to listen for metrics")
	fs.String(ParamConsoleAddr, DefaultConsoleAddr, "Address on which to listen for management connections")
	fs.String(ParamWebAddr, "", "If set, address of the http server")
	fs.Duration(ParamFlushInterval, DefaultFlushInterval, "How often to flush metrics to the backends")
	fs.Duration(ParamFlushOffset, DefaultFlushOffset, "Offset for flush interval when flush alignment is enabled")
	fs.Bool(ParamFlushAligned, DefaultFlushAligned, "Align flushes to a multiple of the flush interval")
	fs.Float64(ParamPercentThreshold, DefaultPercentThreshold, "Percentile used to summarise timers")
	fs.Int(ParamMaxReaders, DefaultMaxReaders, "Maximum number of socket readers")
	fs.Bool(ParamConnPerReader, DefaultConnPerReader, "Create a separate SO_REUSEPORT connection per reader")
	fs.Int(ParamMaxQueueSize, DefaultMaxQueueSize, "Maximum number of buffered packets, the oldest is dropped when full")
	fs.Float64(ParamBadLinesPerMinute, DefaultBadLinesPerMinute, "Number of bad lines to allow to log per minute")
	fs.Bool(ParamFriendlyConsole, DefaultFriendlyConsole, "Send a prompt to management clients")
	fs.String(ParamSnapshotPath, "", "If set, file to load the metrics from at startup and save them to at shutdown")
	fs.String(ParamSnapshotRedisAddr, "", "If set, Redis server holding the snapshot instead of a file")
	fs.String(ParamSnapshotRedisKey, DefaultSnapshotRedisKey, "Redis key holding the snapshot")
	fs.Bool(ParamClearStats, false, "Do not load the snapshot at startup")
	//TODO Remove workaround when https://github.com/spf13/viper/issues/112 is fixed
	// https://github.com/spf13/viper/issues/200
	fs.String(ParamBackends, strings.Join(DefaultBackends, ","), "Comma-separated list of backends")
}
