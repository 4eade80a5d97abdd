package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/atlassian/gmetricd"
	"github.com/atlassian/gmetricd/internal/util"
	"github.com/atlassian/gmetricd/pkg/backends"
	"github.com/atlassian/gmetricd/pkg/backends/ganglia"
	"github.com/atlassian/gmetricd/pkg/healthcheck"
	"github.com/atlassian/gmetricd/pkg/persist"
	"github.com/atlassian/gmetricd/pkg/statsd"
	"github.com/atlassian/gmetricd/pkg/store"
	"github.com/atlassian/gmetricd/pkg/web"
)

var (
	// BuildDate is the date when the binary was built.
	BuildDate string
	// GitCommit is the commit hash that built the binary.
	GitCommit string
	// Version is the version.
	Version string
)

const (
	// ParamVerbose enables verbose logging.
	ParamVerbose = "verbose"
	// ParamJSON makes logger log in JSON format.
	ParamJSON = "json"
	// ParamConfigPath provides file with configuration.
	ParamConfigPath = "config-path"
	// ParamVersion makes program output its version.
	ParamVersion = "version"

	// receivingMaxAgeFlushes is the number of flush intervals without a metric before the deep check fails.
	receivingMaxAgeFlushes = 6
	// saveTimeout bounds the final snapshot write.
	saveTimeout = 10 * time.Second
)

func main() {
	v, version, err := setupConfiguration(os.Args)
	if err != nil {
		if err == pflag.ErrHelp {
			return
		}
		logrus.Fatalf("Error while parsing configuration: %v", err)
	}
	if version {
		fmt.Printf("Version: %s - Commit: %s - Date: %s\n", Version, GitCommit, BuildDate)
		return
	}
	if err := run(v); err != nil {
		logrus.Fatalf("%v", err)
	}
}

func run(v *viper.Viper) error {
	logger := logrus.StandardLogger()
	logger.Info("Starting server")

	st := store.New()
	snapshots := persist.NewFromViper(v, logger)
	if snapshots != nil && !v.GetBool(gmetricd.ParamClearStats) {
		loadSnapshot(logger, snapshots, st)
	}

	s, err := constructServer(v, logger, st)
	if err != nil {
		return err
	}

	ctx, cancelFunc := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancelFunc()

	err = s.Run(ctx)
	if snapshots != nil {
		saveSnapshot(logger, snapshots, st)
	}
	if err != nil && err != context.Canceled {
		return fmt.Errorf("server error: %v", err)
	}
	return nil
}

// loadSnapshot restores the saved state into st. An unreadable snapshot is logged and ignored.
func loadSnapshot(logger logrus.FieldLogger, snapshots persist.Store, st *store.Store) {
	snap, err := snapshots.Load(context.Background())
	if err != nil {
		logger.WithError(err).Warn("Failed to load snapshot, starting empty")
		return
	}
	st.Restore(snap)
	logger.WithFields(logrus.Fields{
		"counters": len(snap.Counters),
		"timers":   len(snap.Timers),
		"gauges":   len(snap.Gauges),
		"stats":    len(snap.Stats),
	}).Info("Loaded snapshot")
}

func saveSnapshot(logger logrus.FieldLogger, snapshots persist.Store, st *store.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := snapshots.Save(ctx, st.Snapshot()); err != nil {
		logger.WithError(err).Error("Failed to save snapshot")
		return
	}
	logger.Info("Saved snapshot")
}

func constructServer(v *viper.Viper, logger logrus.FieldLogger, st *store.Store) (*statsd.Server, error) {
	var runnables []gmetricd.Runnable

	percentThreshold := v.GetFloat64(gmetricd.ParamPercentThreshold)
	if percentThreshold <= 0 || percentThreshold > 100 {
		return nil, fmt.Errorf("%s must be in (0,100], got %v", gmetricd.ParamPercentThreshold, percentThreshold)
	}
	flushInterval := v.GetDuration(gmetricd.ParamFlushInterval)
	if flushInterval <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %v", gmetricd.ParamFlushInterval, flushInterval)
	}

	// Backends
	names := backendNames(v)
	backendsList := make([]gmetricd.Backend, 0, len(names))
	for _, backendName := range names {
		backend, errBackend := backends.InitBackend(backendName, v, logger)
		if errBackend != nil {
			return nil, errBackend
		}
		backendsList = append(backendsList, backend)
		runnables = gmetricd.MaybeAppendRunnable(runnables, backend)
	}

	// Web server
	if webAddr := v.GetString(gmetricd.ParamWebAddr); webAddr != "" {
		maxAge := int64(receivingMaxAgeFlushes * flushInterval / time.Second)
		hs, err := web.NewHttpServer(
			logger.WithField("component", "web"),
			webAddr,
			st,
			[]healthcheck.HealthcheckFunc{healthcheck.Flush(st)},
			[]healthcheck.HealthcheckFunc{healthcheck.Receiving(st, func() int64 { return time.Now().Unix() }, maxAge)},
		)
		if err != nil {
			return nil, err
		}
		if err := hs.Listen(); err != nil {
			return nil, err
		}
		runnables = append(runnables, hs.Run)
	}

	// Create server
	return &statsd.Server{
		Logger:                    logger,
		Store:                     st,
		Backends:                  backendsList,
		Runnables:                 runnables,
		MetricsAddr:               v.GetString(gmetricd.ParamMetricsAddr),
		ConsoleAddr:               v.GetString(gmetricd.ParamConsoleAddr),
		FlushInterval:             flushInterval,
		FlushOffset:               v.GetDuration(gmetricd.ParamFlushOffset),
		FlushAligned:              v.GetBool(gmetricd.ParamFlushAligned),
		PercentThreshold:          percentThreshold,
		MaxReaders:                v.GetInt(gmetricd.ParamMaxReaders),
		ConnPerReader:             v.GetBool(gmetricd.ParamConnPerReader),
		MaxQueueSize:              v.GetInt(gmetricd.ParamMaxQueueSize),
		BadLineRateLimitPerSecond: badLineRateLimit(v.GetFloat64(gmetricd.ParamBadLinesPerMinute)),
		FriendlyConsole:           v.GetBool(gmetricd.ParamFriendlyConsole),
	}, nil
}

// backendNames returns the configured backends. The ganglia backend is enabled by setting its host when no
// backends are configured.
func backendNames(v *viper.Viper) []string {
	names := toSlice(v.GetString(gmetricd.ParamBackends))
	if len(names) == 0 && v.GetString(ganglia.ParamHost) != "" {
		names = []string{ganglia.BackendName}
	}
	return names
}

func toSlice(s string) []string {
	//TODO Remove workaround when https://github.com/spf13/viper/issues/112 is fixed
	var res []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			res = append(res, name)
		}
	}
	return res
}

func badLineRateLimit(perMinute float64) rate.Limit {
	if perMinute <= 0 || math.IsInf(perMinute, 1) {
		return rate.Inf
	}
	return rate.Limit(perMinute / 60.0)
}

func setupConfiguration(args []string) (*viper.Viper, bool, error) {
	v := viper.New()
	defer setupLogger(v) // Apply logging configuration in case of early exit
	util.InitViper(v)

	var version bool

	cmd := pflag.NewFlagSet(args[0], pflag.ContinueOnError)

	cmd.BoolVar(&version, ParamVersion, false, "Print the version and exit")
	cmd.Bool(ParamVerbose, false, "Verbose")
	cmd.Bool(ParamJSON, false, "Log in JSON format")
	cmd.String(ParamConfigPath, "", "Path to the configuration file")

	gmetricd.AddFlags(cmd)
	ganglia.AddFlags(cmd)

	cmd.VisitAll(func(flag *pflag.Flag) {
		if err := v.BindPFlag(flag.Name, flag); err != nil {
			panic(err) // Should never happen
		}
	})

	if err := cmd.Parse(args[1:]); err != nil {
		return nil, false, err
	}

	configPath := v.GetString(ParamConfigPath)
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, false, err
		}
	}

	return v, version, nil
}

func setupLogger(v *viper.Viper) {
	if v.GetBool(ParamVerbose) {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if v.GetBool(ParamJSON) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
