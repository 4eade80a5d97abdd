package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/atlassian/gmetricd"
	"github.com/atlassian/gmetricd/internal/fixtures"
	"github.com/atlassian/gmetricd/pkg/backends/ganglia"
	"github.com/atlassian/gmetricd/pkg/store"
)

func TestSetupConfigurationDefaults(t *testing.T) {
	t.Parallel()
	v, version, err := setupConfiguration([]string{"gmetricd"})
	require.NoError(t, err)
	assert.False(t, version)
	assert.Equal(t, gmetricd.DefaultMetricsAddr, v.GetString(gmetricd.ParamMetricsAddr))
	assert.Equal(t, gmetricd.DefaultConsoleAddr, v.GetString(gmetricd.ParamConsoleAddr))
	assert.Equal(t, gmetricd.DefaultFlushInterval, v.GetDuration(gmetricd.ParamFlushInterval))
	assert.Equal(t, gmetricd.DefaultPercentThreshold, v.GetFloat64(gmetricd.ParamPercentThreshold))
	assert.Equal(t, gmetricd.DefaultMaxQueueSize, v.GetInt(gmetricd.ParamMaxQueueSize))
	assert.Equal(t, ganglia.DefaultPort, v.GetInt(ganglia.ParamPort))
	assert.Equal(t, ganglia.DefaultSpoof, v.GetString(ganglia.ParamSpoof))
	assert.Empty(t, backendNames(v))
}

func TestSetupConfigurationFlags(t *testing.T) {
	t.Parallel()
	v, version, err := setupConfiguration([]string{
		"gmetricd",
		"--version",
		"--flush-interval=30s",
		"--percent-threshold=95",
		"--ganglia-host=gmond",
		"--friendly-console",
	})
	require.NoError(t, err)
	assert.True(t, version)
	assert.Equal(t, 30*time.Second, v.GetDuration(gmetricd.ParamFlushInterval))
	assert.Equal(t, 95.0, v.GetFloat64(gmetricd.ParamPercentThreshold))
	assert.True(t, v.GetBool(gmetricd.ParamFriendlyConsole))
	assert.Equal(t, []string{ganglia.BackendName}, backendNames(v))
}

func TestSetupConfigurationUnknownFlag(t *testing.T) {
	t.Parallel()
	_, _, err := setupConfiguration([]string{"gmetricd", "--no-such-flag"})
	assert.Error(t, err)
}

func TestSetupConfigurationMissingConfigFile(t *testing.T) {
	t.Parallel()
	_, _, err := setupConfiguration([]string{"gmetricd", "--config-path=" + filepath.Join(t.TempDir(), "missing.toml")})
	assert.Error(t, err)
}

func TestBackendNames(t *testing.T) {
	t.Parallel()
	v, _, err := setupConfiguration([]string{"gmetricd", "--backends= stdout, null,", "--ganglia-host=gmond"})
	require.NoError(t, err)
	assert.Equal(t, []string{"stdout", "null"}, backendNames(v))
}

func TestBadLineRateLimit(t *testing.T) {
	t.Parallel()
	assert.Equal(t, rate.Inf, badLineRateLimit(0))
	assert.Equal(t, rate.Limit(2), badLineRateLimit(120))
}

func TestConstructServer(t *testing.T) {
	t.Parallel()
	v, _, err := setupConfiguration([]string{"gmetricd", "--backends=stdout,null", "--max-readers=2"})
	require.NoError(t, err)
	st := store.New()
	s, err := constructServer(v, fixtures.NewTestLogger(t), st)
	require.NoError(t, err)
	assert.Same(t, st, s.Store)
	assert.Len(t, s.Backends, 2)
	assert.Equal(t, 2, s.MaxReaders)
	assert.Equal(t, gmetricd.DefaultPercentThreshold, s.PercentThreshold)
	assert.Equal(t, rate.Inf, s.BadLineRateLimitPerSecond)
}

func TestConstructServerErrors(t *testing.T) {
	t.Parallel()
	input := [][]string{
		{"gmetricd", "--percent-threshold=0"},
		{"gmetricd", "--percent-threshold=100.5"},
		{"gmetricd", "--flush-interval=0s"},
		{"gmetricd", "--flush-interval=-5s"},
		{"gmetricd", "--backends=graphite"},
		{"gmetricd", "--backends=ganglia"},
	}
	for _, args := range input {
		args := args
		t.Run(args[1], func(t *testing.T) {
			t.Parallel()
			v, _, err := setupConfiguration(args)
			require.NoError(t, err)
			_, err = constructServer(v, fixtures.NewTestLogger(t), store.New())
			assert.Error(t, err)
		})
	}
}
