package util

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitViperReadsEnv(t *testing.T) {
	require.NoError(t, os.Setenv("GMD_FLUSH_INTERVAL", "3s"))
	require.NoError(t, os.Setenv("GMD_GANGLIA_HOST", "gmond.local"))
	defer func() {
		_ = os.Unsetenv("GMD_FLUSH_INTERVAL")
		_ = os.Unsetenv("GMD_GANGLIA_HOST")
	}()

	v := viper.New()
	InitViper(v)
	v.SetDefault("flush-interval", 10*time.Second)

	assert.Equal(t, 3*time.Second, v.GetDuration("flush-interval"))
	assert.Equal(t, "gmond.local", v.GetString("ganglia-host"))
	assert.Equal(t, "gmond.local", v.GetString("ganglia.host"))
}
