package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/cyclefsm"
	"github.com/comalice/cyclefsm/internal/config"
)

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadSettingsDefaults(t *testing.T) {
	for _, k := range []string{
		"LOG_LEVEL", "LOG_FORMAT", "SCANNER_TICK_RATE", "SCANNER_INSTANCES", "SCANNER_LIGHTS",
		"SCANNER_SCALE", "SCANNER_TABLE", "SCANNER_STOP_AFTER", "SCANNER_RESTART_AFTER", "METRICS_ADDR",
	} {
		unsetenv(t, k)
	}

	s, err := config.LoadSettings(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "text", s.LogFormat)
	assert.Equal(t, 20*time.Millisecond, s.TickRate)
	assert.Equal(t, 1, s.Instances)
	assert.Equal(t, 8, s.Lights)
	assert.Equal(t, 10.0, s.Scale)
	assert.Empty(t, s.TablePath)
	assert.Zero(t, s.StopAfter)
	assert.Equal(t, 2*time.Second, s.RestartAfter)
	assert.Equal(t, ":9090", s.MetricsAddr)
}

func TestLoadSettingsFromEnvironment(t *testing.T) {
	t.Setenv("SCANNER_TICK_RATE", "5ms")
	t.Setenv("SCANNER_INSTANCES", "3")
	t.Setenv("SCANNER_SCALE", "2.5")
	t.Setenv("SCANNER_STOP_AFTER", "10s")

	s, err := config.LoadSettings(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, s.TickRate)
	assert.Equal(t, 3, s.Instances)
	assert.Equal(t, 2.5, s.Scale)
	assert.Equal(t, 10*time.Second, s.StopAfter)
}

func TestLoadSettingsFromDotEnv(t *testing.T) {
	unsetenv(t, "SCANNER_LIGHTS")
	t.Setenv("SCANNER_INSTANCES", "2")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SCANNER_LIGHTS=5\nSCANNER_INSTANCES=9\n"), 0o600))

	s, err := config.LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Lights)
	assert.Equal(t, 2, s.Instances, "process environment wins over .env")
}

func TestLoadSettingsInvalid(t *testing.T) {
	t.Run("unparsable", func(t *testing.T) {
		t.Setenv("SCANNER_INSTANCES", "many")
		_, err := config.LoadSettings(filepath.Join(t.TempDir(), "absent.env"))
		assert.Error(t, err)
	})

	t.Run("out of range", func(t *testing.T) {
		t.Setenv("SCANNER_LIGHTS", "1")
		_, err := config.LoadSettings(filepath.Join(t.TempDir(), "absent.env"))
		require.Error(t, err)
		assert.True(t, cyclefsm.IsConfigurationError(err))
	})
}
