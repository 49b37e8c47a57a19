package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readYaml(t *testing.T, doc string) {
	t.Helper()
	viper.Reset()
	viper.SetConfigType("yaml")
	require.NoError(t, viper.ReadConfig(strings.NewReader(doc)))
}

func TestConfigFromViperDefaults(t *testing.T) {
	viper.Reset()

	config, err := ConfigFromViper(nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(RSS_THRESHOLD_MB_DEFAULT), config.RssThresholdMb)
	assert.Equal(t, THROTTLE_SECONDS_DEFAULT, config.ThrottleSeconds)
	assert.False(t, config.EnableTermination)
	assert.False(t, config.AllowRisky)
	assert.Equal(t, []string{"kernel_task", "launchd", "WindowServer"}, config.Protected)
	assert.Empty(t, config.Targets)
	assert.Equal(t, LOG_BACKEND_DEFAULT, config.LogBackend)
	assert.Equal(t, LOG_DIR_DEFAULT, config.LogDir)
	assert.Equal(t, LOG_RETENTION_DAYS_DEFAULT, config.LogRetentionDays)
	assert.Equal(t, PRESSURE_STRATEGY_DEFAULT, config.PressureStrategy)
	assert.False(t, config.Debug)
}

func TestConfigFromViperFromFile(t *testing.T) {
	readYaml(t, `
rambo:
  rss_threshold_mb: 200
  throttle_seconds: 60
  enable_termination: true
  targets:
    - Chrome
    - Slack
  log_backend: sqlite
  log_dir: /var/lib/rambo
  pressure_strategy: free_only
`)

	config, err := ConfigFromViper(nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(200), config.RssThresholdMb)
	assert.Equal(t, 60, config.ThrottleSeconds)
	assert.True(t, config.EnableTermination)
	assert.Equal(t, []string{"Chrome", "Slack"}, config.Targets)
	assert.Equal(t, "sqlite", config.LogBackend)
	assert.Equal(t, "/var/lib/rambo", config.LogDir)
	assert.Equal(t, "free_only", config.PressureStrategy)

	// Unset keys still come from the defaults.
	assert.Equal(t, []string{"kernel_task", "launchd", "WindowServer"}, config.Protected)
	assert.Equal(t, LOG_RETENTION_DAYS_DEFAULT, config.LogRetentionDays)
}

func TestConfigFromViperCustomKey(t *testing.T) {
	readYaml(t, `
nested:
  rambo:
    rss_threshold_mb: 75
`)

	key := "nested.rambo"
	config, err := ConfigFromViper(&key)
	require.NoError(t, err)
	assert.Equal(t, uint64(75), config.RssThresholdMb)
}

func TestConfigFromViperEnvOverrides(t *testing.T) {
	readYaml(t, `
rambo:
  rss_threshold_mb: 200
`)
	t.Setenv("RAMBO_RSS_THRESHOLD_MB", "128")
	t.Setenv("RAMBO_THROTTLE_SECONDS", "45")
	t.Setenv("RAMBO_ENABLE_TERMINATION", "true")
	t.Setenv("RAMBO_PROTECTED", "kernel_task,loginwindow")
	t.Setenv("RAMBO_LOG_BACKEND", "sqlite")

	config, err := ConfigFromViper(nil)
	require.NoError(t, err)

	// Environment beats the file value.
	assert.Equal(t, uint64(128), config.RssThresholdMb)
	assert.Equal(t, 45, config.ThrottleSeconds)
	assert.True(t, config.EnableTermination)
	assert.Equal(t, []string{"kernel_task", "loginwindow"}, config.Protected)
	assert.Equal(t, "sqlite", config.LogBackend)
}

func TestConfigFromViperValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "throttle below floor",
			yaml:    "rambo:\n  throttle_seconds: 5\n",
			wantErr: "throttle_seconds is required or invalid",
		},
		{
			name:    "zero rss threshold",
			yaml:    "rambo:\n  rss_threshold_mb: 0\n",
			wantErr: "rss_threshold_mb is required or invalid",
		},
		{
			name:    "unknown log backend",
			yaml:    "rambo:\n  log_backend: csv\n",
			wantErr: "log_backend is required or invalid",
		},
		{
			name:    "unknown pressure strategy",
			yaml:    "rambo:\n  pressure_strategy: aggressive\n",
			wantErr: "pressure_strategy is required or invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readYaml(t, tt.yaml)

			_, err := ConfigFromViper(nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestThrottleAndPollIntervals(t *testing.T) {
	config := Config{ThrottleSeconds: 300}
	assert.Equal(t, 5*time.Minute, config.ThrottleInterval())
	assert.Equal(t, 30*time.Second, config.PollInterval())

	// Short throttle windows hit the poll floor.
	config.ThrottleSeconds = 20
	assert.Equal(t, 5*time.Second, config.PollInterval())
}

func TestExpandedLogDir(t *testing.T) {
	config := Config{LogDir: "~/.rambo/logs"}
	dir, err := config.ExpandedLogDir()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(dir, "/.rambo/logs"))
	assert.False(t, strings.HasPrefix(dir, "~"))

	config.LogDir = "/var/lib/rambo"
	dir, err = config.ExpandedLogDir()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/rambo", dir)
}
