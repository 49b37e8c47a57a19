package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ink1ing/rambooster/pkg/internal/utils"
	"github.com/ink1ing/rambooster/pkg/monitor"
	"github.com/spf13/viper"
)

const (
	DEFAULT_CONFIG_KEY         = "rambo"
	RSS_THRESHOLD_MB_DEFAULT   = 50
	THROTTLE_SECONDS_DEFAULT   = 300
	LOG_BACKEND_DEFAULT        = "jsonl"
	LOG_DIR_DEFAULT            = "~/.rambo/logs"
	LOG_RETENTION_DAYS_DEFAULT = 30
	PRESSURE_STRATEGY_DEFAULT  = "full"
)

// Config is the agent-wide configuration. Protected names can never be
// remediation targets; Targets, when non-empty, restricts remediation to the
// named processes.
type Config struct {
	RssThresholdMb    uint64   `mapstructure:"rss_threshold_mb" validate:"gte=1"`
	ThrottleSeconds   int      `mapstructure:"throttle_seconds" validate:"gte=10"`
	EnableTermination bool     `mapstructure:"enable_termination"`
	AllowRisky        bool     `mapstructure:"allow_risky"`
	Protected         []string `mapstructure:"protected"`
	Targets           []string `mapstructure:"targets"`
	LogBackend        string   `mapstructure:"log_backend" validate:"oneof=jsonl sqlite"`
	LogDir            string   `mapstructure:"log_dir"`
	LogRetentionDays  int      `mapstructure:"log_retention_days" validate:"gte=1"`
	PressureStrategy  string   `mapstructure:"pressure_strategy" validate:"oneof=full free_only"`
	Debug             bool     `mapstructure:"debug"`
}

func ConfigFromViper(key *string) (Config, error) {
	var keyValue string
	if key == nil {
		keyValue = DEFAULT_CONFIG_KEY
	} else {
		keyValue = *key
	}

	ramboConfig := viper.Sub(keyValue)
	if ramboConfig == nil {
		ramboConfig = viper.New()
	}

	ramboConfig.BindEnv("rss_threshold_mb", "RAMBO_RSS_THRESHOLD_MB")
	ramboConfig.BindEnv("throttle_seconds", "RAMBO_THROTTLE_SECONDS")
	ramboConfig.BindEnv("enable_termination", "RAMBO_ENABLE_TERMINATION")
	ramboConfig.BindEnv("allow_risky", "RAMBO_ALLOW_RISKY")
	ramboConfig.BindEnv("protected", "RAMBO_PROTECTED")
	ramboConfig.BindEnv("targets", "RAMBO_TARGETS")
	ramboConfig.BindEnv("log_backend", "RAMBO_LOG_BACKEND")
	ramboConfig.BindEnv("log_dir", "RAMBO_LOG_DIR")
	ramboConfig.BindEnv("log_retention_days", "RAMBO_LOG_RETENTION_DAYS")
	ramboConfig.BindEnv("pressure_strategy", "RAMBO_PRESSURE_STRATEGY")
	ramboConfig.BindEnv("debug", "RAMBO_DEBUG")

	ramboConfig.SetDefault("rss_threshold_mb", RSS_THRESHOLD_MB_DEFAULT)
	ramboConfig.SetDefault("throttle_seconds", THROTTLE_SECONDS_DEFAULT)
	ramboConfig.SetDefault("enable_termination", false)
	ramboConfig.SetDefault("allow_risky", false)
	ramboConfig.SetDefault("protected", []string{"kernel_task", "launchd", "WindowServer"})
	ramboConfig.SetDefault("targets", []string{})
	ramboConfig.SetDefault("log_backend", LOG_BACKEND_DEFAULT)
	ramboConfig.SetDefault("log_dir", LOG_DIR_DEFAULT)
	ramboConfig.SetDefault("log_retention_days", LOG_RETENTION_DAYS_DEFAULT)
	ramboConfig.SetDefault("pressure_strategy", PRESSURE_STRATEGY_DEFAULT)
	ramboConfig.SetDefault("debug", false)

	var config Config
	err := ramboConfig.Unmarshal(&config)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %v", err)
	}

	err = utils.ValidateStruct(&config)
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// ThrottleInterval is the minimum time between automatic boosts.
func (c Config) ThrottleInterval() time.Duration {
	return time.Duration(c.ThrottleSeconds) * time.Second
}

// PollInterval is the monitor poll rate derived from the throttle interval.
func (c Config) PollInterval() time.Duration {
	return monitor.PollInterval(c.ThrottleInterval())
}

// ExpandedLogDir resolves a leading ~ in the configured log directory.
func (c Config) ExpandedLogDir() (string, error) {
	return expandHome(c.LogDir)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
