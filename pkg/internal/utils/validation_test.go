package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type daemonSettings struct {
	ThresholdMb uint64 `validate:"gte=1" mapstructure:"rss_threshold_mb"`
	Backend     string `validate:"oneof=jsonl sqlite" mapstructure:"log_backend"`
	Retention   int    `validate:"gte=1" mapstructure:"log_retention_days"`
	Comment     string `mapstructure:"comment"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid settings pass", func(t *testing.T) {
		err := ValidateStruct(&daemonSettings{ThresholdMb: 50, Backend: "jsonl", Retention: 30})
		assert.NoError(t, err)
	})

	t.Run("messages use mapstructure names", func(t *testing.T) {
		err := ValidateStruct(&daemonSettings{Backend: "jsonl", Retention: 30})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rss_threshold_mb is required or invalid")
	})

	t.Run("violations are combined", func(t *testing.T) {
		err := ValidateStruct(&daemonSettings{Backend: "csv"})
		require.Error(t, err)
		for _, name := range []string{"rss_threshold_mb", "log_backend", "log_retention_days"} {
			assert.Contains(t, err.Error(), name+" is required or invalid")
		}
	})

	t.Run("plain struct value works", func(t *testing.T) {
		err := ValidateStruct(daemonSettings{ThresholdMb: 1, Backend: "sqlite", Retention: 1})
		assert.NoError(t, err)
	})

	t.Run("nil input", func(t *testing.T) {
		err := ValidateStruct(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "input is nil")
	})
}
