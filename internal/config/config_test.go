package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigurationDefaults(t *testing.T) {
	cfg, err := LoadConfiguration()
	require.NoError(t, err)

	assert.Equal(t, "8082", cfg.ServerPort)
	assert.Equal(t, "ct400_scans", cfg.KafkaScanTopic)
	assert.Equal(t, 120*time.Second, cfg.ScanTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	require.NotNil(t, cfg.Instrument)
}

func TestLoadConfigurationOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("SCAN_TIMEOUT_SEC", "30")
	t.Setenv("MAX_SESSIONS", "1")
	t.Setenv("LOGGER_ENABLE", "false")

	cfg, err := LoadConfiguration()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.ScanTimeout)
	assert.Equal(t, 1, cfg.MaxSessions)
	assert.False(t, cfg.Logging.Enable)
}

func TestLoadConfigurationInvalid(t *testing.T) {
	t.Run("driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		_, err := LoadConfiguration()
		assert.ErrorContains(t, err, "DB_DRIVER")
	})
	t.Run("sessions", func(t *testing.T) {
		t.Setenv("MAX_SESSIONS", "0")
		_, err := LoadConfiguration()
		assert.ErrorContains(t, err, "MAX_SESSIONS")
	})
	t.Run("topic", func(t *testing.T) {
		t.Setenv("KAFKA_POWER_TOPIC", "")
		_, err := LoadConfiguration()
		assert.ErrorContains(t, err, "kafka topics")
	})
}
