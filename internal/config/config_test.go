// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	// Verify a few key defaults to ensure the mechanism works.
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "pagepilot", cfg.Logger.ServiceName)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 90*time.Second, cfg.Network.NavigationTimeout)
	assert.Equal(t, EngineScripted, cfg.Engine.Type)
	assert.Equal(t, "pilot-medium", cfg.Agent.Model)
	assert.Equal(t, "testdata", cfg.Agent.TestDataDir)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("scripted engine needs no credentials", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("remote engine requires API key", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Engine.Type = EngineRemote
		cfg.Engine.APIKey = ""

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PAGEPILOT_ENGINE_API_KEY")

		cfg.Engine.APIKey = "pp-test-key"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("remote engine requires endpoint", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Engine.Type = EngineRemote
		cfg.Engine.APIKey = "pp-test-key"
		cfg.Engine.Endpoint = ""

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "engine.endpoint")
	})

	t.Run("unknown engine type rejected", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Engine.Type = "oracle"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown engine.type")
	})

	t.Run("timing sanity", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Engine.Timeout = 0
		assert.Error(t, cfg.Validate())

		cfg = NewDefaultConfig()
		cfg.Network.NavigationTimeout = -time.Second
		assert.Error(t, cfg.Validate())

		cfg = NewDefaultConfig()
		cfg.Browser.ActionsPerSecond = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestNewConfigFromViper(t *testing.T) {
	t.Run("reads API key from environment", func(t *testing.T) {
		t.Setenv("PAGEPILOT_ENGINE_API_KEY", "pp-env-key")

		v := viper.New()
		SetDefaults(v)
		v.Set("engine.type", "remote")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "pp-env-key", cfg.Engine.APIKey)
	})

	t.Run("missing API key fails for remote engine", func(t *testing.T) {
		t.Setenv("PAGEPILOT_ENGINE_API_KEY", "")

		v := viper.New()
		SetDefaults(v)
		v.Set("engine.type", "remote")

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("agent variables and sensitive keys unmarshal", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("agent.variables", map[string]string{"username": "admin", "password": "s3cret"})
		v.Set("agent.sensitive_keys", []string{"password"})

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "admin", cfg.Agent.Variables["username"])
		assert.Equal(t, []string{"password"}, cfg.Agent.SensitiveKeys)
	})

	t.Run("test data dir expands home", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("agent.test_data_dir", "~/fixtures")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.NotContains(t, cfg.Agent.TestDataDir, "~")
	})
}
