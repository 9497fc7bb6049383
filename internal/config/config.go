// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EngineType selects the implementation behind the agent's planning calls.
type EngineType string

const (
	// EngineRemote transports instructions to a hosted engine over HTTP.
	EngineRemote EngineType = "remote"
	// EngineScripted answers from a local deterministic rule table.
	EngineScripted EngineType = "scripted"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Network NetworkConfig `mapstructure:"network" yaml:"network"`
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	Run     RunConfig     `mapstructure:"run" yaml:"run"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser instances.
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	UserAgent       string   `mapstructure:"user_agent" yaml:"user_agent"`
	Args            []string `mapstructure:"args" yaml:"args"`
	// ActionsPerSecond paces typed action execution against a page.
	ActionsPerSecond float64 `mapstructure:"actions_per_second" yaml:"actions_per_second"`
}

// NetworkConfig tunes navigation and settling behavior.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	// Headers are attached to every request made by a page.
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
}

// EngineConfig selects and configures the planning engine behind the agent.
type EngineConfig struct {
	Type     EngineType    `mapstructure:"type" yaml:"type"`
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	// APIKey authenticates against the hosted engine. Loaded from
	// PAGEPILOT_ENGINE_API_KEY; never written back to a config file.
	APIKey            string        `mapstructure:"api_key" yaml:"-"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	// RulesFile feeds the scripted engine; ignored for the remote engine.
	RulesFile string `mapstructure:"rules_file" yaml:"rules_file"`
}

// AgentConfig carries the options recognized by agent construction: the model
// name forwarded to the engine, the initial variable mapping, the names to
// flag sensitive, and the directory against which uploaded file references
// are resolved.
type AgentConfig struct {
	Model         string            `mapstructure:"model" yaml:"model"`
	Variables     map[string]string `mapstructure:"variables" yaml:"variables"`
	SensitiveKeys []string          `mapstructure:"sensitive_keys" yaml:"sensitive_keys"`
	TestDataDir   string            `mapstructure:"test_data_dir" yaml:"test_data_dir"`
}

// RunConfig holds settings populated from CLI flags for a specific run.
type RunConfig struct {
	Scenarios   []string
	Concurrency int
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "pagepilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.actions_per_second", 4.0)

	// -- Network --
	v.SetDefault("network.navigation_timeout", "90s")
	v.SetDefault("network.post_load_wait", "2s")

	// -- Engine --
	v.SetDefault("engine.type", string(EngineScripted))
	v.SetDefault("engine.endpoint", "https://engine.pagepilot.ai/v1")
	v.SetDefault("engine.timeout", "60s")
	v.SetDefault("engine.requests_per_minute", 60)

	// -- Agent --
	v.SetDefault("agent.model", "pilot-medium")
	v.SetDefault("agent.test_data_dir", "testdata")

	// -- Run --
	v.SetDefault("run.concurrency", 1)
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data.
	_ = v.BindEnv("engine.api_key", "PAGEPILOT_ENGINE_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Manually load the key if Unmarshal didn't pick it up.
	if cfg.Engine.APIKey == "" {
		cfg.Engine.APIKey = os.Getenv("PAGEPILOT_ENGINE_API_KEY")
	}

	if dir, err := homedir.Expand(cfg.Agent.TestDataDir); err == nil {
		cfg.Agent.TestDataDir = dir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Engine.Type {
	case EngineRemote:
		if c.Engine.APIKey == "" {
			return fmt.Errorf("engine API key is required but not found. Ensure PAGEPILOT_ENGINE_API_KEY is set")
		}
		if c.Engine.Endpoint == "" {
			return fmt.Errorf("engine.endpoint is required when engine.type is 'remote'")
		}
	case EngineScripted:
		// No credentials needed.
	default:
		return fmt.Errorf("unknown engine.type %q (expected 'remote' or 'scripted')", c.Engine.Type)
	}

	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine.timeout must be a positive duration")
	}
	if c.Network.NavigationTimeout <= 0 {
		return fmt.Errorf("network.navigation_timeout must be a positive duration")
	}
	if c.Browser.ActionsPerSecond <= 0 {
		return fmt.Errorf("browser.actions_per_second must be positive")
	}
	if c.Run.Concurrency < 0 {
		return fmt.Errorf("run.concurrency must not be negative")
	}
	return nil
}
