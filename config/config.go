// Package config loads runtime settings from a YAML file and the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/tranquility"
	"github.com/fwojciec/tranquility/gemini"
	"github.com/fwojciec/tranquility/retry"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// TRANQUILITY_SERVER_PORT.
const EnvPrefix = "TRANQUILITY"

// Backends accepted in gemini.backend.
const (
	BackendREST = "rest"
	BackendSDK  = "sdk"
)

type Config struct {
	Gemini       GeminiConfig `mapstructure:"gemini"`
	Retry        RetryConfig  `mapstructure:"retry"`
	Server       ServerConfig `mapstructure:"server"`
	CORS         CORSConfig   `mapstructure:"cors"`
	Log          LogConfig    `mapstructure:"log"`
	PersonaFile  string       `mapstructure:"persona_file"`
	WatchPersona bool         `mapstructure:"watch_persona"`
}

type GeminiConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	AudioModel string        `mapstructure:"audio_model"`
	Backend    string        `mapstructure:"backend"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	MaxJitter  time.Duration `mapstructure:"max_jitter"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	MaxAge         time.Duration `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Policy returns the retry policy described by c.
func (c RetryConfig) Policy() retry.Policy {
	return retry.Policy{MaxRetries: c.MaxRetries, Base: c.BaseDelay, MaxJitter: c.MaxJitter}
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", gemini.DefaultBaseURL)
	v.SetDefault("gemini.model", gemini.DefaultModel)
	v.SetDefault("gemini.audio_model", gemini.DefaultAudioModel)
	v.SetDefault("gemini.backend", BackendREST)
	v.SetDefault("gemini.timeout", 60*time.Second)

	v.SetDefault("retry.max_retries", retry.DefaultMaxRetries)
	v.SetDefault("retry.base_delay", retry.DefaultBase)
	v.SetDefault("retry.max_jitter", retry.DefaultMaxJitter)

	v.SetDefault("server.port", 3001)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 3*time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.session_ttl", 30*time.Minute)

	v.SetDefault("cors.allowed_origins", []string{
		"http://localhost:5173",
		"http://127.0.0.1:5173",
		"http://localhost:5174",
		"http://127.0.0.1:5174",
	})
	v.SetDefault("cors.max_age", 12*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("persona_file", "")
	v.SetDefault("watch_persona", true)
}

// Load reads configuration from path, when non-empty, then applies
// environment overrides. GEMINI_API_KEY is honoured when no prefixed key is
// set.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("gemini.api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no usable fallback. The API key is not
// checked here; commands that reach the model call RequireAPIKey.
func (c *Config) Validate() error {
	switch c.Gemini.Backend {
	case BackendREST, BackendSDK:
	default:
		return fmt.Errorf("config: gemini.backend must be %q or %q, got %q: %w",
			BackendREST, BackendSDK, c.Gemini.Backend, tranquility.ErrValidation)
	}
	if c.Retry.MaxRetries < 1 {
		return fmt.Errorf("config: retry.max_retries must be at least 1: %w", tranquility.ErrValidation)
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxJitter < 0 {
		return fmt.Errorf("config: retry delays must not be negative: %w", tranquility.ErrValidation)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range: %w", c.Server.Port, tranquility.ErrValidation)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be console or json: %w", tranquility.ErrValidation)
	}
	return nil
}

// RequireAPIKey reports an error when no API key is configured.
func (c *Config) RequireAPIKey() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("config: set GEMINI_API_KEY or gemini.api_key: %w", tranquility.ErrValidation)
	}
	return nil
}
