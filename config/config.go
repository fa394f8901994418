// Package config holds runtime configuration for the promptcache library.
// Values come from the environment, with functional options for
// programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/cachelab/promptcache/utils"
)

// Config captures everything needed to talk to a completion API and run the
// caching demos.
type Config struct {
	Provider          string         `env:"PROMPTCACHE_PROVIDER" envDefault:"anthropic" validate:"required"`
	Model             string         `env:"PROMPTCACHE_MODEL" envDefault:"claude-3-5-sonnet-20240620" validate:"required"`
	Temperature       float64        `env:"PROMPTCACHE_TEMPERATURE" envDefault:"0.7" validate:"gte=0,lte=1"`
	MaxTokens         int            `env:"PROMPTCACHE_MAX_TOKENS" envDefault:"1024" validate:"gt=0"`
	Timeout           time.Duration  `env:"PROMPTCACHE_TIMEOUT" envDefault:"60s"`
	MaxRetries        int            `env:"PROMPTCACHE_MAX_RETRIES" envDefault:"3" validate:"gte=0"`
	RetryDelay        time.Duration  `env:"PROMPTCACHE_RETRY_DELAY" envDefault:"2s"`
	RequestsPerMinute float64        `env:"PROMPTCACHE_RPM" envDefault:"50" validate:"gt=0"`
	LogLevel          utils.LogLevel `env:"PROMPTCACHE_LOG_LEVEL" envDefault:"WARN"`
	EnableCaching     bool           `env:"PROMPTCACHE_ENABLE_CACHING" envDefault:"true"`
	APIKeys           map[string]string
	ExtraHeaders      map[string]string
}

// LoadConfig reads configuration from the environment and harvests API keys
// from any *_API_KEY variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKeys:      make(map[string]string),
		ExtraHeaders: make(map[string]string),
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	loadAPIKeys(cfg)
	return cfg, nil
}

func loadAPIKeys(cfg *Config) {
	for _, envVar := range os.Environ() {
		key, value, found := strings.Cut(envVar, "=")
		if found && strings.HasSuffix(strings.ToUpper(key), "_API_KEY") {
			provider := strings.TrimSuffix(strings.ToUpper(key), "_API_KEY")
			cfg.APIKeys[strings.ToLower(provider)] = value
		}
	}
}

// Validate checks the config against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ConfigOption mutates a Config. Options are applied in order, after the
// environment has been read.
type ConfigOption func(*Config)

// NewConfig returns a Config with library defaults, bypassing the
// environment entirely.
func NewConfig() *Config {
	return &Config{
		Provider:          "anthropic",
		Model:             "claude-3-5-sonnet-20240620",
		Temperature:       0.7,
		MaxTokens:         1024,
		Timeout:           60 * time.Second,
		MaxRetries:        3,
		RetryDelay:        2 * time.Second,
		RequestsPerMinute: 50,
		LogLevel:          utils.LogLevelWarn,
		EnableCaching:     true,
		APIKeys:           make(map[string]string),
		ExtraHeaders:      make(map[string]string),
	}
}

func SetProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

func SetModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

func SetAPIKey(apiKey string) ConfigOption {
	return func(c *Config) {
		if c.APIKeys == nil {
			c.APIKeys = make(map[string]string)
		}
		c.APIKeys[c.Provider] = apiKey
	}
}

func SetTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

func SetMaxTokens(maxTokens int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = maxTokens
	}
}

func SetTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

func SetMaxRetries(maxRetries int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
	}
}

func SetRetryDelay(delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryDelay = delay
	}
}

func SetRequestsPerMinute(rpm float64) ConfigOption {
	return func(c *Config) {
		c.RequestsPerMinute = rpm
	}
}

func SetLogLevel(level utils.LogLevel) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

func SetEnableCaching(enableCaching bool) ConfigOption {
	return func(c *Config) {
		c.EnableCaching = enableCaching
	}
}

func SetExtraHeaders(headers map[string]string) ConfigOption {
	return func(c *Config) {
		c.ExtraHeaders = headers
	}
}
