package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

/* Config holds the process settings
 * Values come from an optional .env file (toml) in the working directory, overridden by environment variables
 */
type Config struct {
	Port            string        `mapstructure:"PORT"`
	MappingsDir     string        `mapstructure:"MAPPINGS_DIR"`
	WebhookTimeout  time.Duration `mapstructure:"WEBHOOK_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogJSON         bool          `mapstructure:"LOG_JSON"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	JournalMaxLen   int64         `mapstructure:"JOURNAL_MAX_LEN"`
	MetricsEnabled  bool          `mapstructure:"METRICS_ENABLED"`

	TracingEndpoint    string  `mapstructure:"TRACING_ENDPOINT"`
	TracingInsecure    bool    `mapstructure:"TRACING_INSECURE"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
}

var defaults = map[string]any{
	"PORT":             "8080",
	"MAPPINGS_DIR":     "",
	"WEBHOOK_TIMEOUT":  "30s",
	"SHUTDOWN_TIMEOUT": "30s",
	"LOG_LEVEL":        "info",
	"LOG_JSON":         true,
	"REDIS_ADDR":       "",
	"REDIS_PASSWORD":   "",
	"REDIS_DB":         0,
	"JOURNAL_MAX_LEN":  1000,
	"METRICS_ENABLED":  true,

	"TRACING_ENDPOINT":     "",
	"TRACING_INSECURE":     true,
	"TRACING_SAMPLE_RATIO": 1.0,
}

// GetConfig reads .env from the working directory and the environment
func GetConfig() (*Config, error) {
	return Load(".")
}

// Load reads .env from dir and the environment. A missing file is not an error.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks if the config is usable
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.WebhookTimeout <= 0 {
		return fmt.Errorf("WEBHOOK_TIMEOUT must be positive (got %s)", c.WebhookTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive (got %s)", c.ShutdownTimeout)
	}
	if c.JournalMaxLen <= 0 {
		return fmt.Errorf("JOURNAL_MAX_LEN must be positive (got %d)", c.JournalMaxLen)
	}
	if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATIO must be between 0 and 1 (got %g)", c.TracingSampleRatio)
	}
	return nil
}

// JournalEnabled reports whether outcomes should be written to Redis
func (c *Config) JournalEnabled() bool {
	return c.RedisAddr != ""
}
