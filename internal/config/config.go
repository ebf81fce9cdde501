// Package config loads application configuration from environment
// variables and an optional YAML file, with defaults declared on the
// struct tags. Environment values take precedence over file values.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix for all environment overrides.
const EnvPrefix = "PRICECAST"

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
	Forecast ForecastConfig `yaml:"forecast" envconfig:"FORECAST"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"10m"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"10"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"5"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/pricecast.log"`
}

// DataConfig selects and configures the price data provider.
type DataConfig struct {
	Provider  string `yaml:"provider" envconfig:"PROVIDER" default:"yahoo"`
	CSVDir    string `yaml:"csv_dir" envconfig:"CSV_DIR" default:"data"`
	ReportDir string `yaml:"report_dir" envconfig:"REPORT_DIR" default:"reports"`
}

// ForecastConfig carries the forecasting defaults applied when a
// request leaves them unset.
type ForecastConfig struct {
	Horizon        int           `yaml:"horizon" envconfig:"HORIZON" default:"30"`
	Seed           int64         `yaml:"seed" envconfig:"SEED" default:"42"`
	RunTimeout     time.Duration `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" default:"10m"`
	MaxConcurrency int           `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" default:"4"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadFrom(configFilePath())
}

// LoadFrom loads configuration with an explicit file path; a missing
// file is not an error.
func LoadFrom(path string) (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	// Load from config file if exists
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("load config from file: %w", err)
			}
			var fileConfig Config
			if err := yaml.Unmarshal(data, &fileConfig); err != nil {
				return nil, fmt.Errorf("load config from file: %w", err)
			}
			cfg = mergeConfigs(fileConfig, cfg)
			if enabled, ok := fileRateLimitToggle(data); ok && !envSet("SERVER_RATE_LIMIT_ENABLED") {
				cfg.Server.RateLimit.Enabled = enabled
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// fileRateLimitToggle reports whether the YAML document explicitly sets
// server.rate_limit.enabled; the typed Config cannot tell false from
// absent.
func fileRateLimitToggle(data []byte) (bool, bool) {
	var doc struct {
		Server struct {
			RateLimit struct {
				Enabled *bool `yaml:"enabled"`
			} `yaml:"rate_limit"`
		} `yaml:"server"`
	}
	if yaml.Unmarshal(data, &doc) != nil || doc.Server.RateLimit.Enabled == nil {
		return false, false
	}
	return *doc.Server.RateLimit.Enabled, true
}

// mergeConfigs merges file config with env config (env takes precedence
// for any field the environment actually set).
func mergeConfigs(fileConfig, envConfig Config) Config {
	out := envConfig
	if fileConfig.Server.Port != 0 && !envSet("SERVER_PORT") {
		out.Server.Port = fileConfig.Server.Port
	}
	if fileConfig.Server.ReadTimeout != 0 && !envSet("SERVER_READ_TIMEOUT") {
		out.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if fileConfig.Server.WriteTimeout != 0 && !envSet("SERVER_WRITE_TIMEOUT") {
		out.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if fileConfig.Server.IdleTimeout != 0 && !envSet("SERVER_IDLE_TIMEOUT") {
		out.Server.IdleTimeout = fileConfig.Server.IdleTimeout
	}
	if fileConfig.Server.ShutdownTimeout != 0 && !envSet("SERVER_SHUTDOWN_TIMEOUT") {
		out.Server.ShutdownTimeout = fileConfig.Server.ShutdownTimeout
	}
	if fileConfig.Server.RateLimit.RPS != 0 && !envSet("SERVER_RATE_LIMIT_RPS") {
		out.Server.RateLimit.RPS = fileConfig.Server.RateLimit.RPS
	}
	if fileConfig.Server.RateLimit.Burst != 0 && !envSet("SERVER_RATE_LIMIT_BURST") {
		out.Server.RateLimit.Burst = fileConfig.Server.RateLimit.Burst
	}
	if fileConfig.Logging.Level != "" && !envSet("LOGGING_LEVEL") {
		out.Logging.Level = fileConfig.Logging.Level
	}
	if fileConfig.Logging.Output != "" && !envSet("LOGGING_OUTPUT") {
		out.Logging.Output = fileConfig.Logging.Output
	}
	if fileConfig.Logging.FilePath != "" && !envSet("LOGGING_FILE_PATH") {
		out.Logging.FilePath = fileConfig.Logging.FilePath
	}
	if fileConfig.Data.Provider != "" && !envSet("DATA_PROVIDER") {
		out.Data.Provider = fileConfig.Data.Provider
	}
	if fileConfig.Data.CSVDir != "" && !envSet("DATA_CSV_DIR") {
		out.Data.CSVDir = fileConfig.Data.CSVDir
	}
	if fileConfig.Data.ReportDir != "" && !envSet("DATA_REPORT_DIR") {
		out.Data.ReportDir = fileConfig.Data.ReportDir
	}
	if fileConfig.Forecast.Horizon != 0 && !envSet("FORECAST_HORIZON") {
		out.Forecast.Horizon = fileConfig.Forecast.Horizon
	}
	if fileConfig.Forecast.Seed != 0 && !envSet("FORECAST_SEED") {
		out.Forecast.Seed = fileConfig.Forecast.Seed
	}
	if fileConfig.Forecast.RunTimeout != 0 && !envSet("FORECAST_RUN_TIMEOUT") {
		out.Forecast.RunTimeout = fileConfig.Forecast.RunTimeout
	}
	if fileConfig.Forecast.MaxConcurrency != 0 && !envSet("FORECAST_MAX_CONCURRENCY") {
		out.Forecast.MaxConcurrency = fileConfig.Forecast.MaxConcurrency
	}
	return out
}

func envSet(suffix string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + suffix)
	return ok
}

// Validate checks the loaded configuration for unusable values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Data.Provider {
	case "yahoo", "csv", "static":
	default:
		return fmt.Errorf("unknown data provider: %q", c.Data.Provider)
	}
	if c.Forecast.Horizon < 1 {
		return fmt.Errorf("forecast horizon must be positive: %d", c.Forecast.Horizon)
	}
	if c.Forecast.MaxConcurrency < 1 {
		return fmt.Errorf("max concurrency must be positive: %d", c.Forecast.MaxConcurrency)
	}
	return nil
}

// configFilePath returns the config file location, overridable through
// the environment.
func configFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}
