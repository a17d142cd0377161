package main

import (
	"errors"
	"time"
)

// Config validation errors
var (
	ErrInvalidListenAddr       = errors.New("listen_addr cannot be empty")
	ErrInvalidMetricsAddr      = errors.New("metrics_addr cannot be empty")
	ErrInvalidDataPath         = errors.New("data_path cannot be empty")
	ErrInvalidMinScore         = errors.New("default_min_score must be between 0 and 100")
	ErrInvalidSnapshotInterval = errors.New("snapshot_interval cannot be negative")
	ErrInvalidFetchTimeout     = errors.New("fetch_timeout must be positive")
	ErrInvalidMaxUploadBytes   = errors.New("max_upload_bytes cannot be negative")
	ErrInvalidLogFormat        = errors.New("log_format must be 'json' or 'console'")
	ErrInvalidLogLevel         = errors.New("log_level must be debug, info, warn, or error")
)

// Config holds the full server configuration, populated from the environment.
type Config struct {
	ListenAddr  string `envconfig:"LISTEN_ADDR"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`

	AuthToken string `envconfig:"AUTH_TOKEN"`

	AllOrientations bool    `envconfig:"ALL_ORIENTATIONS"`
	DefaultMinScore float64 `envconfig:"DEFAULT_MIN_SCORE"`

	DataPath         string        `envconfig:"DATA_PATH"`
	SnapshotInterval time.Duration `envconfig:"SNAPSHOT_INTERVAL"`

	FetchTimeout   time.Duration `envconfig:"FETCH_TIMEOUT"`
	MaxUploadBytes int64         `envconfig:"MAX_UPLOAD_BYTES"`

	LogFormat string `envconfig:"LOG_FORMAT"`
	LogLevel  string `envconfig:"LOG_LEVEL"`

	RateLimitRPS   int `envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst int `envconfig:"RATE_LIMIT_BURST"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		ListenAddr:       "0.0.0.0:8000",
		MetricsAddr:      "0.0.0.0:9090",
		AuthToken:        "",
		AllOrientations:  false,
		DefaultMinScore:  80,
		DataPath:         "./data",
		SnapshotInterval: time.Hour,
		FetchTimeout:     10 * time.Second,
		MaxUploadBytes:   16777216, // 16MB
		LogFormat:        "json",
		LogLevel:         "info",
		RateLimitRPS:     0,
		RateLimitBurst:   0,
	}
}

// ValidateConfig validates the configuration and returns an error if invalid
func ValidateConfig(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return ErrInvalidListenAddr
	}
	if cfg.MetricsAddr == "" {
		return ErrInvalidMetricsAddr
	}
	if cfg.DataPath == "" {
		return ErrInvalidDataPath
	}
	if cfg.DefaultMinScore < 0 || cfg.DefaultMinScore > 100 {
		return ErrInvalidMinScore
	}
	if cfg.SnapshotInterval < 0 {
		return ErrInvalidSnapshotInterval
	}
	if cfg.FetchTimeout <= 0 {
		return ErrInvalidFetchTimeout
	}
	if cfg.MaxUploadBytes < 0 {
		return ErrInvalidMaxUploadBytes
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return ErrInvalidLogFormat
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" && cfg.LogLevel != "error" {
		return ErrInvalidLogLevel
	}
	return nil
}
