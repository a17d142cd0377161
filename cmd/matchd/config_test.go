package main

import (
	"os"
	"testing"
	"time"

	"github.com/kelseyhightower/envconfig"
)

func TestValidateConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := ValidateConfig(&cfg); err != nil {
		t.Errorf("ValidateConfig() error = %v, want nil", err)
	}
}

func TestValidateConfig_EmptyListenAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ListenAddr = ""
	if err := ValidateConfig(&cfg); err != ErrInvalidListenAddr {
		t.Errorf("ValidateConfig() error = %v, want %v", err, ErrInvalidListenAddr)
	}
}

func TestValidateConfig_EmptyMetricsAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MetricsAddr = ""
	if err := ValidateConfig(&cfg); err != ErrInvalidMetricsAddr {
		t.Errorf("ValidateConfig() error = %v, want %v", err, ErrInvalidMetricsAddr)
	}
}

func TestValidateConfig_EmptyDataPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataPath = ""
	if err := ValidateConfig(&cfg); err != ErrInvalidDataPath {
		t.Errorf("ValidateConfig() error = %v, want %v", err, ErrInvalidDataPath)
	}
}

func TestValidateConfig_MinScoreRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultMinScore = -1
	if err := ValidateConfig(&cfg); err != ErrInvalidMinScore {
		t.Errorf("ValidateConfig() error = %v, want %v", err, ErrInvalidMinScore)
	}

	cfg.DefaultMinScore = 100.5
	if err := ValidateConfig(&cfg); err != ErrInvalidMinScore {
		t.Errorf("ValidateConfig() error = %v, want %v", err, ErrInvalidMinScore)
	}

	cfg.DefaultMinScore = 100
	if err := ValidateConfig(&cfg); err != nil {
		t.Errorf("ValidateConfig() error = %v, want nil", err)
	}
}

func TestValidateConfig_NegativeSnapshotInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SnapshotInterval = -time.Minute
	if err := ValidateConfig(&cfg); err != ErrInvalidSnapshotInterval {
		t.Errorf("ValidateConfig() error = %v, want %v", err, ErrInvalidSnapshotInterval)
	}

	// Zero disables periodic snapshots and is valid.
	cfg.SnapshotInterval = 0
	if err := ValidateConfig(&cfg); err != nil {
		t.Errorf("ValidateConfig() error = %v, want nil", err)
	}
}

func TestValidateConfig_InvalidFetchTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FetchTimeout = 0
	if err := ValidateConfig(&cfg); err != ErrInvalidFetchTimeout {
		t.Errorf("ValidateConfig() error = %v, want %v", err, ErrInvalidFetchTimeout)
	}
}

func TestValidateConfig_NegativeMaxUploadBytes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxUploadBytes = -1
	if err := ValidateConfig(&cfg); err != ErrInvalidMaxUploadBytes {
		t.Errorf("ValidateConfig() error = %v, want %v", err, ErrInvalidMaxUploadBytes)
	}
}

func TestValidateConfig_InvalidLogFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogFormat = "xml"
	if err := ValidateConfig(&cfg); err != ErrInvalidLogFormat {
		t.Errorf("ValidateConfig() error = %v, want %v", err, ErrInvalidLogFormat)
	}
}

func TestValidateConfig_InvalidLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "verbose"
	if err := ValidateConfig(&cfg); err != ErrInvalidLogLevel {
		t.Errorf("ValidateConfig() error = %v, want %v", err, ErrInvalidLogLevel)
	}
}

// TestConfigEnvVars verifies environment variable parsing
func TestConfigEnvVars(t *testing.T) {
	os.Setenv("AUTH_TOKEN", "hunter2")         //nolint:errcheck // test helper
	os.Setenv("ALL_ORIENTATIONS", "true")      //nolint:errcheck // test helper
	os.Setenv("DEFAULT_MIN_SCORE", "92.5")     //nolint:errcheck // test helper
	os.Setenv("LISTEN_ADDR", "127.0.0.1:8080") //nolint:errcheck // test helper
	os.Setenv("SNAPSHOT_INTERVAL", "15m")      //nolint:errcheck // test helper
	os.Setenv("RATE_LIMIT_RPS", "50")          //nolint:errcheck // test helper
	defer func() {
		_ = os.Unsetenv("AUTH_TOKEN")
		_ = os.Unsetenv("ALL_ORIENTATIONS")
		_ = os.Unsetenv("DEFAULT_MIN_SCORE")
		_ = os.Unsetenv("LISTEN_ADDR")
		_ = os.Unsetenv("SNAPSHOT_INTERVAL")
		_ = os.Unsetenv("RATE_LIMIT_RPS")
	}()

	cfg := DefaultConfig()
	if err := envconfig.Process("", &cfg); err != nil {
		t.Fatalf("Failed to process config: %v", err)
	}

	if cfg.AuthToken != "hunter2" {
		t.Errorf("AuthToken = %q, want %q", cfg.AuthToken, "hunter2")
	}
	if !cfg.AllOrientations {
		t.Error("AllOrientations = false, want true")
	}
	if cfg.DefaultMinScore != 92.5 {
		t.Errorf("DefaultMinScore = %v, want 92.5", cfg.DefaultMinScore)
	}
	if cfg.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, "127.0.0.1:8080")
	}
	if cfg.SnapshotInterval != 15*time.Minute {
		t.Errorf("SnapshotInterval = %v, want 15m", cfg.SnapshotInterval)
	}
	if cfg.RateLimitRPS != 50 {
		t.Errorf("RateLimitRPS = %d, want 50", cfg.RateLimitRPS)
	}

	// Untouched fields keep their defaults.
	if cfg.MetricsAddr != "0.0.0.0:9090" {
		t.Errorf("MetricsAddr = %q, want default", cfg.MetricsAddr)
	}
}
