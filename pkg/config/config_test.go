package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shubham-shewale/stock-quotes/pkg/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.App.Port != ":8080" {
		t.Errorf("Expected port :8080, got %s", cfg.App.Port)
	}
	if cfg.Quotes.Period != 100*time.Millisecond {
		t.Errorf("Expected 100ms period, got %s", cfg.Quotes.Period)
	}
	if cfg.Quotes.DefaultSize != 10 {
		t.Errorf("Expected default size 10, got %d", cfg.Quotes.DefaultSize)
	}
	if cfg.Quotes.SymmetricWalk {
		t.Error("Symmetric walk should be off by default")
	}
	if cfg.Kafka.Enabled {
		t.Error("Kafka mirror should be off by default")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", ":9999")
	t.Setenv("QUOTES_PERIOD", "250ms")
	t.Setenv("QUOTES_SYMMETRIC_WALK", "true")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.App.Port != ":9999" {
		t.Errorf("Expected port :9999, got %s", cfg.App.Port)
	}
	if cfg.Quotes.Period != 250*time.Millisecond {
		t.Errorf("Expected 250ms period, got %s", cfg.Quotes.Period)
	}
	if !cfg.Quotes.SymmetricWalk {
		t.Error("Expected symmetric walk from env")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Expected two brokers, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoadConfig_RejectsBadSizes(t *testing.T) {
	t.Setenv("QUOTES_DEFAULT_SIZE", "50")
	t.Setenv("QUOTES_MAX_SIZE", "20")

	if _, err := config.LoadConfig(); err == nil {
		t.Error("Expected error when max_size is below default_size")
	}
}

func TestNewLogger(t *testing.T) {
	file := filepath.Join(t.TempDir(), "quotes.log")

	logger, err := config.NewLogger(config.LoggerConfig{Level: "debug", Encoding: "console", File: file})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Debug("hello")
	_ = logger.Sync()

	if _, err := config.NewLogger(config.LoggerConfig{Level: "loud"}); err == nil {
		t.Error("Expected error for unknown level")
	}
	if _, err := config.NewLogger(config.LoggerConfig{Level: "info", Encoding: "xml"}); err == nil {
		t.Error("Expected error for unknown encoding")
	}
}
