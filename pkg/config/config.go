package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Quotes QuotesConfig `mapstructure:"quotes"`
	Logger LoggerConfig `mapstructure:"logger"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
}

type AppConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"` // e.g., "local", "prod"
}

type QuotesConfig struct {
	Period      time.Duration `mapstructure:"period"`
	DefaultSize int           `mapstructure:"default_size"`
	MaxSize     int           `mapstructure:"max_size"`
	// SymmetricWalk lets the walk step down as well as up. Off by default,
	// which keeps the historical always-upward drift.
	SymmetricWalk bool `mapstructure:"symmetric_walk"`
}

type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"` // "json" or "console"
	File     string `mapstructure:"file"`     // optional rotated log file
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Load .env into the process environment (if it exists)
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	setDefaults(v)

	// "quotes.period" -> "QUOTES_PERIOD"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees env vars for keys viper already knows about
	bindEnv(v, "app.port", "app.env")
	bindEnv(v, "quotes.period", "quotes.default_size", "quotes.max_size", "quotes.symmetric_walk")
	bindEnv(v, "logger.level", "logger.encoding", "logger.file")
	bindEnv(v, "kafka.enabled", "kafka.brokers", "kafka.topic")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.env", "local")

	v.SetDefault("quotes.period", 100*time.Millisecond)
	v.SetDefault("quotes.default_size", 10)
	v.SetDefault("quotes.max_size", 1000)
	v.SetDefault("quotes.symmetric_walk", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("logger.file", "")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "quotes")
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	if c.Quotes.Period <= 0 {
		return fmt.Errorf("quotes period must be positive, got %s", c.Quotes.Period)
	}
	if c.Quotes.DefaultSize <= 0 {
		return fmt.Errorf("quotes default_size must be positive, got %d", c.Quotes.DefaultSize)
	}
	if c.Quotes.MaxSize < c.Quotes.DefaultSize {
		return fmt.Errorf("quotes max_size (%d) is below default_size (%d)", c.Quotes.MaxSize, c.Quotes.DefaultSize)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers cannot be empty")
	}
	return nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
