package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DB      DBConfig      `yaml:"db"`
	Server  ServerConfig  `yaml:"server"`
	Cache   CacheConfig   `yaml:"cache"`
	Tracing TracingConfig `yaml:"tracing"`
	Log     LogConfig     `yaml:"log"`
}

type DBConfig struct {
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	BusyTimeoutMS   int           `yaml:"busy_timeout_ms"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type CacheConfig struct {
	ReceiptCapacity int           `yaml:"receipt_capacity"`
	ReceiptTTL      time.Duration `yaml:"receipt_ttl"`
}

type TracingConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load builds the configuration from an optional YAML file (path may be
// empty) with environment variables taking precedence over file values.
func Load(path string) (*Config, error) {
	cfg := &Config{
		DB: DBConfig{
			Path:            "archive.sqlite3",
			MaxOpenConns:    8,
			MaxIdleConns:    4,
			ConnMaxLifetime: 30 * time.Minute,
			BusyTimeoutMS:   5000,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Cache: CacheConfig{
			ReceiptCapacity: 4096,
			ReceiptTTL:      5 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.DB.Path = getEnv("DB_PATH", cfg.DB.Path)
	cfg.DB.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.DB.MaxOpenConns)
	cfg.DB.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.DB.MaxIdleConns)
	cfg.DB.BusyTimeoutMS = getEnvInt("DB_BUSY_TIMEOUT_MS", cfg.DB.BusyTimeoutMS)
	cfg.Server.Port = getEnvInt("SERVER_PORT", cfg.Server.Port)
	cfg.Cache.ReceiptCapacity = getEnvInt("RECEIPT_CACHE_CAPACITY", cfg.Cache.ReceiptCapacity)
	cfg.Tracing.OTLPEndpoint = getEnv("OTLP_ENDPOINT", cfg.Tracing.OTLPEndpoint)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DB.Path == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Cache.ReceiptCapacity <= 0 {
		return fmt.Errorf("receipt cache capacity must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
