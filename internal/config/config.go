// Package config loads host configuration from the environment.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all host configuration.
type Config struct {
	Persist PersistConfig
	Redis   RedisConfig
	SQL     SQLConfig
	NATS    NATSConfig
	Dynamo  DynamoConfig
	Logging LogConfig
	Metrics MetricsConfig
}

// PersistConfig selects the record store and codec.
type PersistConfig struct {
	Driver        string `envconfig:"PERSIST_DRIVER" default:"file"`
	Dir           string `envconfig:"PERSIST_DIR"`
	Codec         string `envconfig:"PERSIST_CODEC" default:"xml"`
	Bypass        bool   `envconfig:"PERSIST_BYPASS" default:"false"`
	Prefix        string `envconfig:"PERSIST_PREFIX" default:"persist"`
	EncryptionKey string `envconfig:"PERSIST_ENCRYPTION_KEY"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
}

// SQLConfig holds database/sql settings.
type SQLConfig struct {
	Driver string `envconfig:"SQL_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"SQL_DSN"`
	Table  string `envconfig:"SQL_TABLE" default:"persist_records"`
}

// NATSConfig holds JetStream key-value settings.
type NATSConfig struct {
	URL    string `envconfig:"NATS_URL" default:"nats://127.0.0.1:4222"`
	Bucket string `envconfig:"NATS_BUCKET" default:"persist"`
}

// DynamoConfig holds DynamoDB settings.
type DynamoConfig struct {
	Region   string `envconfig:"DYNAMO_REGION" default:"us-east-1"`
	Endpoint string `envconfig:"DYNAMO_ENDPOINT"`
	Table    string `envconfig:"DYNAMO_TABLE" default:"persist_records"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// MetricsConfig holds the optional Prometheus listener address.
type MetricsConfig struct {
	Addr string `envconfig:"METRICS_ADDR"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if _, err := cfg.Persist.Key(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Persist: PersistConfig{Driver: "file", Codec: "xml", Prefix: "persist"},
		Redis:   RedisConfig{Addr: "127.0.0.1:6379"},
		SQL:     SQLConfig{Driver: "sqlite", Table: "persist_records"},
		NATS:    NATSConfig{URL: "nats://127.0.0.1:4222", Bucket: "persist"},
		Dynamo:  DynamoConfig{Region: "us-east-1", Table: "persist_records"},
		Logging: LogConfig{Level: "info"},
	}
}

// Key decodes the hex encryption key. An empty value disables encryption.
func (c PersistConfig) Key() ([]byte, error) {
	raw := strings.TrimSpace(c.EncryptionKey)
	if raw == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("PERSIST_ENCRYPTION_KEY must be hex: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("PERSIST_ENCRYPTION_KEY must decode to 16, 24 or 32 bytes, got %d", len(key))
	}
}
