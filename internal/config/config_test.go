package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PERSIST_DRIVER", "redis")
	t.Setenv("PERSIST_DIR", "/var/lib/sessiond")
	t.Setenv("PERSIST_CODEC", "yaml")
	t.Setenv("PERSIST_BYPASS", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SQL_DSN", "file:persist.db")
	t.Setenv("NATS_BUCKET", "sessions")
	t.Setenv("DYNAMO_ENDPOINT", "http://localhost:8000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_DEV", "true")
	t.Setenv("METRICS_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Persist.Driver)
	assert.Equal(t, "/var/lib/sessiond", cfg.Persist.Dir)
	assert.Equal(t, "yaml", cfg.Persist.Codec)
	assert.True(t, cfg.Persist.Bypass)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "file:persist.db", cfg.SQL.DSN)
	assert.Equal(t, "sessions", cfg.NATS.Bucket)
	assert.Equal(t, "http://localhost:8000", cfg.Dynamo.Endpoint)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("PERSIST_BYPASS", "maybe")
	_, err := Load()
	assert.Error(t, err)
}

func TestEncryptionKey(t *testing.T) {
	key, err := PersistConfig{}.Key()
	require.NoError(t, err)
	assert.Nil(t, key)

	key, err = PersistConfig{EncryptionKey: strings.Repeat("ab", 32)}.Key()
	require.NoError(t, err)
	assert.Len(t, key, 32)

	_, err = PersistConfig{EncryptionKey: "zz"}.Key()
	assert.Error(t, err)

	_, err = PersistConfig{EncryptionKey: "abcd"}.Key()
	assert.Error(t, err)

	t.Setenv("PERSIST_ENCRYPTION_KEY", "abcd")
	_, err = Load()
	assert.Error(t, err)
}
