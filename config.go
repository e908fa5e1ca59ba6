package persist

import (
	"os"
	"path/filepath"
)

const (
	defaultPrefix        = "persist"
	defaultFileExtension = ".xml"
	defaultSQLTable      = "persist_records"
	defaultDynamoTable   = "persist_records"
	defaultDynamoRegion  = "us-east-1"
)

// defaultFileDir is the application base directory: the directory holding the
// running executable, falling back to the working directory.
func defaultFileDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// StoreConfig controls how a Store is constructed.
type StoreConfig struct {
	Driver Driver

	// Prefix namespaces record keys in shared backends (redis, sql, nats, dynamodb).
	Prefix string

	// FileDir controls where the file driver keeps records.
	FileDir string
	// FileExtension is appended to the record name by the file driver.
	FileExtension string

	// RedisClient is required when DriverRedis is used.
	RedisClient RedisClient

	// SQLDriverName and SQLDSN are required when DriverSQL is used.
	SQLDriverName string
	SQLDSN        string
	SQLTable      string

	// NATSKeyValue is required when DriverNATS is used.
	NATSKeyValue NATSKeyValue

	// DynamoClient is built from region and endpoint when nil.
	DynamoClient   DynamoAPI
	DynamoEndpoint string
	DynamoRegion   string
	DynamoTable    string

	// EncryptionKey enables AES-GCM record encryption (16, 24 or 32 bytes).
	EncryptionKey []byte
}

func (c StoreConfig) withDefaults() StoreConfig {
	if c.Driver == "" {
		c.Driver = DriverFile
	}
	if c.Prefix == "" {
		c.Prefix = defaultPrefix
	}
	if c.FileDir == "" {
		c.FileDir = defaultFileDir()
	}
	if c.FileExtension == "" {
		c.FileExtension = defaultFileExtension
	}
	if c.SQLTable == "" {
		c.SQLTable = defaultSQLTable
	}
	if c.DynamoTable == "" {
		c.DynamoTable = defaultDynamoTable
	}
	if c.DynamoRegion == "" {
		c.DynamoRegion = defaultDynamoRegion
	}
	return c
}
