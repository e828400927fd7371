package database

import (
	"time"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/config"
)

// Config holds MongoDB connection settings
type Config struct {
	URI      string
	Database string

	// Connection pooling
	MaxPoolSize uint64

	ConnectTimeoutSeconds int
}

// ConnectTimeout returns the connect timeout as a duration
func (c Config) ConnectTimeout() time.Duration {
	if c.ConnectTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// DefaultConfig returns sensible defaults for database configuration
func DefaultConfig() Config {
	return Config{
		URI:                   "mongodb://localhost:27017",
		Database:              "timesheet",
		MaxPoolSize:           50,
		ConnectTimeoutSeconds: 10,
	}
}

// FromCentralConfig converts central config.MongoConfig to package Config
func FromCentralConfig(c config.MongoConfig) Config {
	cfg := Config{
		URI:                   c.URI,
		Database:              c.Database,
		MaxPoolSize:           c.MaxPoolSize,
		ConnectTimeoutSeconds: c.ConnectTimeoutSeconds,
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = DefaultConfig().MaxPoolSize
	}
	if cfg.ConnectTimeoutSeconds <= 0 {
		cfg.ConnectTimeoutSeconds = DefaultConfig().ConnectTimeoutSeconds
	}
	return cfg
}
