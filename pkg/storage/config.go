package storage

import (
	"fmt"
	"time"
)

// Config holds database, Redis and cache configuration
type Config struct {
	// PostgreSQL
	PostgresURL         string
	PostgresMaxConns    int
	PostgresMinConns    int
	PostgresTimeout     time.Duration
	PostgresMaxLifetime time.Duration
	PostgresMaxIdleTime time.Duration

	// Redis
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RedisMaxRetries int
	RedisPoolSize   int

	// Cache
	CacheEnabled bool
	L1CacheSize  int
	CacheTTL     time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		PostgresMaxConns:    25,
		PostgresMinConns:    5,
		PostgresTimeout:     10 * time.Second,
		PostgresMaxLifetime: 30 * time.Minute,
		PostgresMaxIdleTime: 5 * time.Minute,
		RedisDB:             0,
		RedisMaxRetries:     3,
		RedisPoolSize:       10,
		CacheEnabled:        false,
		L1CacheSize:         1024,
		CacheTTL:            5 * time.Minute,
	}
}

// Validate checks the configuration for obvious mistakes
func (c Config) Validate() error {
	if c.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.PostgresMaxConns < 1 {
		return fmt.Errorf("postgres max conns must be at least 1")
	}
	if c.CacheEnabled && c.RedisURL == "" && c.L1CacheSize <= 0 {
		return fmt.Errorf("cache enabled but neither redis URL nor L1 size configured")
	}
	return nil
}
