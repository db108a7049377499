package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/govdesk/govdesk/pkg/audit"
	"github.com/govdesk/govdesk/pkg/observability"
	"github.com/govdesk/govdesk/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Audit trail configuration
	Audit AuditConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// AuditConfig holds audit trail configuration
type AuditConfig struct {
	// Optional NDJSON mirror of the audit trail on local disk
	FilePath    string
	FileMaxSize int64

	// Retention
	RetentionDays     int
	RetentionSchedule string

	// Archive-before-delete
	ArchiveEnabled bool
	ArchivePrefix  string
	S3             audit.S3ArchiveConfig
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from the optional YAML file named by
// GOVDESK_CONFIG_FILE, then applies GOVDESK_* environment overrides.
func LoadConfig() (*Config, error) {
	file, err := loadFileConfig(os.Getenv("GOVDESK_CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server:        loadServerConfig(file),
		Storage:       loadStorageConfig(file),
		Audit:         loadAuditConfig(file),
		Observability: loadObservabilityConfig(file),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// fileConfig mirrors the YAML layout. Only fields present in the file
// override the defaults; the environment overrides both.
type fileConfig struct {
	Server struct {
		Host            string        `yaml:"host"`
		Port            string        `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		IdleTimeout     time.Duration `yaml:"idle_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		HealthPort      string        `yaml:"health_port"`
	} `yaml:"server"`
	Database struct {
		URL         string        `yaml:"url"`
		MaxConns    int           `yaml:"max_conns"`
		MinConns    int           `yaml:"min_conns"`
		Timeout     time.Duration `yaml:"timeout"`
		MaxLifetime time.Duration `yaml:"max_lifetime"`
		MaxIdleTime time.Duration `yaml:"max_idle_time"`
	} `yaml:"database"`
	Redis struct {
		URL      string `yaml:"url"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Cache struct {
		Enabled bool          `yaml:"enabled"`
		L1Size  int           `yaml:"l1_size"`
		TTL     time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Audit struct {
		FilePath          string `yaml:"file_path"`
		RetentionDays     int    `yaml:"retention_days"`
		RetentionSchedule string `yaml:"retention_schedule"`
		ArchiveEnabled    bool   `yaml:"archive_enabled"`
		ArchivePrefix     string `yaml:"archive_prefix"`
		S3                struct {
			Endpoint  string `yaml:"endpoint"`
			Region    string `yaml:"region"`
			Bucket    string `yaml:"bucket"`
			AccessKey string `yaml:"access_key"`
			SecretKey string `yaml:"secret_key"`
			PathStyle bool   `yaml:"path_style"`
		} `yaml:"s3"`
	} `yaml:"audit"`
	Observability struct {
		LogLevel       string `yaml:"log_level"`
		MetricsEnabled *bool  `yaml:"metrics_enabled"`
		OTelEnabled    bool   `yaml:"otel_enabled"`
		OTelEndpoint   string `yaml:"otel_endpoint"`
	} `yaml:"observability"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// loadServerConfig loads server configuration
func loadServerConfig(file *fileConfig) ServerConfig {
	return ServerConfig{
		Host:            getEnv("GOVDESK_HOST", orDefault(file.Server.Host, "0.0.0.0")),
		Port:            getEnv("GOVDESK_PORT", orDefault(file.Server.Port, "8080")),
		ReadTimeout:     getEnvDuration("GOVDESK_READ_TIMEOUT", orDefaultDuration(file.Server.ReadTimeout, 15*time.Second)),
		WriteTimeout:    getEnvDuration("GOVDESK_WRITE_TIMEOUT", orDefaultDuration(file.Server.WriteTimeout, 15*time.Second)),
		IdleTimeout:     getEnvDuration("GOVDESK_IDLE_TIMEOUT", orDefaultDuration(file.Server.IdleTimeout, 60*time.Second)),
		ShutdownTimeout: getEnvDuration("GOVDESK_SHUTDOWN_TIMEOUT", orDefaultDuration(file.Server.ShutdownTimeout, 30*time.Second)),
		HealthPort:      getEnv("GOVDESK_HEALTH_PORT", orDefault(file.Server.HealthPort, "9090")),
	}
}

// loadStorageConfig loads database, Redis and cache configuration
func loadStorageConfig(file *fileConfig) storage.Config {
	cfg := storage.DefaultConfig()

	cfg.PostgresURL = getEnv("GOVDESK_POSTGRES_URL", file.Database.URL)
	if maxConns := getEnvInt("GOVDESK_POSTGRES_MAX_CONNS", file.Database.MaxConns); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if minConns := getEnvInt("GOVDESK_POSTGRES_MIN_CONNS", file.Database.MinConns); minConns > 0 {
		cfg.PostgresMinConns = minConns
	}
	if timeout := getEnvDuration("GOVDESK_POSTGRES_TIMEOUT", file.Database.Timeout); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}
	if lifetime := getEnvDuration("GOVDESK_POSTGRES_MAX_LIFETIME", file.Database.MaxLifetime); lifetime > 0 {
		cfg.PostgresMaxLifetime = lifetime
	}
	if idle := getEnvDuration("GOVDESK_POSTGRES_MAX_IDLE_TIME", file.Database.MaxIdleTime); idle > 0 {
		cfg.PostgresMaxIdleTime = idle
	}

	cfg.RedisURL = getEnv("GOVDESK_REDIS_URL", file.Redis.URL)
	cfg.RedisPassword = getEnv("GOVDESK_REDIS_PASSWORD", file.Redis.Password)
	if redisDB := getEnvInt("GOVDESK_REDIS_DB", file.Redis.DB); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}

	cfg.CacheEnabled = getEnvBool("GOVDESK_CACHE_ENABLED", file.Cache.Enabled)
	if l1Size := getEnvInt("GOVDESK_L1_CACHE_SIZE", file.Cache.L1Size); l1Size > 0 {
		cfg.L1CacheSize = l1Size
	}
	if ttl := getEnvDuration("GOVDESK_CACHE_TTL", file.Cache.TTL); ttl > 0 {
		cfg.CacheTTL = ttl
	}

	return cfg
}

// loadAuditConfig loads audit trail configuration
func loadAuditConfig(file *fileConfig) AuditConfig {
	return AuditConfig{
		FilePath:          getEnv("GOVDESK_AUDIT_FILE_PATH", file.Audit.FilePath),
		FileMaxSize:       getEnvInt64("GOVDESK_AUDIT_FILE_MAX_SIZE", 0),
		RetentionDays:     getEnvInt("GOVDESK_AUDIT_RETENTION_DAYS", orDefaultInt(file.Audit.RetentionDays, audit.DefaultRetentionPolicy().RetentionDays)),
		RetentionSchedule: getEnv("GOVDESK_AUDIT_RETENTION_SCHEDULE", orDefault(file.Audit.RetentionSchedule, "0 3 * * *")),
		ArchiveEnabled:    getEnvBool("GOVDESK_AUDIT_ARCHIVE_ENABLED", file.Audit.ArchiveEnabled),
		ArchivePrefix:     getEnv("GOVDESK_AUDIT_ARCHIVE_PREFIX", orDefault(file.Audit.ArchivePrefix, "audit-archive")),
		S3: audit.S3ArchiveConfig{
			Endpoint:  getEnv("GOVDESK_S3_ENDPOINT", file.Audit.S3.Endpoint),
			Region:    getEnv("GOVDESK_S3_REGION", orDefault(file.Audit.S3.Region, "us-east-1")),
			Bucket:    getEnv("GOVDESK_S3_BUCKET", file.Audit.S3.Bucket),
			AccessKey: getEnv("GOVDESK_S3_ACCESS_KEY", file.Audit.S3.AccessKey),
			SecretKey: getEnv("GOVDESK_S3_SECRET_KEY", file.Audit.S3.SecretKey),
			PathStyle: getEnvBool("GOVDESK_S3_PATH_STYLE", file.Audit.S3.PathStyle),
		},
	}
}

// loadObservabilityConfig loads observability configuration
func loadObservabilityConfig(file *fileConfig) ObservabilityConfig {
	metricsDefault := true
	if file.Observability.MetricsEnabled != nil {
		metricsDefault = *file.Observability.MetricsEnabled
	}

	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("GOVDESK_LOG_LEVEL", orDefault(file.Observability.LogLevel, "info"))),
		MetricsEnabled:     getEnvBool("GOVDESK_METRICS_ENABLED", metricsDefault),
		OTelEnabled:        getEnvBool("GOVDESK_OTEL_ENABLED", file.Observability.OTelEnabled),
		OTelEndpoint:       getEnv("GOVDESK_OTEL_ENDPOINT", orDefault(file.Observability.OTelEndpoint, "localhost:4317")),
		OTelServiceName:    getEnv("GOVDESK_OTEL_SERVICE_NAME", "govdesk"),
		OTelServiceVersion: getEnv("GOVDESK_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("GOVDESK_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if err := c.Storage.Validate(); err != nil {
		return err
	}

	if c.Audit.RetentionDays < 1 {
		return fmt.Errorf("audit retention must be at least one day")
	}
	if c.Audit.ArchiveEnabled && c.Audit.S3.Bucket == "" {
		return fmt.Errorf("S3 bucket is required when audit archiving is enabled")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

func orDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}

func orDefaultInt(value, defaultValue int) int {
	if value != 0 {
		return value
	}
	return defaultValue
}

func orDefaultDuration(value, defaultValue time.Duration) time.Duration {
	if value != 0 {
		return value
	}
	return defaultValue
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
