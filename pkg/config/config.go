// Package config loads application configuration from the environment,
// with an optional YAML file providing base values that environment
// variables override.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bulletinhq/bulletin/pkg/audit"
	"github.com/bulletinhq/bulletin/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Auth configuration
	Auth AuthConfig `yaml:"auth"`

	// Audit configuration
	Audit AuditConfig `yaml:"audit"`

	// Redis configuration (rate limiting, health checks)
	Redis RedisConfig `yaml:"redis"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// AuthConfig holds identity verification configuration
type AuthConfig struct {
	// BootstrapAdminToken pre-registers a token for the initial admin.
	// Empty disables bootstrap.
	BootstrapAdminToken string `yaml:"bootstrap_admin_token"`

	// DecisionCacheSize is the LRU size for cached gate decisions.
	// Zero disables the cache.
	DecisionCacheSize int `yaml:"decision_cache_size"`

	// OIDC settings; IssuerURL empty disables OIDC.
	OIDCIssuerURL    string `yaml:"oidc_issuer_url"`
	OIDCClientID     string `yaml:"oidc_client_id"`
	OIDCClientSecret string `yaml:"oidc_client_secret"`
	OIDCRedirectURL  string `yaml:"oidc_redirect_url"`
}

// AuditConfig holds audit trail configuration
type AuditConfig struct {
	// LogDir is the directory for NDJSON audit logs. Empty disables the
	// file sink.
	LogDir      string `yaml:"log_dir"`
	MaxFileSize int64  `yaml:"max_file_size"`
	MaxFiles    int    `yaml:"max_files"`

	// PostgresURL enables the database sink when set
	PostgresURL string `yaml:"postgres_url"`

	// Retention
	RetentionDays     int    `yaml:"retention_days"`
	RetentionSchedule string `yaml:"retention_schedule"`
}

// RedisConfig holds Redis connection settings for distributed rate
// limiting. Addr empty disables Redis and falls back to in-memory
// limiting.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"`
}

// LoadConfig loads configuration. When BULLETIN_CONFIG_FILE names a
// YAML file its values are applied first, then environment variables
// override them.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := getEnv("BULLETIN_CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Auth: AuthConfig{
			DecisionCacheSize: 1024,
		},
		Audit: AuditConfig{
			MaxFileSize:       audit.DefaultFileSinkConfig().MaxSize,
			MaxFiles:          audit.DefaultFileSinkConfig().MaxFiles,
			RetentionDays:     audit.DefaultRetentionPolicy().RetentionDays,
			RetentionSchedule: audit.DefaultRetentionPolicy().Schedule,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "bulletin",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("BULLETIN_HOST", c.Server.Host)
	c.Server.Port = getEnv("BULLETIN_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("BULLETIN_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("BULLETIN_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("BULLETIN_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("BULLETIN_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.HealthPort = getEnv("BULLETIN_HEALTH_PORT", c.Server.HealthPort)

	c.Auth.BootstrapAdminToken = getEnv("BULLETIN_BOOTSTRAP_ADMIN_TOKEN", c.Auth.BootstrapAdminToken)
	c.Auth.DecisionCacheSize = getEnvInt("BULLETIN_DECISION_CACHE_SIZE", c.Auth.DecisionCacheSize)
	c.Auth.OIDCIssuerURL = getEnv("BULLETIN_OIDC_ISSUER_URL", c.Auth.OIDCIssuerURL)
	c.Auth.OIDCClientID = getEnv("BULLETIN_OIDC_CLIENT_ID", c.Auth.OIDCClientID)
	c.Auth.OIDCClientSecret = getEnv("BULLETIN_OIDC_CLIENT_SECRET", c.Auth.OIDCClientSecret)
	c.Auth.OIDCRedirectURL = getEnv("BULLETIN_OIDC_REDIRECT_URL", c.Auth.OIDCRedirectURL)

	c.Audit.LogDir = getEnv("BULLETIN_AUDIT_LOG_DIR", c.Audit.LogDir)
	c.Audit.MaxFileSize = getEnvInt64("BULLETIN_AUDIT_MAX_FILE_SIZE", c.Audit.MaxFileSize)
	c.Audit.MaxFiles = getEnvInt("BULLETIN_AUDIT_MAX_FILES", c.Audit.MaxFiles)
	c.Audit.PostgresURL = getEnv("BULLETIN_AUDIT_POSTGRES_URL", c.Audit.PostgresURL)
	c.Audit.RetentionDays = getEnvInt("BULLETIN_AUDIT_RETENTION_DAYS", c.Audit.RetentionDays)
	c.Audit.RetentionSchedule = getEnv("BULLETIN_AUDIT_RETENTION_SCHEDULE", c.Audit.RetentionSchedule)

	c.Redis.Addr = getEnv("BULLETIN_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("BULLETIN_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("BULLETIN_REDIS_DB", c.Redis.DB)

	c.Observability.LogLevel = getEnv("BULLETIN_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.MetricsEnabled = getEnvBool("BULLETIN_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("BULLETIN_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("BULLETIN_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("BULLETIN_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelServiceVersion = getEnv("BULLETIN_OTEL_SERVICE_VERSION", c.Observability.OTelServiceVersion)
	c.Observability.OTelInsecure = getEnvBool("BULLETIN_OTEL_INSECURE", c.Observability.OTelInsecure)
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

	if c.Auth.OIDCIssuerURL != "" {
		if c.Auth.OIDCClientID == "" || c.Auth.OIDCClientSecret == "" {
			return fmt.Errorf("OIDC client ID and secret are required when an issuer is configured")
		}
	}

	if c.Audit.RetentionDays <= 0 {
		return fmt.Errorf("audit retention days must be positive")
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

// LogLevel parses the configured log level
func (c *Config) LogLevel() observability.LogLevel {
	switch strings.ToLower(c.Observability.LogLevel) {
	case "debug":
		return observability.DebugLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// OTelConfig assembles the tracing configuration
func (c *Config) OTelConfig() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        c.Observability.OTelEnabled,
		Endpoint:       c.Observability.OTelEndpoint,
		ServiceName:    c.Observability.OTelServiceName,
		ServiceVersion: c.Observability.OTelServiceVersion,
		Insecure:       c.Observability.OTelInsecure,
	}
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
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
