package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Env      string         `yaml:"env"`
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Model    ModelConfig    `yaml:"model"`
	Retry    RetryConfig    `yaml:"retry"`
	Maps     MapsConfig     `yaml:"maps"`
	Care     CareConfig     `yaml:"care"`
	History  HistoryConfig  `yaml:"history"`
	OTEL     OTELConfig     `yaml:"otel"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"sslmode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// ModelConfig holds generative model configuration
type ModelConfig struct {
	// Provider is "gemini" or "openai".
	Provider        string        `yaml:"provider"`
	APIKey          string        `yaml:"api_key"`
	Model           string        `yaml:"model"`
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	Temperature     float64       `yaml:"temperature"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	RateLimitRPM    int           `yaml:"rate_limit_rpm"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
}

// RetryConfig holds the shared retry policy for model calls
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
}

// MapsConfig holds geocoding and places configuration
type MapsConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// CareConfig holds nearby care lookup configuration
type CareConfig struct {
	DeviceTimeout time.Duration `yaml:"device_timeout"`
}

// HistoryConfig controls analysis history persistence
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	Endpoint       string `yaml:"endpoint"`
	Enabled        bool   `yaml:"enabled"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES", nil),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "symptom_checker"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
		},
		Model: ModelConfig{
			Provider:        getEnv("MODEL_PROVIDER", "gemini"),
			APIKey:          getEnv("MODEL_API_KEY", os.Getenv("GEMINI_API_KEY")),
			Model:           getEnv("MODEL_NAME", ""),
			BaseURL:         getEnv("MODEL_BASE_URL", ""),
			Timeout:         getEnvAsDuration("MODEL_TIMEOUT", 30*time.Second),
			Temperature:     getEnvAsFloat("MODEL_TEMPERATURE", 0.4),
			MaxOutputTokens: getEnvAsInt("MODEL_MAX_OUTPUT_TOKENS", 3000),
			RateLimitRPM:    getEnvAsInt("MODEL_RATE_LIMIT_RPM", 60),
			RateLimitBurst:  getEnvAsInt("MODEL_RATE_LIMIT_BURST", 5),
		},
		Retry: RetryConfig{
			MaxRetries: getEnvAsInt("MODEL_MAX_RETRIES", 2),
			BaseDelay:  getEnvAsDuration("MODEL_RETRY_BASE_DELAY", time.Second),
		},
		Maps: MapsConfig{
			Provider: getEnv("MAPS_PROVIDER", "google"),
			APIKey:   getEnv("MAPS_API_KEY", os.Getenv("GOOGLE_PLACES_API_KEY")),
			BaseURL:  getEnv("MAPS_BASE_URL", ""),
		},
		Care: CareConfig{
			DeviceTimeout: getEnvAsDuration("CARE_DEVICE_TIMEOUT", 10*time.Second),
		},
		History: HistoryConfig{
			Enabled: getEnvAsBool("HISTORY_ENABLED", true),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "symptom-checker"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if cfg.Model.Provider != "gemini" && cfg.Model.Provider != "openai" {
		return nil, fmt.Errorf("unsupported MODEL_PROVIDER %q", cfg.Model.Provider)
	}
	if cfg.Retry.MaxRetries < 0 {
		return nil, fmt.Errorf("MODEL_MAX_RETRIES must not be negative")
	}

	return cfg, nil
}

const redactedValue = "REDACTED"

// Redacted returns a copy with credentials masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	out.Server.TrustedProxies = append([]string(nil), c.Server.TrustedProxies...)
	for _, secret := range []*string{
		&out.Database.Password,
		&out.Redis.Password,
		&out.Model.APIKey,
		&out.Maps.APIKey,
	} {
		if *secret != "" {
			*secret = redactedValue
		}
	}
	return &out
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
