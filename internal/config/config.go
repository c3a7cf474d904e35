// Package config provides configuration management for the account statistics
// service. It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Avito     AvitoConfig
	Scheduler SchedulerConfig
	Backfill  BackfillConfig
	Retention RetentionConfig
	Cache     CacheConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port string
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// AvitoConfig holds external metrics API configuration
type AvitoConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// SchedulerConfig holds the periodic job cadences. Cron expressions use the
// standard five-field format.
type SchedulerConfig struct {
	ExpenseTick time.Duration
	DailyCron   string
	WeeklyCron  string
	Timezone    string
}

// BackfillConfig holds historical backfill configuration
type BackfillConfig struct {
	ProviderPause time.Duration // minimum spacing between provider calls
	DefaultDays   int
}

// RetentionConfig holds the record retention horizons
type RetentionConfig struct {
	DailyDays   int
	WeeklyWeeks int
}

// CacheConfig holds snapshot cache configuration
type CacheConfig struct {
	TTL time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Postgres: PostgresConfig{
			Host:           getEnv("POSTGRES_HOST", "localhost"),
			Port:           getEnv("POSTGRES_PORT", "5432"),
			Database:       getEnv("POSTGRES_DB", "avito_insight"),
			User:           getEnv("POSTGRES_USER", "insight"),
			Password:       getEnv("POSTGRES_PASSWORD", ""),
			MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
		},
		Redis: RedisConfig{
			Host:           getEnv("REDIS_HOST", "localhost"),
			Port:           getEnv("REDIS_PORT", "6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvAsInt("REDIS_DB", 0),
			MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
		},
		Avito: AvitoConfig{
			BaseURL:        getEnv("AVITO_API_BASE_URL", "https://api.avito.ru"),
			RequestTimeout: getEnvAsDuration("AVITO_REQUEST_TIMEOUT", 30*time.Second),
		},
		Scheduler: SchedulerConfig{
			ExpenseTick: getEnvAsDuration("EXPENSE_TICK_INTERVAL", time.Minute),
			DailyCron:   getEnv("DAILY_PIPELINE_CRON", "0 5 * * *"),
			WeeklyCron:  getEnv("WEEKLY_PIPELINE_CRON", "0 6 * * 1"),
			Timezone:    getEnv("SCHEDULER_TIMEZONE", "Europe/Moscow"),
		},
		Backfill: BackfillConfig{
			ProviderPause: getEnvAsDuration("BACKFILL_PROVIDER_PAUSE", time.Second),
			DefaultDays:   getEnvAsInt("BACKFILL_DEFAULT_DAYS", 30),
		},
		Retention: RetentionConfig{
			DailyDays:   getEnvAsInt("RETENTION_DAILY_DAYS", 30),
			WeeklyWeeks: getEnvAsInt("RETENTION_WEEKLY_WEEKS", 12),
		},
		Cache: CacheConfig{
			TTL: getEnvAsDuration("SNAPSHOT_CACHE_TTL", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if config.Retention.DailyDays <= 0 || config.Retention.WeeklyWeeks <= 0 {
		return nil, fmt.Errorf("retention horizons must be positive, got %dd/%dw",
			config.Retention.DailyDays, config.Retention.WeeklyWeeks)
	}

	return config, nil
}

// DatabaseURL builds the Postgres connection URL used by the migration runner
func (c *PostgresConfig) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}

// Location resolves the scheduler timezone, falling back to UTC
func (c *SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
