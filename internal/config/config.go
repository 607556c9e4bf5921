package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Cache    CacheConfig
	Logging  LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
}

// DatabaseConfig holds Postgres connection and migration settings
type DatabaseConfig struct {
	URL                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
	MigrationsPath     string
	HealthWaitTimeout  time.Duration
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret  string
	JWTExpiry  time.Duration
	BCryptCost int
}

// CacheConfig selects and tunes the cache provider
type CacheConfig struct {
	Provider        string // "memory" or "redis"
	TTL             time.Duration
	MaxKeys         int
	CleanupInterval time.Duration
	RedisURL        string
	RedisDB         int
	RedisPassword   string
	PoolSize        int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, preferring .env.<GO_ENV>
// over .env outside production.
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env != "production" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
		} else {
			_ = godotenv.Load()
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("HOST", "0.0.0.0"),
			Port:            getEnv("PORT", "9000"),
			Environment:     env,
			ReadTimeout:     getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			GracefulTimeout: getDuration("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxOpenConns:       getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:       getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:    getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime:    getDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
			SlowQueryThreshold: getDuration("DB_SLOW_QUERY_THRESHOLD", 100*time.Millisecond),
			MigrationsPath:     getEnv("DB_MIGRATIONS_PATH", "migrations"),
			HealthWaitTimeout:  getDuration("DB_HEALTH_WAIT_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			JWTExpiry:  getDuration("JWT_EXPIRY", 24*time.Hour),
			BCryptCost: getInt("BCRYPT_COST", 12),
		},
		Cache: CacheConfig{
			Provider:        getEnv("CACHE_PROVIDER", "memory"),
			TTL:             getDuration("CACHE_TTL", 15*time.Minute),
			MaxKeys:         getInt("CACHE_MAX_KEYS", 10000),
			CleanupInterval: getDuration("CACHE_CLEANUP_INTERVAL", 5*time.Minute),
			RedisURL:        getEnv("REDIS_URL", ""),
			RedisDB:         getInt("REDIS_DB", 0),
			RedisPassword:   getEnv("REDIS_PASSWORD", ""),
			PoolSize:        getInt("REDIS_POOL_SIZE", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", defaultLogLevel(env)),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var problems []string

	if c.Database.URL == "" {
		problems = append(problems, "DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		if c.Server.Environment == "production" {
			problems = append(problems, "JWT_SECRET is required in production")
		} else {
			c.Auth.JWTSecret = "ecochamps-dev-secret"
		}
	}
	if c.Cache.Provider != "memory" && c.Cache.Provider != "redis" {
		problems = append(problems, fmt.Sprintf("unknown cache provider %q", c.Cache.Provider))
	}
	if c.Cache.Provider == "redis" && c.Cache.RedisURL == "" {
		problems = append(problems, "REDIS_URL is required when CACHE_PROVIDER=redis")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func defaultLogLevel(env string) string {
	if env == "production" {
		return "info"
	}
	return "debug"
}

// ===============================
// ENV HELPERS
// ===============================

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
