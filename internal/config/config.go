package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Content backends
const (
	BackendSanity   = "sanity"
	BackendPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Content store configuration
	Content ContentConfig

	// Database configuration (postgres backend only)
	Database DatabaseConfig

	// Redis configuration (shared page cache)
	Redis RedisConfig

	// Page cache configuration
	Cache CacheConfig

	// Static generation configuration
	Prerender PrerenderConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ContentConfig selects and configures the headless content store
type ContentConfig struct {
	Backend    string // "sanity" or "postgres"
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
	APIHost    string // overrides https://<project>.api.sanity.io when set
	Timeout    time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MigrationsPath string
}

// RedisConfig holds redis connection settings
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// CacheConfig holds freshness window settings
type CacheConfig struct {
	Revalidate     time.Duration // freshness window
	Retention      time.Duration // how long stale entries stay servable in redis
	RefreshTimeout time.Duration
	MaxEntries     int // in-process backend bound
}

// PrerenderConfig holds static generation settings
type PrerenderConfig struct {
	OnStart     bool
	Concurrency int
	OutputDir   string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from an optional .env file and environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Content: ContentConfig{
			Backend:    strings.ToLower(getEnv("CONTENT_BACKEND", BackendSanity)),
			ProjectID:  getEnv("SANITY_PROJECT_ID", ""),
			Dataset:    getEnv("SANITY_DATASET", "production"),
			APIVersion: getEnv("SANITY_API_VERSION", "2021-10-21"),
			Token:      getEnv("SANITY_TOKEN", ""),
			UseCDN:     getBoolEnv("SANITY_USE_CDN", true),
			APIHost:    getEnv("SANITY_API_HOST", ""),
			Timeout:    getDurationEnv("SANITY_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "blog"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "blog"),
		},
		Cache: CacheConfig{
			Revalidate:     getDurationEnv("CACHE_REVALIDATE", 60*time.Second),
			Retention:      getDurationEnv("CACHE_RETENTION", 24*time.Hour),
			RefreshTimeout: getDurationEnv("CACHE_REFRESH_TIMEOUT", 30*time.Second),
			MaxEntries:     getIntEnv("CACHE_MAX_ENTRIES", 10000),
		},
		Prerender: PrerenderConfig{
			OnStart:     getBoolEnv("PRERENDER_ON_START", false),
			Concurrency: getIntEnv("PRERENDER_CONCURRENCY", 8),
			OutputDir:   getEnv("PRERENDER_OUTPUT_DIR", "./out"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Content.Backend {
	case BackendSanity:
		if c.Content.ProjectID == "" {
			return fmt.Errorf("SANITY_PROJECT_ID is required")
		}
		if c.Content.Dataset == "" {
			return fmt.Errorf("SANITY_DATASET is required")
		}
		if c.Content.APIVersion == "" {
			return fmt.Errorf("SANITY_API_VERSION is required")
		}
	case BackendPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	default:
		return fmt.Errorf("CONTENT_BACKEND must be one of: %s, %s", BackendSanity, BackendPostgres)
	}
	if c.Cache.Revalidate <= 0 {
		return fmt.Errorf("CACHE_REVALIDATE must be positive")
	}
	if c.Cache.Retention < c.Cache.Revalidate {
		return fmt.Errorf("CACHE_RETENTION must not be shorter than CACHE_REVALIDATE")
	}
	if c.Prerender.Concurrency < 1 {
		return fmt.Errorf("PRERENDER_CONCURRENCY must be at least 1")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
