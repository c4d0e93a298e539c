package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds all configuration for portfolio-engine
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Redis   RedisConfig
	Seed    SeedConfig
	Refresh RefreshConfig
	Budget  BudgetConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port int
}

// StorageConfig selects and configures the repository backend
type StorageConfig struct {
	Driver        string
	DSN           string
	MigrationsDir string
}

// RedisConfig holds the summary cache configuration. An empty address
// disables caching.
type RedisConfig struct {
	Address  string
	Password string
	CacheTTL time.Duration
}

// SeedConfig holds seed loader configuration. An empty dir skips seeding.
type SeedConfig struct {
	Dir string
}

// RefreshConfig holds refresh worker configuration
type RefreshConfig struct {
	Interval time.Duration
}

// BudgetConfig holds the budget-size band thresholds used by the filter
// engine, in IDR
type BudgetConfig struct {
	SmallMax float64
	LargeMin float64
}

// Load reads an optional .env file, then environment variables
func Load() (*Config, error) {
	// Missing .env is fine; env vars still apply
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("PORT", 8080),
		},
		Storage: StorageConfig{
			Driver:        getEnv("STORAGE_DRIVER", DriverMemory),
			DSN:           getEnv("DATABASE_DSN", ""),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			CacheTTL: getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
		Seed: SeedConfig{
			Dir: getEnv("SEED_DIR", "./seed"),
		},
		Refresh: RefreshConfig{
			Interval: getEnvAsDuration("REFRESH_INTERVAL", 5*time.Minute),
		},
		Budget: BudgetConfig{
			SmallMax: getEnvAsFloat("BUDGET_SMALL_MAX", 1_000_000_000),
			LargeMin: getEnvAsFloat("BUDGET_LARGE_MIN", 5_000_000_000),
		},
	}

	// The DSN can also be assembled from discrete DB_* variables, the
	// way the original deployment configured it
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = dsnFromParts()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("postgres driver requires DATABASE_DSN or DB_* variables")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}

	if c.Budget.SmallMax <= 0 || c.Budget.LargeMin < c.Budget.SmallMax {
		return fmt.Errorf("invalid budget bands: smallMax=%v largeMin=%v",
			c.Budget.SmallMax, c.Budget.LargeMin)
	}

	return nil
}

func dsnFromParts() string {
	host := getEnv("DB_HOST", "")
	if host == "" {
		return ""
	}

	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "")
	name := getEnv("DB_NAME", "portfolio")
	port := getEnvAsInt("DB_PORT", 5432)

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		user, password, host, port, name)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
