package config

import (
	"fmt"
	"os"
	"strconv"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database      DatabaseConfig
	Interchange   InterchangeConfig
	Archive       ArchiveConfig
	Observability ObservabilityConfig
}

// ArchiveConfig controls source-file archival. An empty Dir disables it.
type ArchiveConfig struct {
	Dir string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// InterchangeConfig overrides the account labels written into interchange
// files. Empty fields fall back to the built-in defaults.
type InterchangeConfig struct {
	AccountsPayable string
	InventoryAsset  string
	CostOfGoodsSold string
	Income          string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "ledgerbridge"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Interchange: InterchangeConfig{
			AccountsPayable: getEnv("IIF_ACCOUNTS_PAYABLE", ""),
			InventoryAsset:  getEnv("IIF_INVENTORY_ASSET", ""),
			CostOfGoodsSold: getEnv("IIF_COGS_ACCOUNT", ""),
			Income:          getEnv("IIF_INCOME_ACCOUNT", ""),
		},
		Archive: ArchiveConfig{
			Dir: getEnv("ARCHIVE_DIR", ""),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", false),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
