package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort               string
	DatabaseURL              string
	AdminToken               string
	LogLevel                 string
	CacheTTLMinutes          string
	GMPUpdateIntervalMinutes string
	SubUpdateIntervalMinutes string
	DisableJobs              bool
}

// SimplifiedCacheConfig holds in-memory cache configuration
type SimplifiedCacheConfig struct {
	DefaultTTL time.Duration `json:"default_ttl"`
	MaxSize    int           `json:"max_size"`
}

// DefaultCacheConfig returns default cache configuration
func DefaultCacheConfig() *SimplifiedCacheConfig {
	return &SimplifiedCacheConfig{
		DefaultTTL: 5 * time.Minute, // Default 5 minute TTL
		MaxSize:    1000,            // Maximum 1000 items in memory
	}
}

// GetCacheTTL returns the cache TTL from environment or default
func (c *Config) GetCacheTTL() time.Duration {
	return c.minutesOrDefault(c.CacheTTLMinutes, "CACHE_TTL_MINUTES", 5*time.Minute)
}

// GetGMPUpdateInterval returns how often the GMP refresher runs
func (c *Config) GetGMPUpdateInterval() time.Duration {
	return c.minutesOrDefault(c.GMPUpdateIntervalMinutes, "GMP_UPDATE_INTERVAL_MINUTES", time.Hour)
}

// GetSubscriptionUpdateInterval returns how often subscription figures refresh
func (c *Config) GetSubscriptionUpdateInterval() time.Duration {
	return c.minutesOrDefault(c.SubUpdateIntervalMinutes, "SUB_UPDATE_INTERVAL_MINUTES", 30*time.Minute)
}

func (c *Config) minutesOrDefault(raw, name string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes < 1 {
		logrus.Warnf("Invalid %s value: %s, using default %v", name, raw, fallback)
		return fallback
	}

	return time.Duration(minutes) * time.Minute
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:               getEnv("SERVER_PORT", "8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		AdminToken:               getEnv("ADMIN_TOKEN", ""),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		CacheTTLMinutes:          getEnv("CACHE_TTL_MINUTES", "5"),
		GMPUpdateIntervalMinutes: getEnv("GMP_UPDATE_INTERVAL_MINUTES", "60"),
		SubUpdateIntervalMinutes: getEnv("SUB_UPDATE_INTERVAL_MINUTES", "30"),
		DisableJobs:              getEnv("DISABLE_JOBS", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
