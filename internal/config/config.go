// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
)

// Processing defaults.
const (
	DefaultExportPageLimit    = 500
	DefaultExportCacheItems   = 128
	DefaultMaxBatchSize       = 10000
	DefaultAllOptionalWarnMin = 5
)

// Config holds all configuration for the field catalog.
type Config struct {
	ExportPageLimit    int // EXPORT_PAGE_LIMIT, snapshot cap per export
	ExportCacheItems   int // EXPORT_CACHE_MAX_ITEMS
	MaxBatchSize       int // MAX_BATCH_OBSERVATIONS
	AllOptionalWarnMin int // ALL_OPTIONAL_WARN_MIN, field count above which the coverage warning applies

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		ExportPageLimit:    getEnvInt("EXPORT_PAGE_LIMIT", DefaultExportPageLimit),
		ExportCacheItems:   getEnvInt("EXPORT_CACHE_MAX_ITEMS", DefaultExportCacheItems),
		MaxBatchSize:       getEnvInt("MAX_BATCH_OBSERVATIONS", DefaultMaxBatchSize),
		AllOptionalWarnMin: getEnvInt("ALL_OPTIONAL_WARN_MIN", DefaultAllOptionalWarnMin),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
