package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: REFRACT_[SECTION]_[KEY] (e.g., REFRACT_METRICS_ADDRESS).
func ApplyEnvOverrides(cfg *Config) {
	// Paths
	setEnvString(&cfg.Paths.OutputDir, "REFRACT_PATHS_OUTPUT_DIR")

	// Database
	setEnvBool(&cfg.DB.Enabled, "REFRACT_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "REFRACT_DB_PATH")
	setEnvDuration(&cfg.DB.BusyTimeout, "REFRACT_DB_BUSY_TIMEOUT")
	setEnvString(&cfg.DB.ProjectKey, "REFRACT_DB_PROJECT_KEY")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "REFRACT_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRebuildsPerSec, "REFRACT_WATCH_MAX_REBUILDS_PER_SEC")

	// Metrics
	setEnvBool(&cfg.Metrics.Enabled, "REFRACT_METRICS_ENABLED")
	setEnvString(&cfg.Metrics.Address, "REFRACT_METRICS_ADDRESS")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		log.Printf("Applying env override: %s=%s", key, val)
		*target = val
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = d
		}
	}
}
