package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds environment-tunable defaults.
type Timeouts struct {
	RequestTimeout    time.Duration // Default bound of one pooled exchange
	PoolSize          int           // Default producer pool size
	ArchiveRetries    int           // Upload attempts for the run manifest
	ArchiveRetryDelay time.Duration // Initial delay between manifest upload attempts
}

// LoadTimeouts loads defaults from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - PROVISIONER_REQUEST_TIMEOUT (default: 30s)
//   - PROVISIONER_POOL_SIZE (default: 4)
//   - PROVISIONER_ARCHIVE_RETRIES (default: 3)
//   - PROVISIONER_ARCHIVE_RETRY_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		RequestTimeout:    parseDuration("PROVISIONER_REQUEST_TIMEOUT", 30*time.Second),
		PoolSize:          parseInt("PROVISIONER_POOL_SIZE", 4),
		ArchiveRetries:    parseInt("PROVISIONER_ARCHIVE_RETRIES", 3),
		ArchiveRetryDelay: parseDuration("PROVISIONER_ARCHIVE_RETRY_DELAY", 1*time.Second),
	}
}

// parseDuration parses a positive duration from an environment variable.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses a positive integer from an environment variable.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return defaultVal
	}

	return i
}
