// utils/env.go
package utils

import (
	"log"
	"os"
	"time"
)

// GetEnv returns the variable or fallback when it is unset.
func GetEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// GetEnvDuration parses a Go duration ("30s", "5m"), falling back on unset
// or malformed values.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		log.Printf("⚠️  %s=%q is not a valid duration, using %s", key, val, fallback)
		return fallback
	}
	return d
}
