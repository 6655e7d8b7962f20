package ratelimit

import (
	"os"
	"strconv"
	"time"
)

// EndpointConfig represents rate limiting configuration for one endpoint.
// Paths ending with "/" are treated as prefixes.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	Burst  int // defaults to Limit if 0
}

// LoadConfig loads rate limiting configuration from environment variables
func LoadConfig() *Config {
	enabled := getEnvBool("RATE_LIMIT_ENABLED", true)
	if !enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-endpoint limits. Starting a workflow
// fans out to paid providers, so it gets the strictest tier.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Expensive operations
		{Path: "/api/workflows", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},

		// Write operations
		{Path: "/api/workflows/", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},

		// Read operations
		{Path: "/api/workflows", Method: "GET", Limit: 300, Window: time.Minute, Burst: 50},
		{Path: "/api/workflows/", Method: "GET", Limit: 300, Window: time.Minute, Burst: 50},
		{Path: "/api/offers", Method: "GET", Limit: 300, Window: time.Minute, Burst: 50},
		{Path: "/api/receipts", Method: "GET", Limit: 300, Window: time.Minute, Burst: 50},
		{Path: "/api/stats", Method: "GET", Limit: 120, Window: time.Minute, Burst: 20},
	}
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}
