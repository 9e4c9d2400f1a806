// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/lehigh-university-libraries/mangacat/internal/normalize"
	"github.com/lehigh-university-libraries/mangacat/internal/providers/registry"
)

// Config holds every tunable setting. Command flags override these values
// after Load.
type Config struct {
	Provider      string
	Model         string
	CachePath     string
	MSRPFloor     float64
	MSRPCeiling   float64
	Concurrency   int
	Retries       int
	RetryDelay    time.Duration
	MinInterval   time.Duration
	Timeout       time.Duration
	BooksAPIKey   string
	CoversEnabled bool
}

// Load reads the environment, applying defaults for unset keys. A value
// that is set but unparseable is an error.
func Load() (*Config, error) {
	c := &Config{
		Provider:      getenv("CATALOGING_PROVIDER", registry.DefaultProvider),
		CachePath:     getenv("MANGACAT_CACHE", "mangacat.db"),
		BooksAPIKey:   os.Getenv("GOOGLE_BOOKS_API_KEY"),
		CoversEnabled: true,
	}
	c.Model = registry.DefaultModel(c.Provider)

	var err error
	if c.MSRPFloor, err = floatEnv("MANGACAT_MSRP_FLOOR", normalize.DefaultMSRPFloor); err != nil {
		return nil, err
	}
	if c.MSRPCeiling, err = floatEnv("MANGACAT_MSRP_CEILING", normalize.DefaultMSRPCeiling); err != nil {
		return nil, err
	}
	if c.Concurrency, err = intEnv("MANGACAT_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if c.Retries, err = intEnv("MANGACAT_RETRIES", 3); err != nil {
		return nil, err
	}
	if c.RetryDelay, err = durationEnv("MANGACAT_RETRY_DELAY", 2*time.Second); err != nil {
		return nil, err
	}
	if c.MinInterval, err = durationEnv("MANGACAT_MIN_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if c.Timeout, err = durationEnv("MANGACAT_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the ranges of numeric settings
func (c *Config) Validate() error {
	switch {
	case c.MSRPFloor < 0:
		return fmt.Errorf("MSRP floor must not be negative, got %v", c.MSRPFloor)
	case c.MSRPCeiling < c.MSRPFloor:
		return fmt.Errorf("MSRP ceiling %v is below floor %v", c.MSRPCeiling, c.MSRPFloor)
	case c.Concurrency < 1:
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	case c.Retries < 1:
		return fmt.Errorf("retries must be at least 1, got %d", c.Retries)
	case c.RetryDelay < 0 || c.MinInterval < 0 || c.Timeout < 0:
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
