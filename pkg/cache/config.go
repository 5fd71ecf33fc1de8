package cache

import (
	"errors"
	"time"
)

// Define static errors
var (
	ErrInvalidTTL           = errors.New("default TTL must be positive")
	ErrInvalidSweepInterval = errors.New("sweep interval must be positive")
)

// Config contains cache store settings
type Config struct {
	// DefaultTTLMs is applied when an operation does not set its own TTL
	DefaultTTLMs int `yaml:"defaultTtlMs" default:"900000"`
	// SweepIntervalSeconds controls how often expired entries are swept
	SweepIntervalSeconds int `yaml:"sweepIntervalSeconds" default:"60"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DefaultTTLMs <= 0 {
		return ErrInvalidTTL
	}
	if c.SweepIntervalSeconds <= 0 {
		return ErrInvalidSweepInterval
	}

	return nil
}

// DefaultTTL returns the default entry TTL as a duration
func (c *Config) DefaultTTL() time.Duration {
	return time.Duration(c.DefaultTTLMs) * time.Millisecond
}

// SweepInterval returns the sweep cadence as a duration
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}
