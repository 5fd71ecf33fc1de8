// Package fetch implements the bounded-concurrency, timeout-guarded gate in
// front of remote data sources. Concurrency is a process-wide resource: every
// remote call of every source, including sibling calls of a paginated fetch,
// is admitted through one shared limiter.
package fetch

import (
	"errors"
	"time"
)

// Define static errors
var (
	ErrInvalidConcurrency = errors.New("maxConcurrentRequests must be positive")
	ErrInvalidTimeout     = errors.New("fetchTimeoutMs must be positive")
)

// Config contains fetch gate settings
type Config struct {
	MaxConcurrentRequests int `yaml:"maxConcurrentRequests" default:"4"`
	FetchTimeoutMs        int `yaml:"fetchTimeoutMs" default:"30000"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxConcurrentRequests <= 0 {
		return ErrInvalidConcurrency
	}
	if c.FetchTimeoutMs <= 0 {
		return ErrInvalidTimeout
	}

	return nil
}

// Timeout returns the per-call bound as a duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.FetchTimeoutMs) * time.Millisecond
}
