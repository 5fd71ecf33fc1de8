// Package warehouse implements the SQL warehouse fetch source: a client for
// a statement-execution HTTP API plus the paging adapter that feeds results
// through the shared fetch gate.
package warehouse

import (
	"errors"
	"time"
)

// Define static errors
var (
	ErrURLRequired         = errors.New("warehouse URL is required")
	ErrWarehouseIDRequired = errors.New("warehouse id is required")
)

// Config contains warehouse client settings
type Config struct {
	URL            string `yaml:"url"`
	Token          string `yaml:"token"`
	WarehouseID    string `yaml:"warehouseId"`
	WaitTimeout    string `yaml:"waitTimeout" default:"30s"`
	PollIntervalMs int    `yaml:"pollIntervalMs" default:"1000"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrURLRequired
	}
	if c.WarehouseID == "" {
		return ErrWarehouseIDRequired
	}
	if c.WaitTimeout == "" {
		c.WaitTimeout = "30s"
	}
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = 1000
	}

	return nil
}

// PollInterval returns the status poll cadence as a duration
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}
