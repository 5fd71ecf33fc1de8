// Package service wires the sheetpipe application together.
package service

import (
	"fmt"

	"github.com/ErikPlachta/sheetpipe/pkg/api"
	"github.com/ErikPlachta/sheetpipe/pkg/auth"
	"github.com/ErikPlachta/sheetpipe/pkg/cache"
	"github.com/ErikPlachta/sheetpipe/pkg/catalog"
	"github.com/ErikPlachta/sheetpipe/pkg/fetch"
	"github.com/ErikPlachta/sheetpipe/pkg/fetch/warehouse"
	"github.com/ErikPlachta/sheetpipe/pkg/pipeline"
	"github.com/ErikPlachta/sheetpipe/pkg/redis"
	"github.com/ErikPlachta/sheetpipe/pkg/workbook"
)

// Config is the root service configuration
type Config struct {
	Logging         string `yaml:"logging" default:"info"`
	MetricsAddr     string `yaml:"metricsAddr" default:":9090"`
	HealthCheckAddr string `yaml:"healthCheckAddr"`

	Redis     redis.Config      `yaml:"redis"`
	Cache     cache.Config      `yaml:"cache"`
	Fetch     fetch.Config      `yaml:"fetch"`
	Warehouse *warehouse.Config `yaml:"warehouse"`
	Catalog   catalog.Config    `yaml:"catalog"`
	Auth      auth.Config       `yaml:"auth"`
	Workbook  workbook.Config   `yaml:"workbook"`
	Pipeline  pipeline.Config   `yaml:"pipeline"`
	API       api.Config        `yaml:"api"`
}

// Validate validates the configuration tree
func (c *Config) Validate() error {
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Fetch.Validate(); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if c.Warehouse != nil {
		if err := c.Warehouse.Validate(); err != nil {
			return fmt.Errorf("warehouse: %w", err)
		}
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Workbook.Validate(); err != nil {
		return fmt.Errorf("workbook: %w", err)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}
