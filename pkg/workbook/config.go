package workbook

import (
	"errors"
	"fmt"
)

// Host modes
const (
	ModeMemory = "memory" // in-process workbook
	ModeNone   = "none"   // detached: materialization degrades gracefully
)

// ErrUnknownMode is returned for an unrecognized host mode
var ErrUnknownMode = errors.New("unknown workbook host mode")

// Config selects the workbook host implementation
type Config struct {
	Mode           string `yaml:"mode" default:"memory"`
	OwnershipSheet string `yaml:"ownershipSheet" default:"_sheetpipe_ownership"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeMemory, ModeNone, "":
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMode, c.Mode)
	}
}

// NewHost builds the configured host
func (c *Config) NewHost() (Host, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	switch c.Mode {
	case ModeNone:
		return NewUnavailableHost(), nil
	default:
		return NewMemoryHost(), nil
	}
}
