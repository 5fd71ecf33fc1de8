// Package catalog loads and serves the registry of data operation
// definitions discovered from YAML files.
package catalog

import "errors"

// Define static errors
var (
	ErrNoPaths          = errors.New("at least one catalog path is required")
	ErrMissingID        = errors.New("operation id is required")
	ErrMissingSource    = errors.New("operation source is required")
	ErrDuplicateID      = errors.New("duplicate operation id")
	ErrMissingStatement = errors.New("operation statement is required for this source")
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrMissingParameter = errors.New("missing required parameter")
)

// Config contains catalog discovery settings
type Config struct {
	Paths []string `yaml:"paths"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Paths) == 0 {
		return ErrNoPaths
	}

	return nil
}
