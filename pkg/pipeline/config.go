// Package pipeline wires the retrieval path (auth gate, cache, fetch, row
// policy) and the explicit materialization step (reconcile, chunked write,
// ownership upkeep) behind one facade.
package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// Define static errors
var (
	ErrInvalidChunkSize = errors.New("chunkSize must be positive")
	ErrNegativeBackoff  = errors.New("chunkBackoffMs must not be negative")
)

// Config contains the pipeline knobs consumed verbatim from settings
type Config struct {
	// MaxRowsPerQuery is the hard cap; 0 disables truncation
	MaxRowsPerQuery int `yaml:"maxRowsPerQuery" default:"0"`
	// WarnAtRowCount is the soft threshold used when no hard cap is set
	WarnAtRowCount int `yaml:"warnAtRowCount" default:"10000"`
	// ChunkSize bounds one write chunk
	ChunkSize int `yaml:"chunkSize" default:"1000"`
	// ChunkBackoffMs is the pause between chunks
	ChunkBackoffMs int `yaml:"chunkBackoffMs" default:"250"`
	// CleanupOnPartialFailure removes the target table and its ownership
	// record when a chunk sequence fails part-way
	CleanupOnPartialFailure bool `yaml:"cleanupOnPartialFailure" default:"false"`
	// DefaultSheet anchors materializations with no sheet hint
	DefaultSheet string `yaml:"defaultSheet" default:"Sheet1"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}
	if c.ChunkBackoffMs < 0 {
		return ErrNegativeBackoff
	}

	return nil
}

// ChunkBackoff returns the inter-chunk pause as a duration
func (c *Config) ChunkBackoff() time.Duration {
	return time.Duration(c.ChunkBackoffMs) * time.Millisecond
}

// OperationNotFoundError is the fail-fast signal for an unknown operation id
type OperationNotFoundError struct {
	ID string
}

func (e *OperationNotFoundError) Error() string {
	return fmt.Sprintf("operation not found: %s", e.ID)
}
