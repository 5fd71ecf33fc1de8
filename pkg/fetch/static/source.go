// Package static provides an in-process fetch source serving fixed row sets
// per operation. It backs demo catalogs and tests, and exercises the same
// gate as the remote sources so admission behavior is identical.
package static

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErikPlachta/sheetpipe/pkg/fetch"
	"github.com/ErikPlachta/sheetpipe/pkg/rows"
)

// SourceName is the name catalog operations use to select this source
const SourceName = "static"

// ErrNoData is returned when no dataset is registered for an operation
var ErrNoData = errors.New("no static dataset for operation")

// Source serves registered datasets keyed by operation id
type Source struct {
	gate *fetch.Gate
	data map[string][]rows.Row
}

// NewSource creates an empty static source
func NewSource(gate *fetch.Gate) *Source {
	return &Source{
		gate: gate,
		data: make(map[string][]rows.Row),
	}
}

// Register attaches a dataset to an operation id
func (s *Source) Register(operationID string, rs []rows.Row) {
	s.data[operationID] = rs
}

// Name identifies the source in catalog definitions
func (s *Source) Name() string { return SourceName }

// Fetch returns the registered dataset for the operation
func (s *Source) Fetch(ctx context.Context, q *fetch.Query) ([]rows.Row, error) {
	var out []rows.Row

	err := s.gate.Do(ctx, "static:"+q.OperationID, func(_ context.Context) error {
		rs, ok := s.data[q.OperationID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoData, q.OperationID)
		}

		out = make([]rows.Row, len(rs))
		copy(out, rs)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Ensure Source implements the fetch contract
var _ fetch.Source = (*Source)(nil)
