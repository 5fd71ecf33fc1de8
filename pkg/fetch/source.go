package fetch

import (
	"context"

	"github.com/ErikPlachta/sheetpipe/pkg/rows"
)

// Query is a resolved request against one source: the operation it belongs
// to, the rendered statement (empty for sources that do not take one) and the
// caller-supplied parameters.
type Query struct {
	OperationID string
	Statement   string
	Params      map[string]interface{}
}

// Source is the interchangeable fetch adapter contract. Implementations must
// route every remote round trip through the shared Gate they were built with.
type Source interface {
	// Name identifies the source in catalog definitions
	Name() string

	// Fetch executes the query and returns the raw result rows
	Fetch(ctx context.Context, q *Query) ([]rows.Row, error)
}
