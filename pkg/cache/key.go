// Package cache implements the durable keyed store of previous operation
// results, with expiry handled by explicit sweeps rather than eviction.
package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Key derives the deterministic cache key for an operation and its parameter
// map. Parameter insertion order must never change the key, so keys are
// serialized in sorted order.
func Key(operationID string, params map[string]interface{}) (string, error) {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}

		k, err := json.Marshal(name)
		if err != nil {
			return "", fmt.Errorf("failed to serialize parameter name %q: %w", name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')

		v, err := json.Marshal(params[name])
		if err != nil {
			return "", fmt.Errorf("failed to serialize parameter %q: %w", name, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')

	return operationID + ":" + buf.String(), nil
}
