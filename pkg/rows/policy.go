package rows

import (
	"fmt"

	"github.com/ErikPlachta/sheetpipe/pkg/telemetry"
)

// Policy holds the row-count limits applied to a raw result set. The two
// modes are mutually exclusive per call: a positive MaxRowsPerQuery enforces
// a hard cap, otherwise a positive WarnAtRowCount emits a warning without
// truncating.
type Policy struct {
	MaxRowsPerQuery int
	WarnAtRowCount  int
}

// Apply enforces the policy on the result set. It returns the (possibly
// truncated) rows. Warnings are emitted through the telemetry sink; the row
// shape is never altered beyond truncation.
func (p Policy) Apply(operationID string, rs []Row, emitter telemetry.Emitter) []Row {
	if p.MaxRowsPerQuery > 0 {
		if len(rs) > p.MaxRowsPerQuery {
			emitter.Emit("pipeline", "rows_truncated", telemetry.SeverityWarning,
				fmt.Sprintf("result truncated from %d to %d rows", len(rs), p.MaxRowsPerQuery),
				map[string]interface{}{
					"operation_id": operationID,
					"row_count":    len(rs),
					"max_rows":     p.MaxRowsPerQuery,
				})

			return rs[:p.MaxRowsPerQuery]
		}

		return rs
	}

	if p.WarnAtRowCount > 0 && len(rs) > p.WarnAtRowCount {
		emitter.Emit("pipeline", "rows_threshold_exceeded", telemetry.SeverityWarning,
			fmt.Sprintf("result has %d rows, above the warning threshold of %d", len(rs), p.WarnAtRowCount),
			map[string]interface{}{
				"operation_id": operationID,
				"row_count":    len(rs),
				"warn_at":      p.WarnAtRowCount,
			})
	}

	return rs
}
