package testutil

import (
	"fmt"

	"github.com/ErikPlachta/sheetpipe/pkg/rows"
)

// SampleRows builds n rows with a stable three-column shape
func SampleRows(n int) []rows.Row {
	out := make([]rows.Row, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, rows.Row{
			"amount": float64((i + 1) * 10),
			"id":     i + 1,
			"region": fmt.Sprintf("region-%d", i%3),
		})
	}

	return out
}
