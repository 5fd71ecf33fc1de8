// Package rows defines the result row model shared by the fetch and write
// paths, plus the row-count policy applied between them.
package rows

import "sort"

// Row maps a column name to a scalar value. The column set may vary from row
// to row; it is normalized against a single header before writing.
type Row map[string]interface{}

// Columns derives the write header from the first row. Map iteration order is
// not stable, so the keys are sorted to keep the header deterministic.
func Columns(rs []Row) []string {
	if len(rs) == 0 {
		return nil
	}

	cols := make([]string, 0, len(rs[0]))
	for k := range rs[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	return cols
}

// Normalize projects every row onto the given header. Missing columns become
// nil cells; extra columns are dropped.
func Normalize(rs []Row, header []string) [][]interface{} {
	out := make([][]interface{}, 0, len(rs))
	for _, r := range rs {
		cells := make([]interface{}, len(header))
		for i, col := range header {
			if v, ok := r[col]; ok {
				cells[i] = v
			}
		}
		out = append(out, cells)
	}

	return out
}
