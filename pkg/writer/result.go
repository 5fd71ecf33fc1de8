// Package writer materializes row sets into host tables: atomic creation,
// chunked overwrites with inter-chunk backoff, and header-mismatch recovery.
package writer

// ChunkResult reports one chunk write
type ChunkResult struct {
	Index    int    `json:"chunkIndex"`
	StartRow int    `json:"startRow"`
	EndRow   int    `json:"endRow"` // exclusive
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// Result reports a full table write. Chunks already written before a failure
// stay in the host; remediation is the caller's call, which is why the
// per-chunk list is exposed.
type Result struct {
	RowsWritten int           `json:"rowsWritten"`
	RowsFailed  int           `json:"rowsFailed"`
	Recreated   bool          `json:"recreated"`
	Chunks      []ChunkResult `json:"chunks,omitempty"`
}

// Failed reports whether any rows were not written
func (r *Result) Failed() bool {
	return r.RowsFailed > 0
}
