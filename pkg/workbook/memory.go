package workbook

import (
	"context"
	"fmt"
	"sync"
)

// MemoryHost is an in-process workbook used when sheetpipe runs detached
// from a real host, and by tests. It keeps the same single-writer semantics
// the host object model has: no transactions, last write wins.
type MemoryHost struct {
	mu     sync.Mutex
	tables map[string]*memTable   // by table name
	sheets map[string][][]string  // raw sheet grids
	order  []string               // table creation order for stable listing
}

type memTable struct {
	sheetName string
	header    []string
	body      [][]interface{}
}

// NewMemoryHost creates an empty in-process workbook
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{
		tables: make(map[string]*memTable),
		sheets: make(map[string][][]string),
	}
}

// Available always reports true for the in-process workbook
func (h *MemoryHost) Available() bool { return true }

// ListTables returns every table in creation order
func (h *MemoryHost) ListTables(_ context.Context) ([]TableInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	infos := make([]TableInfo, 0, len(h.order))
	for _, name := range h.order {
		t, ok := h.tables[name]
		if !ok {
			continue
		}
		infos = append(infos, TableInfo{SheetName: t.sheetName, Name: name})
	}

	return infos, nil
}

// GetTable returns the named table, or nil when absent
func (h *MemoryHost) GetTable(_ context.Context, name string) (*Table, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.tables[name]
	if !ok {
		return nil, nil
	}

	header := make([]string, len(t.header))
	copy(header, t.header)

	return &Table{
		SheetName: t.sheetName,
		Name:      name,
		Header:    header,
		RowCount:  len(t.body),
	}, nil
}

// CreateTable writes header and rows as one atomic grid
func (h *MemoryHost) CreateTable(_ context.Context, sheetName, name string, header []string, rowData [][]interface{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.tables[name]; ok {
		return fmt.Errorf("%w: %s", ErrTableExists, name)
	}

	hdr := make([]string, len(header))
	copy(hdr, header)

	body := make([][]interface{}, len(rowData))
	for i, r := range rowData {
		row := make([]interface{}, len(r))
		copy(row, r)
		body[i] = row
	}

	h.tables[name] = &memTable{sheetName: sheetName, header: hdr, body: body}
	h.order = append(h.order, name)

	return nil
}

// ReplaceHeaderValues refreshes the header row in place
func (h *MemoryHost) ReplaceHeaderValues(_ context.Context, name string, header []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.tables[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	hdr := make([]string, len(header))
	copy(hdr, header)
	t.header = hdr

	return nil
}

// ClearDataRows removes the data body, keeping the header
func (h *MemoryHost) ClearDataRows(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.tables[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	t.body = nil

	return nil
}

// AppendRows appends one chunk to the table body
func (h *MemoryHost) AppendRows(_ context.Context, name string, chunk [][]interface{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.tables[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	for _, r := range chunk {
		row := make([]interface{}, len(r))
		copy(row, r)
		t.body = append(t.body, row)
	}

	return nil
}

// DeleteTable removes the table object
func (h *MemoryHost) DeleteTable(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.tables[name]; !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	delete(h.tables, name)

	for i, n := range h.order {
		if n == name {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}

	return nil
}

// ActivateLocation is a no-op for the in-process workbook
func (h *MemoryHost) ActivateLocation(_ context.Context, _, _ string) error {
	return nil
}

// ReadSheetRows returns a copy of the raw sheet grid
func (h *MemoryHost) ReadSheetRows(_ context.Context, sheetName string) ([][]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	grid, ok := h.sheets[sheetName]
	if !ok {
		return nil, nil
	}

	out := make([][]string, len(grid))
	for i, r := range grid {
		row := make([]string, len(r))
		copy(row, r)
		out[i] = row
	}

	return out, nil
}

// WriteSheetRows replaces the raw sheet grid
func (h *MemoryHost) WriteSheetRows(_ context.Context, sheetName string, grid [][]string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([][]string, len(grid))
	for i, r := range grid {
		row := make([]string, len(r))
		copy(row, r)
		out[i] = row
	}
	h.sheets[sheetName] = out

	return nil
}

// TableBody returns a copy of a table's data rows. Test helper.
func (h *MemoryHost) TableBody(name string) [][]interface{} {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.tables[name]
	if !ok {
		return nil
	}

	out := make([][]interface{}, len(t.body))
	for i, r := range t.body {
		row := make([]interface{}, len(r))
		copy(row, r)
		out[i] = row
	}

	return out
}

// Ensure MemoryHost implements the interface
var _ Host = (*MemoryHost)(nil)
