// Package workbook abstracts the host spreadsheet object model. No core
// logic may depend on host-object shape beyond this contract.
package workbook

import (
	"context"
	"errors"
)

// Define static errors
var (
	// ErrHostUnavailable is returned by every operation when the process is
	// not attached to a workbook host. Callers treat this as an expected
	// condition and degrade gracefully instead of failing hard.
	ErrHostUnavailable = errors.New("workbook host is not available")
	// ErrTableNotFound is returned when a named table does not exist
	ErrTableNotFound = errors.New("table not found")
	// ErrTableExists is returned when creating a table whose name is taken
	ErrTableExists = errors.New("table already exists")
)

// TableInfo identifies an existing host table and the sheet containing it
type TableInfo struct {
	SheetName string
	Name      string
}

// Table is the host view of a structured table
type Table struct {
	SheetName string
	Name      string
	Header    []string
	RowCount  int // data-body rows, excluding the header
}

// Host is the external spreadsheet boundary. Table names are unique across
// the whole workbook, matching the host object model.
type Host interface {
	// Available reports whether the process is attached to a live workbook
	Available() bool

	// ListTables returns every table in the workbook
	ListTables(ctx context.Context) ([]TableInfo, error)

	// GetTable returns the named table, or nil when it does not exist
	GetTable(ctx context.Context, name string) (*Table, error)

	// CreateTable writes header and rows as one atomic range write
	CreateTable(ctx context.Context, sheetName, name string, header []string, rows [][]interface{}) error

	// ReplaceHeaderValues refreshes the header row values in place
	ReplaceHeaderValues(ctx context.Context, name string, header []string) error

	// ClearDataRows removes every data-body row, keeping the header
	ClearDataRows(ctx context.Context, name string) error

	// AppendRows appends one chunk of rows to the table body
	AppendRows(ctx context.Context, name string, chunk [][]interface{}) error

	// DeleteTable removes the table object from the workbook
	DeleteTable(ctx context.Context, name string) error

	// ActivateLocation focuses the sheet and table in the host UI
	ActivateLocation(ctx context.Context, sheetName, name string) error

	// ReadSheetRows reads the raw string grid of a sheet (used for the
	// hidden ownership sheet)
	ReadSheetRows(ctx context.Context, sheetName string) ([][]string, error)

	// WriteSheetRows replaces the raw string grid of a sheet, creating the
	// sheet hidden if it does not exist
	WriteSheetRows(ctx context.Context, sheetName string, grid [][]string) error
}
