// Package ownership persists the registry of workbook tables this system
// manages, keyed per operation. Records live as tabular rows with a header in
// a dedicated hidden sheet, so ownership survives independently of whether
// the tables themselves still exist; staleness is the reconciler's problem.
package ownership

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ErikPlachta/sheetpipe/pkg/workbook"
	"github.com/sirupsen/logrus"
)

// DefaultSheetName is the hidden sheet holding ownership records
const DefaultSheetName = "_sheetpipe_ownership"

// Record tracks one managed (sheet, table) pair for an operation
type Record struct {
	SheetName      string
	TableName      string
	OperationID    string
	IsManaged      bool
	LastTouchedUTC time.Time
}

// Store is the ownership registry contract
type Store interface {
	// List returns every persisted record
	List(ctx context.Context) ([]Record, error)

	// Upsert matches on (sheet, table, operation) and updates in place, or
	// appends a new record
	Upsert(ctx context.Context, rec Record) error

	// Remove deletes the record matching the triple
	Remove(ctx context.Context, sheetName, tableName, operationID string) error

	// PurgeAll deletes every record
	PurgeAll(ctx context.Context) error
}

// sheetStore persists records through the workbook host. Read-then-write is
// two host round trips and is not transactional; the workbook is assumed to
// have a single writer.
type sheetStore struct {
	host      workbook.Host
	sheetName string
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewSheetStore creates a store on the given host and hidden sheet
func NewSheetStore(log logrus.FieldLogger, host workbook.Host, sheetName string) Store {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	return &sheetStore{
		host:      host,
		sheetName: sheetName,
		log:       log.WithField("component", "ownership"),
		now:       time.Now,
	}
}

var headerRow = []string{"sheetName", "tableName", "operationId", "isManaged", "lastTouchedUtc"}

// List returns every persisted record
func (s *sheetStore) List(ctx context.Context) ([]Record, error) {
	grid, err := s.host.ReadSheetRows(ctx, s.sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read ownership sheet: %w", err)
	}

	if len(grid) <= 1 {
		return nil, nil
	}

	records := make([]Record, 0, len(grid)-1)
	for _, row := range grid[1:] {
		rec, ok := decodeRow(row)
		if !ok {
			s.log.WithField("row", row).Warn("Skipping undecodable ownership row")
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// Upsert matches on (sheet, table, operation) and updates in place, or
// appends a new record
func (s *sheetStore) Upsert(ctx context.Context, rec Record) error {
	records, err := s.List(ctx)
	if err != nil {
		return err
	}

	if rec.LastTouchedUTC.IsZero() {
		rec.LastTouchedUTC = s.now().UTC()
	}

	updated := false
	for i := range records {
		if records[i].SheetName == rec.SheetName &&
			records[i].TableName == rec.TableName &&
			records[i].OperationID == rec.OperationID {
			records[i].IsManaged = rec.IsManaged
			records[i].LastTouchedUTC = rec.LastTouchedUTC
			updated = true
			break
		}
	}

	if !updated {
		records = append(records, rec)
	}

	if err := s.write(ctx, records); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"sheet":        rec.SheetName,
		"table":        rec.TableName,
		"operation_id": rec.OperationID,
		"updated":      updated,
	}).Debug("Upserted ownership record")

	return nil
}

// Remove deletes the record matching the triple
func (s *sheetStore) Remove(ctx context.Context, sheetName, tableName, operationID string) error {
	records, err := s.List(ctx)
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, rec := range records {
		if rec.SheetName == sheetName && rec.TableName == tableName && rec.OperationID == operationID {
			continue
		}
		kept = append(kept, rec)
	}

	return s.write(ctx, kept)
}

// PurgeAll deletes every record
func (s *sheetStore) PurgeAll(ctx context.Context) error {
	return s.write(ctx, nil)
}

func (s *sheetStore) write(ctx context.Context, records []Record) error {
	grid := make([][]string, 0, len(records)+1)
	grid = append(grid, headerRow)
	for _, rec := range records {
		grid = append(grid, encodeRow(rec))
	}

	if err := s.host.WriteSheetRows(ctx, s.sheetName, grid); err != nil {
		return fmt.Errorf("failed to write ownership sheet: %w", err)
	}

	return nil
}

func encodeRow(rec Record) []string {
	return []string{
		rec.SheetName,
		rec.TableName,
		rec.OperationID,
		strconv.FormatBool(rec.IsManaged),
		rec.LastTouchedUTC.UTC().Format(time.RFC3339),
	}
}

func decodeRow(row []string) (Record, bool) {
	if len(row) < 5 {
		return Record{}, false
	}

	managed, err := strconv.ParseBool(row[3])
	if err != nil {
		return Record{}, false
	}

	touched, err := time.Parse(time.RFC3339, row[4])
	if err != nil {
		return Record{}, false
	}

	return Record{
		SheetName:      row[0],
		TableName:      row[1],
		OperationID:    row[2],
		IsManaged:      managed,
		LastTouchedUTC: touched,
	}, true
}

// Ensure sheetStore implements the interface
var _ Store = (*sheetStore)(nil)
