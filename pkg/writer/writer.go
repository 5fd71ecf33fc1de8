package writer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErikPlachta/sheetpipe/pkg/workbook"
	"github.com/sirupsen/logrus"
)

// ErrInvalidChunkSize is returned when chunkSize is not positive
var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// Writer writes row grids into host tables
type Writer struct {
	host  workbook.Host
	log   logrus.FieldLogger
	sleep func(time.Duration)
}

// NewWriter creates a writer on the given host
func NewWriter(log logrus.FieldLogger, host workbook.Host) *Writer {
	return &Writer{
		host:  host,
		log:   log.WithField("component", "writer"),
		sleep: time.Sleep,
	}
}

// CreateTable writes header and all rows as one atomic range write. Chunking
// never applies to first creation.
func (w *Writer) CreateTable(ctx context.Context, sheetName, tableName string, header []string, data [][]interface{}) (*Result, error) {
	if err := w.host.CreateTable(ctx, sheetName, tableName, header, data); err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	w.log.WithFields(logrus.Fields{
		"sheet": sheetName,
		"table": tableName,
		"rows":  len(data),
	}).Info("Created table")

	return &Result{RowsWritten: len(data)}, nil
}

// Overwrite replaces the contents of an existing table. When the table's
// header no longer matches the new result the table object is deleted and
// recreated at the same anchor — a destructive but scoped recovery, never a
// silent resize. Otherwise the header values are refreshed, the data body is
// cleared and the new rows are appended in sequential chunks with backoff
// between them.
//
// A chunk that fails stops the sequence; rows already written stay in the
// host and the result carries the per-chunk breakdown.
func (w *Writer) Overwrite(ctx context.Context, table *workbook.Table, header []string, data [][]interface{}, chunkSize int, backoff time.Duration) (*Result, error) {
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}

	if !headerEqual(table.Header, header) {
		w.log.WithFields(logrus.Fields{
			"table":      table.Name,
			"old_header": table.Header,
			"new_header": header,
		}).Warn("Header mismatch, recreating table")

		if err := w.host.DeleteTable(ctx, table.Name); err != nil {
			return nil, fmt.Errorf("failed to delete mismatched table %s: %w", table.Name, err)
		}

		res, err := w.CreateTable(ctx, table.SheetName, table.Name, header, data)
		if err != nil {
			return nil, err
		}
		res.Recreated = true

		return res, nil
	}

	if err := w.host.ReplaceHeaderValues(ctx, table.Name, header); err != nil {
		return nil, fmt.Errorf("failed to refresh header of %s: %w", table.Name, err)
	}

	if err := w.host.ClearDataRows(ctx, table.Name); err != nil {
		return nil, fmt.Errorf("failed to clear rows of %s: %w", table.Name, err)
	}

	return w.appendChunks(ctx, table.Name, data, chunkSize, backoff), nil
}

func (w *Writer) appendChunks(ctx context.Context, tableName string, data [][]interface{}, chunkSize int, backoff time.Duration) *Result {
	res := &Result{}

	total := len(data)
	for start, idx := 0, 0; start < total; start, idx = start+chunkSize, idx+1 {
		end := start + chunkSize
		if end > total {
			end = total
		}

		if idx > 0 && backoff > 0 {
			w.sleep(backoff)
		}

		chunk := ChunkResult{Index: idx, StartRow: start, EndRow: end}

		// A started chunk runs to completion; there is no mid-chunk abort.
		if err := w.host.AppendRows(ctx, tableName, data[start:end]); err != nil {
			chunk.Success = false
			chunk.Error = err.Error()
			res.Chunks = append(res.Chunks, chunk)
			res.RowsFailed = total - res.RowsWritten

			w.log.WithError(err).WithFields(logrus.Fields{
				"table":     tableName,
				"chunk":     idx,
				"start_row": start,
				"end_row":   end,
			}).Error("Chunk write failed, stopping sequence")

			return res
		}

		chunk.Success = true
		res.Chunks = append(res.Chunks, chunk)
		res.RowsWritten += end - start

		w.log.WithFields(logrus.Fields{
			"table": tableName,
			"chunk": idx,
			"rows":  end - start,
		}).Debug("Chunk written")
	}

	return res
}

func headerEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
