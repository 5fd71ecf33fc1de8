package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ErikPlachta/sheetpipe/pkg/fetch"
	"github.com/ErikPlachta/sheetpipe/pkg/rows"
	"github.com/sirupsen/logrus"
)

// SourceName is the name catalog operations use to select this source
const SourceName = "warehouse"

// Source adapts the warehouse client to the fetch contract. Submit, every
// status poll and every chunk fetch is a separate remote round trip, and each
// one is admitted through the shared gate: a paginated fetch holds at most
// one concurrency slot at a time.
type Source struct {
	client       *Client
	gate         *fetch.Gate
	pollInterval time.Duration
	log          logrus.FieldLogger
}

// NewSource creates the warehouse source
func NewSource(log logrus.FieldLogger, client *Client, gate *fetch.Gate, cfg *Config) *Source {
	return &Source{
		client:       client,
		gate:         gate,
		pollInterval: cfg.PollInterval(),
		log:          log.WithField("component", "warehouse-source"),
	}
}

// Name identifies the source in catalog definitions
func (s *Source) Name() string { return SourceName }

// Fetch submits the rendered statement, polls it to a terminal state and
// pages every result chunk.
func (s *Source) Fetch(ctx context.Context, q *fetch.Query) ([]rows.Row, error) {
	resource := fmt.Sprintf("warehouse:%s", q.OperationID)

	var st *Statement
	err := s.gate.Do(ctx, resource, func(callCtx context.Context) error {
		var submitErr error
		st, submitErr = s.client.Submit(callCtx, q.Statement, q.Params)
		return submitErr
	})
	if err != nil {
		return nil, err
	}

	st, err = s.awaitTerminal(ctx, resource, st)
	if err != nil {
		return nil, err
	}

	switch st.State {
	case StateFailed:
		return nil, fmt.Errorf("%w: %s", ErrStatementFailed, st.ErrorMessage)
	case StateCanceled, StateClosed:
		return nil, fmt.Errorf("%w: statement %s is %s", ErrStatementGone, st.ID, st.State)
	case StateSucceeded:
	case StatePending, StateRunning:
		// Unreachable after awaitTerminal
	}

	return s.collectRows(ctx, resource, st)
}

func (s *Source) awaitTerminal(ctx context.Context, resource string, st *Statement) (*Statement, error) {
	for !st.State.Terminal() {
		select {
		case <-ctx.Done():
			// Best-effort cancel so the warehouse stops burning compute.
			cancelCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.client.Cancel(cancelCtx, st.ID); err != nil {
				s.log.WithError(err).WithField("statement_id", st.ID).Debug("Statement cancel failed")
			}
			cancel()

			return nil, ctx.Err()
		case <-time.After(s.pollInterval):
		}

		err := s.gate.Do(ctx, resource, func(callCtx context.Context) error {
			var statusErr error
			st, statusErr = s.client.Status(callCtx, st.ID)
			return statusErr
		})
		if err != nil {
			return nil, err
		}
	}

	return st, nil
}

func (s *Source) collectRows(ctx context.Context, resource string, st *Statement) ([]rows.Row, error) {
	out := zipRows(nil, st.Columns, st.Data)

	firstUnread := 0
	if st.Data != nil {
		firstUnread = st.ChunkIndex + 1
	}

	for idx := firstUnread; idx < st.TotalChunks; idx++ {
		var data [][]interface{}
		err := s.gate.Do(ctx, resource, func(callCtx context.Context) error {
			var chunkErr error
			data, chunkErr = s.client.Chunk(callCtx, st.ID, idx)
			return chunkErr
		})
		if err != nil {
			return nil, err
		}

		out = zipRows(out, st.Columns, data)
	}

	if st.TotalRows > 0 && len(out) != st.TotalRows {
		s.log.WithFields(logrus.Fields{
			"statement_id": st.ID,
			"expected":     st.TotalRows,
			"received":     len(out),
		}).Warn("Row count mismatch against statement manifest")
	}

	return out, nil
}

func zipRows(dst []rows.Row, cols []Column, data [][]interface{}) []rows.Row {
	for _, cells := range data {
		row := make(rows.Row, len(cols))
		for i, col := range cols {
			if i < len(cells) {
				row[col.Name] = cells[i]
			} else {
				row[col.Name] = nil
			}
		}
		dst = append(dst, row)
	}

	return dst
}

// Ensure Source implements the fetch contract
var _ fetch.Source = (*Source)(nil)
