package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/ErikPlachta/sheetpipe/pkg/rows"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name string
	rows []rows.Row
	err  error

	gotQuery *Query
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context, q *Query) ([]rows.Row, error) {
	s.gotQuery = q
	return s.rows, s.err
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	gate, err := NewGate(log, &Config{MaxConcurrentRequests: 2, FetchTimeoutMs: 1000})
	require.NoError(t, err)

	return NewOrchestrator(log, gate)
}

func TestOrchestrator_UnknownSource(t *testing.T) {
	o := newTestOrchestrator(t)

	_, err := o.Fetch(context.Background(), "warehouse", &Query{OperationID: "sales-summary"})
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestOrchestrator_DispatchesToSource(t *testing.T) {
	o := newTestOrchestrator(t)

	src := &stubSource{name: "static", rows: []rows.Row{{"id": 1}}}
	o.Register(src)

	q := &Query{OperationID: "sales-summary", Params: map[string]interface{}{"region": "EMEA"}}
	rs, err := o.Fetch(context.Background(), "static", q)
	require.NoError(t, err)

	assert.Len(t, rs, 1)
	assert.Same(t, q, src.gotQuery)
}

func TestOrchestrator_PropagatesSourceError(t *testing.T) {
	o := newTestOrchestrator(t)

	wantErr := errors.New("upstream unavailable")
	o.Register(&stubSource{name: "warehouse", err: wantErr})

	_, err := o.Fetch(context.Background(), "warehouse", &Query{OperationID: "sales-summary"})
	assert.ErrorIs(t, err, wantErr)
}
