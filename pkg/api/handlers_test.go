package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ErikPlachta/sheetpipe/pkg/auth"
	"github.com/ErikPlachta/sheetpipe/pkg/cache"
	"github.com/ErikPlachta/sheetpipe/pkg/catalog"
	"github.com/ErikPlachta/sheetpipe/pkg/fetch"
	"github.com/ErikPlachta/sheetpipe/pkg/fetch/warehouse"
	"github.com/ErikPlachta/sheetpipe/pkg/pipeline"
	"github.com/ErikPlachta/sheetpipe/pkg/reconcile"
	"github.com/ErikPlachta/sheetpipe/pkg/rows"
	"github.com/ErikPlachta/sheetpipe/pkg/writer"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPipeline scripts the pipeline facade for handler tests
type stubPipeline struct {
	rows       []rows.Row
	execErr    error
	matRes     *pipeline.MaterializeResult
	matErr     error
	stats      *cache.Stats
	clearErr   error
	lastToken  string
	lastOp     string
	lastParams map[string]interface{}
	lastHint   *reconcile.Hint
}

func (s *stubPipeline) Execute(_ context.Context, token, operationID string, params map[string]interface{}) ([]rows.Row, error) {
	s.lastToken, s.lastOp, s.lastParams = token, operationID, params
	return s.rows, s.execErr
}

func (s *stubPipeline) Materialize(_ context.Context, token, operationID string, params map[string]interface{}, hint *reconcile.Hint) (*pipeline.MaterializeResult, error) {
	s.lastToken, s.lastOp, s.lastParams, s.lastHint = token, operationID, params, hint
	return s.matRes, s.matErr
}

func (s *stubPipeline) ClearCache(_ context.Context) error {
	return s.clearErr
}

func (s *stubPipeline) CacheStats(_ context.Context) (*cache.Stats, error) {
	return s.stats, nil
}

// stubCatalog serves a fixed operation list
type stubCatalog struct {
	ops []*catalog.Operation
}

func (s *stubCatalog) Start() error { return nil }
func (s *stubCatalog) Stop() error  { return nil }

func (s *stubCatalog) GetOperationByID(id string) (*catalog.Operation, bool) {
	for _, op := range s.ops {
		if op.ID == id {
			return op, true
		}
	}
	return nil, false
}

func (s *stubCatalog) List() []*catalog.Operation { return s.ops }

func (s *stubCatalog) Render(op *catalog.Operation, _ map[string]interface{}) (string, error) {
	return op.Statement, nil
}

func newTestApp(t *testing.T, p pipeline.Service, cat catalog.Service) *fiber.App {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})

	server := NewServer(p, cat, log)
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/operations", server.ListOperations)
	apiV1.Post("/operations/:id/execute", server.Execute)
	apiV1.Post("/operations/:id/materialize", server.Materialize)
	apiV1.Get("/cache/stats", server.CacheStats)
	apiV1.Delete("/cache", server.ClearCache)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)

	var decoded map[string]interface{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &decoded))
	}

	return resp, decoded
}

func TestListOperations(t *testing.T) {
	cat := &stubCatalog{ops: []*catalog.Operation{
		{ID: "sales-summary", Name: "Sales Summary", Source: "warehouse", CacheTTLMs: 60000},
		{ID: "inventory", Name: "inventory", Source: "static"},
	}}
	app := newTestApp(t, &stubPipeline{}, cat)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/operations", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ops, ok := body["operations"].([]interface{})
	require.True(t, ok)
	require.Len(t, ops, 2)

	first := ops[0].(map[string]interface{})
	assert.Equal(t, "sales-summary", first["id"])
	assert.Equal(t, "warehouse", first["source"])
	assert.Equal(t, float64(60000), first["cacheTtlMs"])
}

func TestExecute(t *testing.T) {
	p := &stubPipeline{rows: []rows.Row{{"id": 1}, {"id": 2}}}
	app := newTestApp(t, p, &stubCatalog{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/operations/sales-summary/execute",
		map[string]interface{}{"params": map[string]interface{}{"region": "EMEA"}},
		map[string]string{"Authorization": "Bearer tok-123"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "sales-summary", body["operationId"])
	assert.Equal(t, float64(2), body["rowCount"])

	assert.Equal(t, "tok-123", p.lastToken)
	assert.Equal(t, "sales-summary", p.lastOp)
	assert.Equal(t, map[string]interface{}{"region": "EMEA"}, p.lastParams)
}

func TestExecute_NoBody(t *testing.T) {
	p := &stubPipeline{rows: nil}
	app := newTestApp(t, p, &stubCatalog{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/operations/sales-summary/execute", nil, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["rowCount"])
	assert.Empty(t, p.lastToken)
}

func TestExecute_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "auth failure",
			err:        auth.NewError(auth.ReasonExpired),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown operation",
			err:        &pipeline.OperationNotFoundError{ID: "missing"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "fetch timeout",
			err:        &fetch.TimeoutError{Resource: "warehouse:sales-summary", Limit: 30 * time.Second},
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "bad parameter",
			err:        errors.Join(catalog.ErrUnknownParameter),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "statement gone",
			err:        fmt.Errorf("fetch failed: %w", warehouse.ErrStatementGone),
			wantStatus: http.StatusGone,
		},
		{
			name:       "internal failure",
			err:        errors.New("redis exploded"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, &stubPipeline{execErr: tt.err}, &stubCatalog{})

			resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/operations/sales-summary/execute", nil, nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestExecute_AuthFailureCarriesReason(t *testing.T) {
	app := newTestApp(t, &stubPipeline{execErr: auth.NewError(auth.ReasonRevoked)}, &stubCatalog{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/operations/sales-summary/execute", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, auth.ReasonRevoked, body["reason"])
}

func TestMaterialize(t *testing.T) {
	p := &stubPipeline{matRes: &pipeline.MaterializeResult{
		OK:     true,
		Target: &reconcile.Target{SheetName: "Sales", TableName: "tbl_sales", IsExisting: true},
		Write:  &writer.Result{RowsWritten: 42},
	}}
	app := newTestApp(t, p, &stubCatalog{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/operations/sales-summary/materialize",
		map[string]interface{}{"sheetName": "Sales", "tableName": "tbl_sales"}, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])

	require.NotNil(t, p.lastHint)
	assert.Equal(t, "Sales", p.lastHint.SheetName)
	assert.Equal(t, "tbl_sales", p.lastHint.TableName)

	target := body["target"].(map[string]interface{})
	assert.Equal(t, "tbl_sales", target["tableName"])
	assert.Equal(t, true, target["isExisting"])
}

func TestMaterialize_NoHintWhenBodyOmitsTarget(t *testing.T) {
	p := &stubPipeline{matRes: &pipeline.MaterializeResult{OK: true}}
	app := newTestApp(t, p, &stubCatalog{})

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/operations/sales-summary/materialize",
		map[string]interface{}{"params": map[string]interface{}{}}, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, p.lastHint)
}

func TestMaterialize_StructuredFailureIsConflict(t *testing.T) {
	p := &stubPipeline{matRes: &pipeline.MaterializeResult{
		OK:    false,
		Error: "workbook host is not available",
	}}
	app := newTestApp(t, p, &stubCatalog{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/operations/sales-summary/materialize", nil, nil)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "workbook host is not available", body["error"])
}

func TestCacheEndpoints(t *testing.T) {
	p := &stubPipeline{stats: &cache.Stats{Keys: 3, Entries: 7}}
	app := newTestApp(t, p, &stubCatalog{})

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/cache/stats", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["keys"])
	assert.Equal(t, float64(7), body["entries"])

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/cache", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
