package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ErikPlachta/sheetpipe/pkg/fetch"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of a submitted statement
type State string

// Statement states
const (
	StatePending   State = "PENDING"
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
	StateCanceled  State = "CANCELED"
	StateClosed    State = "CLOSED"
)

// Terminal reports whether the statement has finished executing
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCanceled, StateClosed:
		return true
	case StatePending, StateRunning:
		return false
	default:
		return false
	}
}

// Define static errors
var (
	ErrStatementFailed = errors.New("statement execution failed")
	ErrStatementGone   = errors.New("statement result no longer available")
)

// Column describes one result column
type Column struct {
	Name string
	Type string
}

// Statement is the parsed view of a statement-execution API response
type Statement struct {
	ID           string
	State        State
	TotalChunks  int
	TotalRows    int
	Columns      []Column
	Data         [][]interface{}
	ChunkIndex   int
	ErrorMessage string
}

// statementResponse mirrors the statement-execution API wire format
type statementResponse struct {
	StatementID string `json:"statement_id"`
	Status      struct {
		State string `json:"state"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"status"`
	Manifest struct {
		TotalChunkCount int `json:"total_chunk_count"`
		TotalRowCount   int `json:"total_row_count"`
		Schema          struct {
			Columns []struct {
				Name     string `json:"name"`
				TypeName string `json:"type_name"`
			} `json:"columns"`
		} `json:"schema"`
	} `json:"manifest"`
	Result struct {
		ChunkIndex int             `json:"chunk_index"`
		DataArray  [][]interface{} `json:"data_array"`
	} `json:"result"`
}

type chunkResponse struct {
	ChunkIndex int             `json:"chunk_index"`
	DataArray  [][]interface{} `json:"data_array"`
}

// Client talks to the SQL warehouse statement-execution HTTP API. One shared
// instance per process: the pooled transport is the whole point.
type Client struct {
	log         logrus.FieldLogger
	httpClient  *http.Client
	baseURL     string
	token       string
	warehouseID string
	waitTimeout string
}

// NewClient creates a warehouse API client
func NewClient(log logrus.FieldLogger, cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     2 * time.Minute,
		DisableKeepAlives:   false,
	}

	return &Client{
		log:         log.WithField("component", "warehouse-client"),
		httpClient:  &http.Client{Transport: transport, Timeout: 0}, // per-request contexts bound the calls
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		token:       cfg.Token,
		warehouseID: cfg.WarehouseID,
		waitTimeout: cfg.WaitTimeout,
	}, nil
}

// Submit executes a statement with named parameters. The server holds the
// request up to the configured wait timeout and keeps executing afterwards
// rather than canceling.
func (c *Client) Submit(ctx context.Context, statement string, params map[string]interface{}) (*Statement, error) {
	payload := map[string]interface{}{
		"warehouse_id":    c.warehouseID,
		"statement":       statement,
		"wait_timeout":    c.waitTimeout,
		"on_wait_timeout": "CONTINUE",
		"format":          "JSON_ARRAY",
	}

	if len(params) > 0 {
		named := make([]map[string]string, 0, len(params))
		for k, v := range params {
			named = append(named, map[string]string{"name": k, "value": fmt.Sprint(v)})
		}
		payload["parameters"] = named
	}

	var resp statementResponse
	if err := c.do(ctx, http.MethodPost, "/api/2.0/sql/statements", payload, &resp); err != nil {
		return nil, err
	}

	return parseStatement(&resp), nil
}

// Status returns the current state of a statement
func (c *Client) Status(ctx context.Context, statementID string) (*Statement, error) {
	var resp statementResponse
	path := "/api/2.0/sql/statements/" + statementID
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	return parseStatement(&resp), nil
}

// Chunk fetches one 0-based result chunk
func (c *Client) Chunk(ctx context.Context, statementID string, chunkIndex int) ([][]interface{}, error) {
	var resp chunkResponse
	path := fmt.Sprintf("/api/2.0/sql/statements/%s/result/chunks/%d", statementID, chunkIndex)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	return resp.DataArray, nil
}

// Cancel requests cancellation of a running statement. Best effort.
func (c *Client) Cancel(ctx context.Context, statementID string) error {
	path := "/api/2.0/sql/statements/" + statementID + "/cancel"
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, dest interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to serialize request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		return &fetch.NetworkError{Resource: c.baseURL + path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &fetch.NetworkError{Resource: c.baseURL + path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &fetch.NetworkError{
			Resource: c.baseURL + path,
			Err:      fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(data), 200)),
		}
	}

	if dest == nil {
		return nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func parseStatement(resp *statementResponse) *Statement {
	st := &Statement{
		ID:          resp.StatementID,
		State:       State(resp.Status.State),
		TotalChunks: resp.Manifest.TotalChunkCount,
		TotalRows:   resp.Manifest.TotalRowCount,
		Data:        resp.Result.DataArray,
		ChunkIndex:  resp.Result.ChunkIndex,
	}

	if st.State == "" {
		st.State = StatePending
	}
	if st.State == StateFailed {
		st.ErrorMessage = resp.Status.Error.Message
		if st.ErrorMessage == "" {
			st.ErrorMessage = "unknown error"
		}
	}

	for _, col := range resp.Manifest.Schema.Columns {
		st.Columns = append(st.Columns, Column{Name: col.Name, Type: col.TypeName})
	}

	return st
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
