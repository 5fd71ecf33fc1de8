package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ErikPlachta/sheetpipe/pkg/auth"
	"github.com/ErikPlachta/sheetpipe/pkg/cache"
	"github.com/ErikPlachta/sheetpipe/pkg/catalog"
	"github.com/ErikPlachta/sheetpipe/pkg/fetch"
	"github.com/ErikPlachta/sheetpipe/pkg/observability"
	"github.com/ErikPlachta/sheetpipe/pkg/ownership"
	"github.com/ErikPlachta/sheetpipe/pkg/reconcile"
	"github.com/ErikPlachta/sheetpipe/pkg/rows"
	"github.com/ErikPlachta/sheetpipe/pkg/telemetry"
	"github.com/ErikPlachta/sheetpipe/pkg/workbook"
	"github.com/ErikPlachta/sheetpipe/pkg/writer"
	"github.com/sirupsen/logrus"
)

// MaterializeResult is the structured outcome of a materialization. Running
// outside a workbook host is an expected condition, so failures at this stage
// come back as a value, never a panic or error for the transport to mangle.
type MaterializeResult struct {
	OK     bool              `json:"ok"`
	Target *reconcile.Target `json:"target,omitempty"`
	Write  *writer.Result    `json:"write,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Service is the pipeline facade
type Service interface {
	// Execute runs the retrieval path: auth gate, cache lookup, fetch on
	// miss, row policy, cache populate.
	Execute(ctx context.Context, token, operationID string, params map[string]interface{}) ([]rows.Row, error)

	// Materialize retrieves rows (usually a cache hit) and writes them into
	// the resolved workbook table. Auth, catalog and fetch failures return
	// an error; everything downstream reports through the structured result.
	Materialize(ctx context.Context, token, operationID string, params map[string]interface{}, hint *reconcile.Hint) (*MaterializeResult, error)

	// ClearCache drops every cached result
	ClearCache(ctx context.Context) error

	// CacheStats reports cache occupancy
	CacheStats(ctx context.Context) (*cache.Stats, error)
}

type service struct {
	cfg        *Config
	log        logrus.FieldLogger
	validator  auth.Validator
	catalog    catalog.Service
	cache      *cache.Store
	defaultTTL time.Duration
	orch       *fetch.Orchestrator
	emitter    telemetry.Emitter
	host       workbook.Host
	ownership  ownership.Store
	reconciler *reconcile.Reconciler
	writer     *writer.Writer
}

// NewService creates the pipeline facade
func NewService(
	log logrus.FieldLogger,
	cfg *Config,
	validator auth.Validator,
	catalogSvc catalog.Service,
	cacheStore *cache.Store,
	defaultTTL time.Duration,
	orch *fetch.Orchestrator,
	emitter telemetry.Emitter,
	host workbook.Host,
	ownershipStore ownership.Store,
	reconciler *reconcile.Reconciler,
	tableWriter *writer.Writer,
) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &service{
		cfg:        cfg,
		log:        log.WithField("service", "pipeline"),
		validator:  validator,
		catalog:    catalogSvc,
		cache:      cacheStore,
		defaultTTL: defaultTTL,
		orch:       orch,
		emitter:    emitter,
		host:       host,
		ownership:  ownershipStore,
		reconciler: reconciler,
		writer:     tableWriter,
	}, nil
}

// Execute runs the retrieval path
func (s *service) Execute(ctx context.Context, token, operationID string, params map[string]interface{}) ([]rows.Row, error) {
	op, resolved, err := s.admit(token, operationID, params)
	if err != nil {
		return nil, err
	}

	return s.retrieve(ctx, op, resolved)
}

func (s *service) admit(token, operationID string, params map[string]interface{}) (*catalog.Operation, map[string]interface{}, error) {
	if res := s.validator.Validate(token); !res.Valid {
		s.emitter.Emit("pipeline", "auth_failed", telemetry.SeverityError,
			"session validation failed: "+res.Reason,
			map[string]interface{}{"operation_id": operationID, "reason": res.Reason})

		return nil, nil, auth.NewError(res.Reason)
	}

	op, ok := s.catalog.GetOperationByID(operationID)
	if !ok {
		return nil, nil, &OperationNotFoundError{ID: operationID}
	}

	resolved, err := op.ResolveParams(params)
	if err != nil {
		return nil, nil, err
	}

	return op, resolved, nil
}

func (s *service) retrieve(ctx context.Context, op *catalog.Operation, params map[string]interface{}) ([]rows.Row, error) {
	cached, err := s.cache.Get(ctx, op.ID, params)
	if err != nil {
		// A broken cache degrades to a fetch, it does not fail the request.
		s.log.WithError(err).WithField("operation_id", op.ID).Warn("Cache lookup failed")
	}
	if cached != nil {
		s.log.WithFields(logrus.Fields{
			"operation_id": op.ID,
			"rows":         len(cached),
		}).Debug("Serving cached result")

		return cached, nil
	}

	statement := ""
	if op.Statement != "" {
		statement, err = s.catalog.Render(op, params)
		if err != nil {
			return nil, err
		}
	}

	rs, err := s.orch.Fetch(ctx, op.Source, &fetch.Query{
		OperationID: op.ID,
		Statement:   statement,
		Params:      params,
	})
	if err != nil {
		info := classifyError(op.ID, err)
		s.emitter.Emit("pipeline", "fetch_failed", telemetry.SeverityError,
			info.Message, info.context())

		return nil, err
	}

	policy := rows.Policy{
		MaxRowsPerQuery: s.cfg.MaxRowsPerQuery,
		WarnAtRowCount:  s.cfg.WarnAtRowCount,
	}
	rs = policy.Apply(op.ID, rs, s.emitter)

	ttl := op.TTL()
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.cache.Put(ctx, op.ID, params, rs, ttl); err != nil {
		s.log.WithError(err).WithField("operation_id", op.ID).Warn("Cache populate failed")
	}

	return rs, nil
}

// Materialize retrieves rows and writes them into the resolved table
func (s *service) Materialize(ctx context.Context, token, operationID string, params map[string]interface{}, hint *reconcile.Hint) (*MaterializeResult, error) {
	op, resolved, err := s.admit(token, operationID, params)
	if err != nil {
		return nil, err
	}

	rs, err := s.retrieve(ctx, op, resolved)
	if err != nil {
		return nil, err
	}

	if !s.host.Available() {
		s.emitter.Emit("pipeline", "host_unavailable", telemetry.SeverityWarning,
			workbook.ErrHostUnavailable.Error(),
			map[string]interface{}{"operation_id": op.ID})

		return &MaterializeResult{OK: false, Error: workbook.ErrHostUnavailable.Error()}, nil
	}

	return s.materialize(ctx, op, rs, s.resolveHint(op, hint)), nil
}

func (s *service) resolveHint(op *catalog.Operation, hint *reconcile.Hint) reconcile.Hint {
	h := reconcile.Hint{}
	if hint != nil {
		h = *hint
	}

	if h.SheetName == "" {
		h.SheetName = op.SheetHint
	}
	if h.SheetName == "" {
		h.SheetName = s.cfg.DefaultSheet
	}
	if h.TableName == "" {
		h.TableName = op.TableHint
	}
	if h.TableName == "" {
		h.TableName = "tbl_" + op.ID
	}

	return h
}

func (s *service) materialize(ctx context.Context, op *catalog.Operation, rs []rows.Row, hint reconcile.Hint) *MaterializeResult {
	start := time.Now()

	records, err := s.ownership.List(ctx)
	if err != nil {
		return s.failed(op, "failed to read ownership records", err)
	}

	tables, err := s.host.ListTables(ctx)
	if err != nil {
		return s.failed(op, "failed to list workbook tables", err)
	}

	target := s.reconciler.Resolve(op.ID, hint, tables, records)

	header := rows.Columns(rs)
	grid := rows.Normalize(rs, header)

	var wr *writer.Result
	if target.IsExisting {
		table, getErr := s.host.GetTable(ctx, target.TableName)
		if getErr != nil {
			return s.failed(op, "failed to read target table", getErr)
		}
		if table == nil {
			// The managed table vanished between resolution and write.
			wr, err = s.writer.CreateTable(ctx, target.SheetName, target.TableName, header, grid)
		} else {
			wr, err = s.writer.Overwrite(ctx, table, header, grid, s.cfg.ChunkSize, s.cfg.ChunkBackoff())
		}
	} else {
		wr, err = s.writer.CreateTable(ctx, target.SheetName, target.TableName, header, grid)
	}
	if err != nil {
		return s.failed(op, "table write failed", err)
	}

	s.recordWriteMetrics(op.ID, wr, time.Since(start))

	if wr.Failed() && s.cfg.CleanupOnPartialFailure {
		s.cleanupPartial(ctx, op.ID, target)

		return &MaterializeResult{
			OK:     false,
			Target: &target,
			Write:  wr,
			Error:  fmt.Sprintf("partial write: %d of %d rows written, table removed", wr.RowsWritten, wr.RowsWritten+wr.RowsFailed),
		}
	}

	if err := s.ownership.Upsert(ctx, ownership.Record{
		SheetName:   target.SheetName,
		TableName:   target.TableName,
		OperationID: op.ID,
		IsManaged:   true,
	}); err != nil {
		s.log.WithError(err).WithField("operation_id", op.ID).Warn("Ownership upsert failed")
	}

	if err := s.host.ActivateLocation(ctx, target.SheetName, target.TableName); err != nil {
		s.log.WithError(err).Debug("Activate location failed")
	}

	res := &MaterializeResult{OK: !wr.Failed(), Target: &target, Write: wr}
	if wr.Failed() {
		res.Error = fmt.Sprintf("partial write: %d of %d rows written", wr.RowsWritten, wr.RowsWritten+wr.RowsFailed)
	}

	s.emitter.Emit("pipeline", "materialized", telemetry.SeverityInfo,
		fmt.Sprintf("wrote %d rows to %s!%s", wr.RowsWritten, target.SheetName, target.TableName),
		map[string]interface{}{
			"operation_id": op.ID,
			"rows_written": wr.RowsWritten,
			"rows_failed":  wr.RowsFailed,
			"recreated":    wr.Recreated,
		})

	return res
}

func (s *service) failed(op *catalog.Operation, msg string, err error) *MaterializeResult {
	info := classifyError(op.ID, err)
	s.emitter.Emit("pipeline", "materialize_failed", telemetry.SeverityError,
		fmt.Sprintf("%s: %v", msg, err), info.context())

	return &MaterializeResult{OK: false, Error: fmt.Sprintf("%s: %v", msg, err)}
}

func (s *service) cleanupPartial(ctx context.Context, operationID string, target reconcile.Target) {
	s.log.WithFields(logrus.Fields{
		"operation_id": operationID,
		"table":        target.TableName,
	}).Warn("Cleaning up partially written table")

	if err := s.host.DeleteTable(ctx, target.TableName); err != nil {
		s.log.WithError(err).Warn("Partial-write cleanup failed")
	}
	if err := s.ownership.Remove(ctx, target.SheetName, target.TableName, operationID); err != nil {
		s.log.WithError(err).Warn("Partial-write ownership cleanup failed")
	}
}

func (s *service) recordWriteMetrics(operationID string, wr *writer.Result, elapsed time.Duration) {
	observability.RowsWrittenTotal.WithLabelValues(operationID).Add(float64(wr.RowsWritten))
	observability.WriteDuration.WithLabelValues(operationID).Observe(elapsed.Seconds())
	if wr.Recreated {
		observability.TableRecreations.WithLabelValues(operationID).Inc()
	}
	for _, c := range wr.Chunks {
		status := "success"
		if !c.Success {
			status = "failed"
		}
		observability.WriteChunksTotal.WithLabelValues(operationID, status).Inc()
	}
}

// ClearCache drops every cached result
func (s *service) ClearCache(ctx context.Context) error {
	return s.cache.ClearAll(ctx)
}

// CacheStats reports cache occupancy
func (s *service) CacheStats(ctx context.Context) (*cache.Stats, error) {
	return s.cache.GetStats(ctx)
}

// Ensure service implements the interface
var _ Service = (*service)(nil)
