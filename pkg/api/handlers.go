package api

import (
	"errors"
	"strings"

	"github.com/ErikPlachta/sheetpipe/pkg/auth"
	"github.com/ErikPlachta/sheetpipe/pkg/catalog"
	"github.com/ErikPlachta/sheetpipe/pkg/fetch"
	"github.com/ErikPlachta/sheetpipe/pkg/fetch/warehouse"
	"github.com/ErikPlachta/sheetpipe/pkg/pipeline"
	"github.com/ErikPlachta/sheetpipe/pkg/reconcile"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// Server implements the HTTP handlers over the pipeline facade
type Server struct {
	pipeline pipeline.Service
	catalog  catalog.Service
	log      logrus.FieldLogger
}

// NewServer creates the handler set
func NewServer(pipelineSvc pipeline.Service, catalogSvc catalog.Service, log logrus.FieldLogger) *Server {
	return &Server{
		pipeline: pipelineSvc,
		catalog:  catalogSvc,
		log:      log.WithField("component", "api.handlers"),
	}
}

// executeRequest is the body of execute and materialize calls
type executeRequest struct {
	Params    map[string]interface{} `json:"params"`
	SheetName string                 `json:"sheetName"`
	TableName string                 `json:"tableName"`
}

// operationSummary is the catalog listing shape
type operationSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source"`
	CacheTTLMs  int    `json:"cacheTtlMs,omitempty"`
}

// ListOperations returns the catalog
func (s *Server) ListOperations(c fiber.Ctx) error {
	ops := s.catalog.List()

	out := make([]operationSummary, 0, len(ops))
	for _, op := range ops {
		out = append(out, operationSummary{
			ID:          op.ID,
			Name:        op.Name,
			Description: op.Description,
			Source:      op.Source,
			CacheTTLMs:  op.CacheTTLMs,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"operations": out})
}

// Execute runs the retrieval path and returns the rows
func (s *Server) Execute(c fiber.Ctx) error {
	operationID := c.Params("id")

	var req executeRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
		}
	}

	rs, err := s.pipeline.Execute(c.Context(), bearerToken(c), operationID, req.Params)
	if err != nil {
		return s.mapError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"operationId": operationID,
		"rowCount":    len(rs),
		"rows":        rs,
	})
}

// Materialize runs the full pipeline into the workbook
func (s *Server) Materialize(c fiber.Ctx) error {
	operationID := c.Params("id")

	var req executeRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
		}
	}

	var hint *reconcile.Hint
	if req.SheetName != "" || req.TableName != "" {
		hint = &reconcile.Hint{SheetName: req.SheetName, TableName: req.TableName}
	}

	res, err := s.pipeline.Materialize(c.Context(), bearerToken(c), operationID, req.Params, hint)
	if err != nil {
		return s.mapError(c, err)
	}

	status := fiber.StatusOK
	if !res.OK {
		// The workbook host being absent is an expected, recoverable
		// condition for the task pane; it is not a server error.
		status = fiber.StatusConflict
	}

	return c.Status(status).JSON(res)
}

// CacheStats reports cache occupancy
func (s *Server) CacheStats(c fiber.Ctx) error {
	stats, err := s.pipeline.CacheStats(c.Context())
	if err != nil {
		return s.mapError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}

// ClearCache drops every cached result
func (s *Server) ClearCache(c fiber.Ctx) error {
	if err := s.pipeline.ClearCache(c.Context()); err != nil {
		return s.mapError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) mapError(c fiber.Ctx, err error) error {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		return c.Status(authErr.Status).JSON(fiber.Map{
			"error":  "authentication failed",
			"reason": authErr.Reason,
		})
	}

	var notFound *pipeline.OperationNotFoundError
	if errors.As(err, &notFound) {
		return fiber.NewError(fiber.StatusNotFound, notFound.Error())
	}

	var timeout *fetch.TimeoutError
	if errors.As(err, &timeout) {
		return fiber.NewError(fiber.StatusGatewayTimeout, timeout.Error())
	}

	if errors.Is(err, catalog.ErrUnknownParameter) || errors.Is(err, catalog.ErrMissingParameter) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if errors.Is(err, warehouse.ErrStatementGone) {
		return fiber.NewError(fiber.StatusGone, err.Error())
	}

	s.log.WithError(err).Error("Request failed")

	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

func bearerToken(c fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
