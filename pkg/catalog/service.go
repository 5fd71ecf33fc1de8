package catalog

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Service is the operation registry consumed by the pipeline
type Service interface {
	// Start discovers and parses the catalog
	Start() error

	// Stop releases catalog resources
	Stop() error

	// GetOperationByID returns the operation, or false when unknown
	GetOperationByID(id string) (*Operation, bool)

	// List returns every registered operation
	List() []*Operation

	// Render renders an operation statement with resolved parameters
	Render(op *Operation, params map[string]interface{}) (string, error)
}

type service struct {
	config  *Config
	log     logrus.FieldLogger
	engine  *TemplateEngine
	byID    map[string]*Operation
	ordered []*Operation
}

// NewService creates a catalog service
func NewService(log logrus.FieldLogger, cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &service{
		config: cfg,
		log:    log.WithField("service", "catalog"),
		engine: NewTemplateEngine(),
		byID:   make(map[string]*Operation),
	}, nil
}

// Start discovers and parses the catalog
func (s *service) Start() error {
	files, err := discoverPaths(s.config.Paths)
	if err != nil {
		return fmt.Errorf("failed to discover operations: %w", err)
	}

	for _, file := range files {
		op, parseErr := parseOperation(file.Content, file.FilePath)
		if parseErr != nil {
			return parseErr
		}

		if _, exists := s.byID[op.ID]; exists {
			return fmt.Errorf("%w: %s (%s)", ErrDuplicateID, op.ID, file.FilePath)
		}

		s.byID[op.ID] = op
		s.ordered = append(s.ordered, op)
		s.log.WithField("operation_id", op.ID).Debug("Loaded operation")
	}

	s.log.WithField("operations", len(s.ordered)).Info("Catalog service started")

	return nil
}

// Stop releases catalog resources
func (s *service) Stop() error {
	return nil
}

// GetOperationByID returns the operation, or false when unknown
func (s *service) GetOperationByID(id string) (*Operation, bool) {
	op, ok := s.byID[id]
	return op, ok
}

// List returns every registered operation
func (s *service) List() []*Operation {
	out := make([]*Operation, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Render renders an operation statement with resolved parameters
func (s *service) Render(op *Operation, params map[string]interface{}) (string, error) {
	return s.engine.Render(op, params)
}

// Ensure service implements the interface
var _ Service = (*service)(nil)
