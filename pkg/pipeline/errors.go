package pipeline

import (
	"errors"

	"github.com/ErikPlachta/sheetpipe/pkg/auth"
	"github.com/ErikPlachta/sheetpipe/pkg/catalog"
	"github.com/ErikPlachta/sheetpipe/pkg/fetch"
	"github.com/ErikPlachta/sheetpipe/pkg/workbook"
)

// Error classes carried on failure telemetry
const (
	ErrorTypeTransient = "transient"
	ErrorTypePermanent = "permanent"
	ErrorTypeResource  = "resource"
	ErrorTypeUnknown   = "unknown"
)

// ErrorInfo is the diagnostic classification attached to failure events. It
// rides alongside the error, never instead of it: callers always get the
// human-readable message too.
type ErrorInfo struct {
	Operation string `json:"operation"`
	Message   string `json:"message"`
	ErrorType string `json:"errorType"`
	Retriable bool   `json:"retriable"`
}

// classifyError maps a failure to its diagnostic class
func classifyError(operationID string, err error) ErrorInfo {
	info := ErrorInfo{
		Operation: operationID,
		Message:   err.Error(),
		ErrorType: ErrorTypeUnknown,
	}

	var timeoutErr *fetch.TimeoutError
	var networkErr *fetch.NetworkError
	var authErr *auth.Error
	var notFoundErr *OperationNotFoundError

	switch {
	case errors.As(err, &timeoutErr), errors.As(err, &networkErr):
		info.ErrorType = ErrorTypeTransient
		info.Retriable = true
	case errors.As(err, &authErr), errors.As(err, &notFoundErr):
		info.ErrorType = ErrorTypePermanent
	case errors.Is(err, catalog.ErrUnknownParameter), errors.Is(err, catalog.ErrMissingParameter):
		info.ErrorType = ErrorTypePermanent
	case errors.Is(err, workbook.ErrHostUnavailable):
		info.ErrorType = ErrorTypeResource
	}

	return info
}

// context returns the telemetry context fields for the classification
func (e ErrorInfo) context() map[string]interface{} {
	return map[string]interface{}{
		"operation_id": e.Operation,
		"error_type":   e.ErrorType,
		"retriable":    e.Retriable,
	}
}
