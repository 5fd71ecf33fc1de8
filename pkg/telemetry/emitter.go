// Package telemetry provides the fire-and-forget event emission contract
// consumed by the pipeline. Emitters must never block and never propagate
// a failure back into the caller.
package telemetry

import (
	"github.com/sirupsen/logrus"
)

// Severity classifies an emitted event
type Severity string

// Event severities
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Emitter is the event-emission contract. Implementations are fire-and-forget.
type Emitter interface {
	Emit(category, name string, severity Severity, message string, context map[string]interface{})
}

// logEmitter writes events to a structured logger
type logEmitter struct {
	log logrus.FieldLogger
}

// NewLogEmitter creates an emitter backed by the given logger
func NewLogEmitter(log logrus.FieldLogger) Emitter {
	return &logEmitter{log: log.WithField("component", "telemetry")}
}

// Emit logs the event. It recovers internally so a broken sink can never
// throw back into the pipeline.
func (e *logEmitter) Emit(category, name string, severity Severity, message string, context map[string]interface{}) {
	defer func() {
		_ = recover()
	}()

	entry := e.log.WithFields(logrus.Fields{
		"category": category,
		"event":    name,
	})
	for k, v := range context {
		entry = entry.WithField(k, v)
	}

	switch severity {
	case SeverityWarning:
		entry.Warn(message)
	case SeverityError:
		entry.Error(message)
	case SeverityInfo:
		entry.Info(message)
	default:
		entry.Info(message)
	}
}

// nopEmitter discards all events
type nopEmitter struct{}

// NewNopEmitter creates an emitter that discards everything
func NewNopEmitter() Emitter {
	return nopEmitter{}
}

func (nopEmitter) Emit(_, _ string, _ Severity, _ string, _ map[string]interface{}) {}

// Ensure implementations satisfy the interface
var (
	_ Emitter = (*logEmitter)(nil)
	_ Emitter = nopEmitter{}
)
