package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErikPlachta/sheetpipe/pkg/observability"
	"github.com/ErikPlachta/sheetpipe/pkg/rows"
	"github.com/sirupsen/logrus"
)

// Orchestrator dispatches queries to registered sources. All sources share
// one gate, so the concurrency bound holds across the whole process.
type Orchestrator struct {
	gate    *Gate
	sources map[string]Source
	log     logrus.FieldLogger
}

// NewOrchestrator creates an orchestrator around the given gate
func NewOrchestrator(log logrus.FieldLogger, gate *Gate) *Orchestrator {
	return &Orchestrator{
		gate:    gate,
		sources: make(map[string]Source),
		log:     log.WithField("component", "fetch"),
	}
}

// Register adds a source under its name
func (o *Orchestrator) Register(s Source) {
	o.sources[s.Name()] = s
}

// Gate returns the shared gate, for sources constructed elsewhere
func (o *Orchestrator) Gate() *Gate {
	return o.gate
}

// Fetch resolves the named source and executes the query against it
func (o *Orchestrator) Fetch(ctx context.Context, sourceName string, q *Query) ([]rows.Row, error) {
	source, ok := o.sources[sourceName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceName)
	}

	start := time.Now()
	rs, err := source.Fetch(ctx, q)
	elapsed := time.Since(start)

	observability.FetchDuration.WithLabelValues(sourceName).Observe(elapsed.Seconds())

	status := "success"
	if err != nil {
		status = "error"
		var te *TimeoutError
		if errors.As(err, &te) {
			status = "timeout"
		}
	}
	observability.FetchesTotal.WithLabelValues(sourceName, status).Inc()

	if err != nil {
		o.log.WithError(err).WithFields(logrus.Fields{
			"source":       sourceName,
			"operation_id": q.OperationID,
			"elapsed":      elapsed,
		}).Error("Fetch failed")

		return nil, err
	}

	o.log.WithFields(logrus.Fields{
		"source":       sourceName,
		"operation_id": q.OperationID,
		"rows":         len(rs),
		"elapsed":      elapsed,
	}).Info("Fetch completed")

	return rs, nil
}
