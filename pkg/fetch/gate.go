package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Gate admits remote calls through the process-wide limiter and bounds each
// admitted call with the configured timeout. Sources call Do once per remote
// round trip so paginated fetches share the same slot accounting.
type Gate struct {
	limiter *limiter
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewGate creates a gate from the fetch configuration
func NewGate(log logrus.FieldLogger, cfg *Config) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Gate{
		limiter: newLimiter(cfg.MaxConcurrentRequests),
		timeout: cfg.Timeout(),
		log:     log.WithField("component", "fetch-gate"),
	}, nil
}

// Do runs fn under a concurrency slot and the per-call timeout. The slot is
// released on every path, success or failure. A deadline hit inside fn is
// reported as a TimeoutError naming the resource and the bound.
func (g *Gate) Do(ctx context.Context, resource string, fn func(context.Context) error) error {
	if err := g.limiter.acquire(ctx); err != nil {
		return fmt.Errorf("waiting for fetch slot: %w", err)
	}
	defer g.limiter.release()

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil {
		return nil
	}

	// Distinguish our own timeout from a cancellation of the parent context.
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		g.log.WithFields(logrus.Fields{
			"resource": resource,
			"timeout":  g.timeout,
		}).Warn("Fetch timed out")

		return &TimeoutError{Resource: resource, Limit: g.timeout}
	}

	return err
}

// Timeout returns the per-call bound
func (g *Gate) Timeout() time.Duration {
	return g.timeout
}
