package fetch

import (
	"context"
	"sync"

	"github.com/ErikPlachta/sheetpipe/pkg/observability"
)

// limiter is a FIFO-fair counting semaphore. A release hands the slot to the
// oldest waiter directly, so queued callers are admitted strictly in arrival
// order and a steady stream of new arrivals can never starve the queue.
type limiter struct {
	mu      sync.Mutex
	max     int
	active  int
	waiters []chan struct{}
}

func newLimiter(maxConcurrent int) *limiter {
	return &limiter{max: maxConcurrent}
}

// acquire blocks until a slot is granted or ctx is done
func (l *limiter) acquire(ctx context.Context) error {
	l.mu.Lock()
	if l.active < l.max {
		l.active++
		l.mu.Unlock()
		observability.FetchesInFlight.Inc()
		return nil
	}

	grant := make(chan struct{})
	l.waiters = append(l.waiters, grant)
	l.mu.Unlock()
	observability.FetchQueueDepth.Inc()

	select {
	case <-grant:
		observability.FetchQueueDepth.Dec()
		observability.FetchesInFlight.Inc()
		return nil
	case <-ctx.Done():
		observability.FetchQueueDepth.Dec()

		l.mu.Lock()
		for i, w := range l.waiters {
			if w == grant {
				l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
				l.mu.Unlock()
				return ctx.Err()
			}
		}
		l.mu.Unlock()

		// The slot was handed over between ctx.Done and the lock; pass it on
		// so it is not leaked.
		observability.FetchesInFlight.Inc()
		l.release()

		return ctx.Err()
	}
}

// release frees a slot, waking the oldest waiter if any. The slot transfers
// directly: the active count is unchanged when a waiter takes over.
func (l *limiter) release() {
	observability.FetchesInFlight.Dec()

	l.mu.Lock()
	if len(l.waiters) > 0 {
		grant := l.waiters[0]
		l.waiters = l.waiters[1:]
		l.mu.Unlock()
		close(grant)
		return
	}

	l.active--
	l.mu.Unlock()
}

// inFlight reports the number of held slots. Test hook.
func (l *limiter) inFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// queued reports the number of waiting callers. Test hook.
func (l *limiter) queued() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.waiters)
}
