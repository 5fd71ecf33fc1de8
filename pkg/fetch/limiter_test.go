package fetch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AcquireUpToMax(t *testing.T) {
	l := newLimiter(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.acquire(ctx))
	}

	assert.Equal(t, 3, l.inFlight())
	assert.Zero(t, l.queued())
}

func TestLimiter_BlocksBeyondMax(t *testing.T) {
	l := newLimiter(1)
	ctx := context.Background()

	require.NoError(t, l.acquire(ctx))

	shortCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	err := l.acquire(shortCtx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.inFlight())
	assert.Zero(t, l.queued())
}

func TestLimiter_ReleaseAdmitsWaiter(t *testing.T) {
	l := newLimiter(1)
	ctx := context.Background()

	require.NoError(t, l.acquire(ctx))

	admitted := make(chan struct{})
	go func() {
		if err := l.acquire(ctx); err == nil {
			close(admitted)
		}
	}()

	// Wait for the goroutine to enqueue
	require.Eventually(t, func() bool { return l.queued() == 1 }, time.Second, 5*time.Millisecond)

	l.release()

	select {
	case <-admitted:
	case <-time.After(time.Second):
		t.Fatal("waiter was not admitted after release")
	}

	assert.Equal(t, 1, l.inFlight())
}

// Waiters must be admitted strictly in arrival order.
func TestLimiter_FIFOOrder(t *testing.T) {
	l := newLimiter(1)
	ctx := context.Background()

	require.NoError(t, l.acquire(ctx))

	const waiters = 5

	var mu sync.Mutex
	order := make([]int, 0, waiters)
	done := make(chan struct{})

	for i := 0; i < waiters; i++ {
		// Enqueue one at a time so arrival order is deterministic
		i := i
		go func() {
			if err := l.acquire(ctx); err != nil {
				return
			}
			mu.Lock()
			order = append(order, i)
			if len(order) == waiters {
				close(done)
			}
			mu.Unlock()
			l.release()
		}()
		require.Eventually(t, func() bool { return l.queued() == i+1 }, time.Second, time.Millisecond)
	}

	l.release()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waiters did not all complete")
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestLimiter_ConcurrencyNeverExceedsMax(t *testing.T) {
	const max = 4
	l := newLimiter(max)
	ctx := context.Background()

	var mu sync.Mutex
	active, peak := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := l.acquire(ctx); err != nil {
				return
			}

			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()

			l.release()
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, max)
	assert.Zero(t, l.inFlight())
	assert.Zero(t, l.queued())
}

func TestLimiter_CancelledWaiterRemovedFromQueue(t *testing.T) {
	l := newLimiter(1)
	ctx := context.Background()

	require.NoError(t, l.acquire(ctx))

	waitCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- l.acquire(waitCtx) }()

	require.Eventually(t, func() bool { return l.queued() == 1 }, time.Second, time.Millisecond)

	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled waiter did not return")
	}

	require.Eventually(t, func() bool { return l.queued() == 0 }, time.Second, time.Millisecond)

	// The held slot is still usable after the cancellation
	l.release()
	require.NoError(t, l.acquire(ctx))
}
