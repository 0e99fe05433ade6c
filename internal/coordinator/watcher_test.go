package coordinator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherTimeoutFiresOnce(t *testing.T) {
	var fired atomic.Int32
	w := newWatcher(15*time.Millisecond, func(*watcher) {
		fired.Add(1)
	})

	outcome, err := w.await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, outcomeRejected, outcome)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestWatcherImmediateTimeoutSettlesCleanly(t *testing.T) {
	// A zero bound fires the timer as soon as the watcher exists; the
	// rejection must still win the settle race exactly once.
	for i := 0; i < 100; i++ {
		w := newWatcher(0, func(*watcher) {})

		outcome, err := w.await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, outcomeRejected, outcome)
		assert.False(t, w.resolve())
	}
}

func TestWatcherResolveStopsTimer(t *testing.T) {
	var fired atomic.Int32
	w := newWatcher(15*time.Millisecond, func(*watcher) {
		fired.Add(1)
	})

	assert.True(t, w.resolve())
	assert.Equal(t, outcomeResolved, w.state())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestWatcherSettleIsOneShot(t *testing.T) {
	w := newWatcher(time.Minute, func(*watcher) {})

	assert.True(t, w.cancel())
	assert.False(t, w.resolve())
	assert.False(t, w.reject())
	assert.Equal(t, outcomeCanceled, w.state())
}

func TestWatcherSettleRace(t *testing.T) {
	// Whichever settle wins, exactly one does.
	w := newWatcher(time.Minute, func(*watcher) {})

	var wins atomic.Int32
	var wg sync.WaitGroup
	for _, settle := range []func() bool{w.resolve, w.reject, w.cancel} {
		wg.Add(1)
		go func(settle func() bool) {
			defer wg.Done()
			if settle() {
				wins.Add(1)
			}
		}(settle)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.NotEqual(t, outcomePending, w.state())
}

func TestWatcherAwaitWakesAllWaiters(t *testing.T) {
	w := newWatcher(time.Minute, func(*watcher) {})

	const waiters = 4
	results := make(chan watcherOutcome, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			outcome, _ := w.await(context.Background())
			results <- outcome
		}()
	}

	time.Sleep(10 * time.Millisecond)
	w.resolve()

	for i := 0; i < waiters; i++ {
		select {
		case outcome := <-results:
			assert.Equal(t, outcomeResolved, outcome)
		case <-time.After(time.Second):
			t.Fatal("waiter did not wake")
		}
	}
}

func TestWatcherAwaitHonorsContext(t *testing.T) {
	w := newWatcher(time.Minute, func(*watcher) {})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := w.await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, outcomePending, w.state())
}
