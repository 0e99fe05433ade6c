package coordinator

import (
	"context"
	"sync"
	"time"
)

// watcherOutcome is the terminal state of a readiness watcher.
type watcherOutcome int

const (
	outcomePending watcherOutcome = iota
	// outcomeResolved: an embedded wallet appeared before the deadline.
	outcomeResolved
	// outcomeRejected: the deadline elapsed.
	outcomeRejected
	// outcomeCanceled: the watcher was superseded or authentication was lost.
	outcomeCanceled
)

// watcher is a one-shot completion cell with an owning timer. The coordinator
// holds at most one at a time; whichever of resolve, reject or cancel wins
// stops the timer and wakes all waiters, and later calls are no-ops.
type watcher struct {
	mu       sync.Mutex
	outcome  watcherOutcome
	done     chan struct{}
	timer    *time.Timer
	deadline time.Time
}

// newWatcher creates a pending watcher whose timer fires onTimeout after the
// bound elapses. onTimeout runs only if the watcher is still pending at that
// moment.
func newWatcher(bound time.Duration, onTimeout func(w *watcher)) *watcher {
	w := &watcher{
		done:     make(chan struct{}),
		deadline: time.Now().Add(bound),
	}
	// The callback serializes through settle, which reads w.timer under the
	// lock; holding it across the assignment publishes the timer before a
	// short bound can fire.
	w.mu.Lock()
	w.timer = time.AfterFunc(bound, func() {
		if w.reject() {
			onTimeout(w)
		}
	})
	w.mu.Unlock()
	return w
}

// settle moves the watcher to a terminal outcome. Returns false when the
// watcher already settled.
func (w *watcher) settle(outcome watcherOutcome) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.outcome != outcomePending {
		return false
	}
	w.outcome = outcome
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.done)
	return true
}

func (w *watcher) resolve() bool { return w.settle(outcomeResolved) }
func (w *watcher) reject() bool  { return w.settle(outcomeRejected) }
func (w *watcher) cancel() bool  { return w.settle(outcomeCanceled) }

// state returns the current outcome without waiting.
func (w *watcher) state() watcherOutcome {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.outcome
}

// await blocks until the watcher settles or ctx is done.
func (w *watcher) await(ctx context.Context) (watcherOutcome, error) {
	select {
	case <-ctx.Done():
		return outcomePending, ctx.Err()
	case <-w.done:
		return w.state(), nil
	}
}
