package coordinator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tokenforge/tokenforge-api/internal/client/privy"
	"github.com/tokenforge/tokenforge-api/internal/smartaccount"
)

// DefaultWalletTimeout is the bound on embedded-wallet appearance. The bound
// covers wallet appearance only, never initialization itself.
const DefaultWalletTimeout = 25 * time.Second

// AuthState is a snapshot of the auth provider's view of one session.
type AuthState struct {
	Authenticated bool
	Ready         bool
	Wallets       []privy.Wallet
}

// EmbeddedWallet returns the first embedded wallet in the snapshot, if any.
func (s AuthState) EmbeddedWallet() (privy.Wallet, bool) {
	for _, w := range s.Wallets {
		if w.IsEmbedded() {
			return w, true
		}
	}
	return privy.Wallet{}, false
}

// Initializer builds the smart-account handle once an embedded wallet exists.
type Initializer interface {
	Initialize(ctx context.Context, ownerAddress string) (*smartaccount.Handle, error)
}

// Snapshot is the coordinator state surfaced to the API layer.
type Snapshot struct {
	Status         Status          `json:"status"`
	Error          *ReadinessError `json:"error,omitempty"`
	AccountAddress string          `json:"account_address,omitempty"`
}

// Coordinator gates smart-account initialization on the appearance of an
// embedded wallet for a single session. It owns at most one pending watcher
// at a time; creating a new one always settles the previous one first, so a
// stale timer can never fire after being superseded.
//
// Unlike the single-threaded environment this flow originated in, the
// coordinator is called from concurrent HTTP handlers, so state mutation is
// serialized by a mutex and first-time initialization is single-flighted.
type Coordinator struct {
	mu      sync.Mutex
	status  Status
	lastErr *ReadinessError
	handle  *smartaccount.Handle
	watcher *watcher
	auth    AuthState

	initializing bool
	initDone     chan struct{}

	init    Initializer
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithWalletTimeout overrides the wallet-appearance bound. Tests use short bounds.
func WithWalletTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.timeout = d
	}
}

// New creates an idle coordinator with no session state.
func New(init Initializer, logger *zap.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		status:  StatusIdle,
		init:    init,
		timeout: DefaultWalletTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// transitionLocked applies a status change through the FSM table. Illegal
// transitions are dropped and logged rather than applied. Callers hold c.mu.
func (c *Coordinator) transitionLocked(next Status) bool {
	if c.status == next {
		return true
	}
	if !c.status.CanTransitionTo(next) {
		c.logger.Error("Illegal readiness status transition rejected",
			zap.String("from", string(c.status)),
			zap.String("to", string(next)),
		)
		return false
	}
	c.logger.Debug("Readiness status transition",
		zap.String("from", string(c.status)),
		zap.String("to", string(next)),
	)
	c.status = next
	return true
}

// Snapshot returns the current state for the API layer.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Status: c.status,
		Error:  c.lastErr,
	}
	if c.handle != nil {
		snap.AccountAddress = c.handle.Address.Hex()
	}
	return snap
}

// Handle returns the cached smart-account handle, if initialization completed.
func (c *Coordinator) Handle() *smartaccount.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// EnsureReady drives the session toward a usable smart-account handle.
//
// Fast path: a cached handle is returned as-is. A pending watcher is awaited;
// its rejection surfaces as a wallet_timeout error. With no embedded wallet
// and no watcher yet the call parks the session in waiting_for_wallet and
// returns a non-fatal wallet_unavailable error. Otherwise it initializes the
// account, caches the handle and moves to ready.
func (c *Coordinator) EnsureReady(ctx context.Context) (*smartaccount.Handle, error) {
	for {
		c.mu.Lock()

		if c.handle != nil {
			handle := c.handle
			c.mu.Unlock()
			return handle, nil
		}

		if w := c.watcher; w != nil {
			c.mu.Unlock()
			outcome, err := w.await(ctx)
			if err != nil {
				return nil, err
			}
			switch outcome {
			case outcomeResolved:
				// Wallet appeared; re-evaluate from the top.
				continue
			case outcomeRejected:
				// The timeout handler already moved status to error.
				return nil, errWalletTimeout()
			default:
				// Superseded or auth lost; let the next pass decide.
				continue
			}
		}

		if c.initializing {
			done := c.initDone
			c.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-done:
				continue
			}
		}

		if !c.auth.Authenticated || !c.auth.Ready {
			c.mu.Unlock()
			return nil, errNotAuthenticated()
		}

		if c.status == StatusError {
			// A previous error is surfaced until Retry clears it.
			lastErr := c.lastErr
			c.mu.Unlock()
			return nil, lastErr
		}

		wallet, ok := c.auth.EmbeddedWallet()
		if !ok {
			// Auth is recorded but its change notification has not created
			// a watcher yet. Start one and report the wallet unavailable;
			// the next call finds the pending watcher and waits on it.
			c.startWatcherLocked()
			c.mu.Unlock()
			return nil, errWalletUnavailable()
		}

		c.transitionLocked(StatusInitializing)
		c.initializing = true
		c.initDone = make(chan struct{})
		done := c.initDone
		c.mu.Unlock()

		handle, err := c.init.Initialize(ctx, wallet.Address)

		c.mu.Lock()
		c.initializing = false
		close(done)

		if err != nil {
			rerr := errInitializationFailed(err)
			c.transitionLocked(StatusError)
			c.lastErr = rerr
			c.logger.Error("Smart account initialization failed",
				zap.String("owner", wallet.Address),
				zap.Error(err),
			)
			c.mu.Unlock()
			return nil, rerr
		}

		if !c.auth.Authenticated || !c.auth.Ready {
			// Auth was revoked while the delegate ran; the session owns no
			// handle anymore.
			handle.Client.Close()
			c.mu.Unlock()
			return nil, errNotAuthenticated()
		}

		c.handle = handle
		c.lastErr = nil
		if w := c.watcher; w != nil {
			w.resolve()
			c.watcher = nil
		}
		c.transitionLocked(StatusReady)
		c.logger.Info("Smart account ready",
			zap.String("owner", wallet.Address),
			zap.String("account", handle.Address.Hex()),
		)
		c.mu.Unlock()
		return handle, nil
	}
}

// Retry is the sole user-driven recovery action. It discards prior error and
// watcher state. With an embedded wallet already present it re-invokes
// EnsureReady directly, skipping any wait; otherwise it starts a fresh
// watcher and lets a background EnsureReady wait on it.
func (c *Coordinator) Retry(ctx context.Context) {
	c.mu.Lock()

	c.lastErr = nil
	if w := c.watcher; w != nil {
		w.cancel()
		c.watcher = nil
	}
	if c.status == StatusError || c.status == StatusWaitingForWallet {
		c.transitionLocked(StatusIdle)
	}

	if _, ok := c.auth.EmbeddedWallet(); ok {
		c.mu.Unlock()
		_, _ = c.EnsureReady(ctx)
		return
	}

	if c.auth.Authenticated && c.auth.Ready {
		c.startWatcherLocked()
	}
	c.mu.Unlock()

	go func() {
		// Detached from the request: the watcher bound is the only deadline.
		_, _ = c.EnsureReady(context.Background())
	}()
}

// OnAuthStateChange ingests a new auth snapshot and drives the passive
// watcher lifecycle: loss of auth clears everything back to idle; a wallet
// appearing resolves a pending watcher; authentication arriving with no
// wallet and nothing outstanding starts the bounded wait.
func (c *Coordinator) OnAuthStateChange(state AuthState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.auth = state

	if !state.Authenticated || !state.Ready {
		if w := c.watcher; w != nil {
			w.cancel()
			c.watcher = nil
		}
		if c.handle != nil {
			c.handle.Client.Close()
			c.handle = nil
		}
		c.lastErr = nil
		c.transitionLocked(StatusIdle)
		return
	}

	if _, ok := state.EmbeddedWallet(); ok {
		if w := c.watcher; w != nil {
			w.resolve()
			c.watcher = nil
		}
		return
	}

	// Authenticated with no embedded wallet yet. A timeout error stands
	// until Retry clears it; otherwise begin waiting for the wallet.
	if c.watcher == nil && c.handle == nil && !c.initializing && c.status != StatusError {
		c.startWatcherLocked()
	}
}

// startWatcherLocked creates the single pending watcher and enters
// waiting_for_wallet. Callers hold c.mu and have cleared any prior watcher.
func (c *Coordinator) startWatcherLocked() {
	c.transitionLocked(StatusWaitingForWallet)
	c.watcher = newWatcher(c.timeout, c.onWatcherTimeout)
	c.logger.Debug("Readiness watcher started",
		zap.Duration("bound", c.timeout),
	)
}

// onWatcherTimeout runs from the watcher's timer when the bound elapses. The
// rejection already won the watcher's settle race; here the coordinator
// records the error state exactly once, and only if the watcher was not
// superseded in the meantime.
func (c *Coordinator) onWatcherTimeout(w *watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher != w {
		return
	}
	c.watcher = nil
	c.transitionLocked(StatusError)
	c.lastErr = errWalletTimeout()
	c.logger.Warn("Timed out waiting for embedded wallet",
		zap.Duration("bound", c.timeout),
	)
}

// HasPendingWatcher reports whether a watcher is currently outstanding.
func (c *Coordinator) HasPendingWatcher() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watcher != nil
}
