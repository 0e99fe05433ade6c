package coordinator

import (
	"sync"

	"go.uber.org/zap"
)

// Manager owns one Coordinator per user session. Coordinators are created
// lazily on first access and dropped when the session is evicted.
type Manager struct {
	mu           sync.Mutex
	coordinators map[string]*Coordinator

	init   Initializer
	logger *zap.Logger
	opts   []Option
}

// NewManager creates an empty coordinator registry. The options are applied
// to every coordinator it creates.
func NewManager(init Initializer, logger *zap.Logger, opts ...Option) *Manager {
	return &Manager{
		coordinators: make(map[string]*Coordinator),
		init:         init,
		logger:       logger,
		opts:         opts,
	}
}

// ForUser returns the coordinator for the given user, creating it if needed.
func (m *Manager) ForUser(userID string) *Coordinator {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.coordinators[userID]; ok {
		return c
	}

	c := New(m.init, m.logger.With(zap.String("user_id", userID)), m.opts...)
	m.coordinators[userID] = c
	return c
}

// Evict drops a user's coordinator, resetting it to idle first so any pending
// watcher timer is stopped and a cached handle is released.
func (m *Manager) Evict(userID string) {
	m.mu.Lock()
	c, ok := m.coordinators[userID]
	if ok {
		delete(m.coordinators, userID)
	}
	m.mu.Unlock()

	if ok {
		c.OnAuthStateChange(AuthState{})
	}
}

// Len returns the number of live coordinators.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.coordinators)
}
