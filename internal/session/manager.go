package session

import "sync"

// Manager tracks the active controller per user. One interview at a
// time per account; starting a new one replaces the old.
type Manager struct {
	mu     sync.Mutex
	active map[int64]*Controller
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{active: make(map[int64]*Controller)}
}

// Get returns the user's active controller, or nil.
func (m *Manager) Get(userID int64) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[userID]
}

// Put registers a controller for the user, tearing down any previous one.
func (m *Manager) Put(userID int64, c *Controller) {
	m.mu.Lock()
	old := m.active[userID]
	m.active[userID] = c
	m.mu.Unlock()
	if old != nil && old != c {
		old.Leave()
	}
}

// Remove discards the user's controller and returns it, or nil.
func (m *Manager) Remove(userID int64) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.active[userID]
	delete(m.active, userID)
	return c
}
