// Package session holds the process-scoped record of the currently
// authenticated identity. It is injected into the components that need it
// rather than exposed as package-level state, so tests can scope a manager
// to a single run.
package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/edutrack/edutrack-api/internal/models"
)

// Manager tracks at most one active identity per process. Init follows
// first-wins semantics: once a session is active, later Init calls are
// silent no-ops until Clear is called.
type Manager struct {
	mu     sync.Mutex
	user   *models.User
	logger *zap.Logger
}

// NewManager constructs an empty session manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger}
}

// Init stores the user as the active identity if no session is active.
// When a session already exists the call is ignored and the original
// identity is kept.
func (m *Manager) Init(user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.user != nil {
		m.logger.Debug("session already active, ignoring init",
			zap.Int64("active_user_id", m.user.ID),
			zap.Int64("ignored_user_id", user.ID),
		)
		return
	}
	u := user
	m.user = &u
}

// Current returns the active identity, if any.
func (m *Manager) Current() (models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.user == nil {
		return models.User{}, false
	}
	return *m.user, true
}

// Clear removes the active identity unconditionally.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
}

// Active reports whether a session is currently held.
func (m *Manager) Active() bool {
	_, ok := m.Current()
	return ok
}
