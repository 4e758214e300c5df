package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/edutrack/edutrack-api/internal/models"
)

func TestManagerInitFirstWins(t *testing.T) {
	m := NewManager(zap.NewNop())

	m.Init(models.User{ID: 1, Email: "first@example.com"})
	m.Init(models.User{ID: 2, Email: "second@example.com"})

	current, ok := m.Current()
	assert.True(t, ok)
	assert.Equal(t, int64(1), current.ID, "second init must not replace the active session")
}

func TestManagerClear(t *testing.T) {
	m := NewManager(nil)

	m.Init(models.User{ID: 1})
	m.Clear()

	_, ok := m.Current()
	assert.False(t, ok)
	assert.False(t, m.Active())

	m.Init(models.User{ID: 2})
	current, ok := m.Current()
	assert.True(t, ok)
	assert.Equal(t, int64(2), current.ID, "clear must allow a new session")
}

func TestManagerEmpty(t *testing.T) {
	m := NewManager(nil)
	_, ok := m.Current()
	assert.False(t, ok)
}
