package persist

import (
	"sync"

	"github.com/danielpatrickdp/limbic-engine/internal/state"
)

// #region adapter

// Adapter is durable key-value storage for the serialized limbic state.
// Load returns ok=false when no usable record exists; corrupt data reads as
// absent, never as an error, and the caller substitutes the default state.
type Adapter interface {
	Save(s state.LimbicState) error
	Load() (s state.LimbicState, ok bool, err error)
	Clear() error
}

// #endregion adapter

// #region memory

// Memory is an in-process Adapter for tests and ephemeral runs.
type Memory struct {
	mu  sync.Mutex
	val state.LimbicState
	set bool
}

// NewMemory returns an empty in-memory adapter.
func NewMemory() *Memory {
	return &Memory{}
}

// Save replaces the stored snapshot.
func (m *Memory) Save(s state.LimbicState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.val = s
	m.set = true
	return nil
}

// Load returns the stored snapshot, if any.
func (m *Memory) Load() (state.LimbicState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.val, m.set, nil
}

// Clear removes the stored snapshot.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.val = state.LimbicState{}
	m.set = false
	return nil
}

// #endregion memory
