package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

// MemoryStore keeps shortcuts and variables in process memory
type MemoryStore struct {
	mu        sync.RWMutex
	shortcuts map[string]*shortcut.Shortcut
	order     []string
	variables []shortcut.Variable
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{shortcuts: make(map[string]*shortcut.Shortcut)}
}

func (m *MemoryStore) GetShortcut(_ context.Context, id string) (*shortcut.Shortcut, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.shortcuts[id]
	if !ok {
		return nil, fmt.Errorf("shortcut %q: %w", id, ErrNotFound)
	}
	return s.Clone(), nil
}

func (m *MemoryStore) FindShortcut(ctx context.Context, idOrName string) (*shortcut.Shortcut, error) {
	if s, err := m.GetShortcut(ctx, idOrName); err == nil {
		return s, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.order {
		if s := m.shortcuts[id]; s.Name == idOrName {
			return s.Clone(), nil
		}
	}
	return nil, fmt.Errorf("shortcut %q: %w", idOrName, ErrNotFound)
}

func (m *MemoryStore) ListShortcuts(context.Context) ([]*shortcut.Shortcut, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*shortcut.Shortcut, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.shortcuts[id].Clone())
	}
	return out, nil
}

func (m *MemoryStore) SaveShortcut(_ context.Context, s *shortcut.Shortcut) error {
	if err := checkSavable(s); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.shortcuts[s.ID]; !exists {
		m.order = append(m.order, s.ID)
	}
	m.shortcuts[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) DeleteShortcut(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.shortcuts[id]; !ok {
		return fmt.Errorf("shortcut %q: %w", id, ErrNotFound)
	}
	delete(m.shortcuts, id)
	m.order = slices.DeleteFunc(m.order, func(v string) bool { return v == id })
	return nil
}

func (m *MemoryStore) Variables(context.Context) (*shortcut.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return shortcut.NewSnapshot(m.variables), nil
}

func (m *MemoryStore) SaveVariable(_ context.Context, v shortcut.Variable) error {
	if v.Type == "" {
		v.Type = shortcut.VariableConstant
	}
	if err := v.Validate(); err != nil {
		return err
	}
	v.Options = slices.Clone(v.Options)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.variables {
		if existing.ID != v.ID && existing.Key == v.Key {
			return shortcut.NewConfigError("key", fmt.Sprintf("%q is already used", v.Key))
		}
	}
	if i := slices.IndexFunc(m.variables, func(e shortcut.Variable) bool { return e.ID == v.ID }); i >= 0 {
		m.variables[i] = v
		return nil
	}
	m.variables = append(m.variables, v)
	return nil
}

func (m *MemoryStore) SetVariableValue(_ context.Context, id, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.variables, func(e shortcut.Variable) bool { return e.ID == id })
	if i < 0 {
		return fmt.Errorf("variable %q: %w", id, ErrNotFound)
	}
	m.variables[i].Value = value
	return nil
}

func (m *MemoryStore) DeleteVariable(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.variables, func(e shortcut.Variable) bool { return e.ID == id })
	if i < 0 {
		return fmt.Errorf("variable %q: %w", id, ErrNotFound)
	}
	m.variables = slices.Delete(m.variables, i, i+1)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
