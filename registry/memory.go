package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/asset-inventory/inventory"
)

// Memory is an in-memory Store used by tests and the default server
// wiring when no database path is configured.
type Memory struct {
	mu          sync.RWMutex
	definitions map[string]inventory.PropertyDefinition
	types       map[inventory.TypeID]ResourceType
	categories  map[inventory.CategoryID]Category
}

func NewMemory() *Memory {
	return &Memory{
		definitions: map[string]inventory.PropertyDefinition{},
		types:       map[inventory.TypeID]ResourceType{},
		categories:  map[inventory.CategoryID]Category{},
	}
}

func (m *Memory) GetDefinition(_ context.Context, key string) (*inventory.PropertyDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.definitions[key]
	if !ok {
		return nil, nil
	}
	return &def, nil
}

func (m *Memory) ListDefinitions(_ context.Context) ([]inventory.PropertyDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]inventory.PropertyDefinition, 0, len(m.definitions))
	for _, def := range m.definitions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) SaveDefinition(_ context.Context, def inventory.PropertyDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.definitions[def.Key] = def
	return nil
}

func (m *Memory) DeleteDefinition(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.definitions, key)
	return nil
}

func (m *Memory) GetType(_ context.Context, id inventory.TypeID) (*ResourceType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.types[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *Memory) GetTypeByName(_ context.Context, name string) (*ResourceType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.types {
		if t.Name == name {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListTypes(_ context.Context) ([]ResourceType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ResourceType, 0, len(m.types))
	for _, t := range m.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) SaveType(_ context.Context, t ResourceType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[t.ID] = t
	return nil
}

func (m *Memory) DeleteType(_ context.Context, id inventory.TypeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.types, id)
	return nil
}

func (m *Memory) GetCategory(_ context.Context, id inventory.CategoryID) (*Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) ListCategoriesByType(_ context.Context, typeID inventory.TypeID) ([]Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Category
	for _, c := range m.categories {
		if c.TypeID == typeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) SaveCategory(_ context.Context, c Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
	return nil
}

func (m *Memory) DeleteCategory(_ context.Context, id inventory.CategoryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.categories, id)
	return nil
}

func (m *Memory) CountCategoriesByType(_ context.Context, typeID inventory.TypeID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, c := range m.categories {
		if c.TypeID == typeID {
			count++
		}
	}
	return count, nil
}
