package employee

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/asset-inventory/inventory"
)

// Memory is an in-memory Store for tests and the default wiring.
type Memory struct {
	mu        sync.RWMutex
	employees map[inventory.EmployeeID]inventory.Employee
}

func NewMemory() *Memory {
	return &Memory{employees: map[inventory.EmployeeID]inventory.Employee{}}
}

func (m *Memory) Get(_ context.Context, id inventory.EmployeeID) (*inventory.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) GetByEmail(_ context.Context, email string) (*inventory.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.employees {
		if e.Email == email {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}

func (m *Memory) List(_ context.Context) ([]inventory.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]inventory.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Save(_ context.Context, e inventory.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, id inventory.EmployeeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.employees, id)
	return nil
}
