// Package store provides an in-memory TxStores implementation
// (for testing/dev). A single mutex serializes transactions, which
// gives WithTx the same check-then-write atomicity the SQLite store
// gets from database transactions.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/asset-inventory/inventory"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	txMu        sync.Mutex // serializes WithTx closures
	mu          sync.Mutex // guards the maps
	resources   map[inventory.ResourceID]inventory.Resource
	items       map[inventory.ItemID]inventory.Item
	assignments map[inventory.AssignmentID]inventory.Assignment
}

func NewMemory() *Memory {
	return &Memory{
		resources:   make(map[inventory.ResourceID]inventory.Resource),
		items:       make(map[inventory.ItemID]inventory.Item),
		assignments: make(map[inventory.AssignmentID]inventory.Assignment),
	}
}

func (m *Memory) Resources() inventory.ResourceStore     { return (*memResources)(m) }
func (m *Memory) Items() inventory.ItemStore             { return (*memItems)(m) }
func (m *Memory) Assignments() inventory.AssignmentStore { return (*memAssignments)(m) }

// WithTx runs fn with all other transactions excluded, snapshotting
// state first and restoring it if fn fails. Concurrent check-then-write
// sequences therefore see each other's committed writes, never partial
// ones.
func (m *Memory) WithTx(_ context.Context, fn func(inventory.Stores) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	err := fn(m)
	if err != nil {
		m.mu.Lock()
		m.restoreLocked(snapshot)
		m.mu.Unlock()
	}
	return err
}

type memSnapshot struct {
	resources   map[inventory.ResourceID]inventory.Resource
	items       map[inventory.ItemID]inventory.Item
	assignments map[inventory.AssignmentID]inventory.Assignment
}

func (m *Memory) snapshotLocked() memSnapshot {
	s := memSnapshot{
		resources:   make(map[inventory.ResourceID]inventory.Resource, len(m.resources)),
		items:       make(map[inventory.ItemID]inventory.Item, len(m.items)),
		assignments: make(map[inventory.AssignmentID]inventory.Assignment, len(m.assignments)),
	}
	for k, v := range m.resources {
		s.resources[k] = v
	}
	for k, v := range m.items {
		s.items[k] = v
	}
	for k, v := range m.assignments {
		s.assignments[k] = v
	}
	return s
}

func (m *Memory) restoreLocked(s memSnapshot) {
	m.resources = s.resources
	m.items = s.items
	m.assignments = s.assignments
}

// =============================================================================
// RESOURCES
// =============================================================================

type memResources Memory

func (m *memResources) Get(_ context.Context, id inventory.ResourceID) (*inventory.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.resources[id]; ok {
		cp := r
		return &cp, nil
	}
	return nil, nil
}

func (m *memResources) List(_ context.Context) ([]inventory.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]inventory.Resource, 0, len(m.resources))
	for _, r := range m.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memResources) Insert(_ context.Context, r inventory.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[r.ID] = r
	return nil
}

func (m *memResources) Update(_ context.Context, r inventory.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[r.ID] = r
	return nil
}

func (m *memResources) Delete(_ context.Context, id inventory.ResourceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.resources, id)
	return nil
}

// =============================================================================
// ITEMS
// =============================================================================

type memItems Memory

func (m *memItems) Get(_ context.Context, id inventory.ItemID) (*inventory.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.items[id]; ok {
		cp := it
		return &cp, nil
	}
	return nil, nil
}

func (m *memItems) ListByResource(_ context.Context, resourceID inventory.ResourceID) ([]inventory.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []inventory.Item
	for _, it := range m.items {
		if it.ResourceID == resourceID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memItems) CountByResource(_ context.Context, resourceID inventory.ResourceID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, it := range m.items {
		if it.ResourceID == resourceID {
			count++
		}
	}
	return count, nil
}

func (m *memItems) FindByUniqueValue(_ context.Context, key, value string) (*inventory.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if pv, ok := it.Properties[key]; ok && pv.Canonical() == value {
			cp := it
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memItems) Insert(_ context.Context, it inventory.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[it.ID] = it
	return nil
}

func (m *memItems) Update(_ context.Context, it inventory.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[it.ID] = it
	return nil
}

func (m *memItems) Delete(_ context.Context, id inventory.ItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

type memAssignments Memory

func (m *memAssignments) Get(_ context.Context, id inventory.AssignmentID) (*inventory.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.assignments[id]; ok {
		cp := a
		return &cp, nil
	}
	return nil, nil
}

func (m *memAssignments) ListByEmployee(_ context.Context, employeeID inventory.EmployeeID) ([]inventory.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []inventory.Assignment
	for _, a := range m.assignments {
		if a.EmployeeID == employeeID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.After(out[j].AssignedAt) })
	return out, nil
}

func (m *memAssignments) ListByResource(_ context.Context, resourceID inventory.ResourceID) ([]inventory.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []inventory.Assignment
	for _, a := range m.assignments {
		if a.ResourceID == resourceID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.After(out[j].AssignedAt) })
	return out, nil
}

func (m *memAssignments) ActiveByItem(_ context.Context, itemID inventory.ItemID) (*inventory.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.ItemID == itemID && a.Status == inventory.AssignmentActive && a.Type != inventory.AssignShared {
			cp := a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memAssignments) ActiveByEmployeeAndResource(_ context.Context, employeeID inventory.EmployeeID, resourceID inventory.ResourceID) ([]inventory.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []inventory.Assignment
	for _, a := range m.assignments {
		if a.EmployeeID == employeeID && a.ResourceID == resourceID && a.Status == inventory.AssignmentActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAssignments) CountActive(_ context.Context, resourceID inventory.ResourceID, t inventory.AssignmentType) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, a := range m.assignments {
		if a.ResourceID == resourceID && a.Status == inventory.AssignmentActive && (t == "" || a.Type == t) {
			count++
		}
	}
	return count, nil
}

func (m *memAssignments) Insert(_ context.Context, a inventory.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.ID] = a
	return nil
}

func (m *memAssignments) Update(_ context.Context, a inventory.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.ID] = a
	return nil
}

// =============================================================================
// USAGE COUNTS (registry.UsageCounter)
// =============================================================================

// ResourceCountByType reports how many resources reference a type.
func (m *Memory) ResourceCountByType(_ context.Context, typeID inventory.TypeID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.resources {
		if r.TypeID == typeID {
			count++
		}
	}
	return count, nil
}

// ResourceCountByCategory reports how many resources reference a
// category.
func (m *Memory) ResourceCountByCategory(_ context.Context, categoryID inventory.CategoryID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.resources {
		if r.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}
