/*
store.go - Persistence and collaborator interfaces for the engine

PURPOSE:
  Defines the narrow contracts the engine needs from the outside world:
  a transactional record store over resources/items/assignments, a
  type directory (mandatory keys + type names), an employee directory,
  and the fire-and-forget audit/timeline recorder.

ATOMICITY CONTRACT:
  Every validate-then-write path in the services runs inside
  TxStores.WithTx. Two concurrent requests for the same exclusive item
  or the last pooled seat are a real race; implementations must give
  the closure a consistent snapshot and make its writes atomic. The
  SQLite implementation additionally backstops the exclusivity and
  pool invariants with unique indexes.

IMPLEMENTATIONS:
  - store/sqlite: production store (single writer, WAL)
  - inventory/store: in-memory store for tests and dev
*/
package inventory

import "context"

// =============================================================================
// STORES
// =============================================================================

// ResourceStore persists catalog resources.
// Get returns (nil, nil) when the resource does not exist.
type ResourceStore interface {
	Get(ctx context.Context, id ResourceID) (*Resource, error)
	List(ctx context.Context) ([]Resource, error)
	Insert(ctx context.Context, r Resource) error
	Update(ctx context.Context, r Resource) error
	Delete(ctx context.Context, id ResourceID) error
}

// ItemStore persists concrete items.
type ItemStore interface {
	Get(ctx context.Context, id ItemID) (*Item, error)
	ListByResource(ctx context.Context, resourceID ResourceID) ([]Item, error)
	CountByResource(ctx context.Context, resourceID ResourceID) (int, error)

	// FindByUniqueValue looks up an item holding the canonical string
	// form of a globally-unique property value. Returns (nil, nil)
	// when the value is unclaimed.
	FindByUniqueValue(ctx context.Context, key, value string) (*Item, error)

	Insert(ctx context.Context, it Item) error
	Update(ctx context.Context, it Item) error
	Delete(ctx context.Context, id ItemID) error
}

// AssignmentStore persists assignments. Assignments are never deleted,
// only transitioned, so there is no Delete.
type AssignmentStore interface {
	Get(ctx context.Context, id AssignmentID) (*Assignment, error)
	ListByEmployee(ctx context.Context, employeeID EmployeeID) ([]Assignment, error)
	ListByResource(ctx context.Context, resourceID ResourceID) ([]Assignment, error)

	// ActiveByItem returns the single ACTIVE assignment claiming the
	// item, or (nil, nil).
	ActiveByItem(ctx context.Context, itemID ItemID) (*Assignment, error)

	// ActiveByEmployeeAndResource returns the employee's ACTIVE
	// assignments for a resource, across all assignment types.
	ActiveByEmployeeAndResource(ctx context.Context, employeeID EmployeeID, resourceID ResourceID) ([]Assignment, error)

	// CountActive counts ACTIVE assignments on a resource, filtered by
	// type when t is non-empty. Used for pool capacity checks.
	CountActive(ctx context.Context, resourceID ResourceID, t AssignmentType) (int, error)

	Insert(ctx context.Context, a Assignment) error
	Update(ctx context.Context, a Assignment) error
}

// Stores bundles the per-entity stores a transaction can touch.
type Stores interface {
	Resources() ResourceStore
	Items() ItemStore
	Assignments() AssignmentStore
}

// TxStores is a Stores whose operations can be grouped atomically.
type TxStores interface {
	Stores

	// WithTx executes fn against transaction-scoped stores. If fn
	// returns an error the transaction is rolled back, otherwise it is
	// committed.
	WithTx(ctx context.Context, fn func(Stores) error) error
}

// =============================================================================
// DIRECTORIES - External collaborators consulted during validation
// =============================================================================

// TypeDirectory resolves a resource type to its name and its mandatory
// property keys. Implemented by the registry package.
type TypeDirectory interface {
	TypeName(ctx context.Context, id TypeID) (string, error)
	MandatoryKeys(ctx context.Context, id TypeID) ([]string, error)
}

// EmployeeDirectory answers existence checks for employees.
// Implemented by the employee package (with its lookup cache).
type EmployeeDirectory interface {
	Exists(ctx context.Context, id EmployeeID) (bool, error)
}

// =============================================================================
// RECORDER - Fire-and-forget audit / timeline hooks
// =============================================================================

// Change is one structured audit record. OldValue/NewValue are nil for
// create and delete events.
type Change struct {
	EntityType string
	EntityID   string
	ActorID    string
	Field      string
	OldValue   any
	NewValue   any
}

// Event is one human-readable timeline entry.
type Event struct {
	Title       string
	Description string
	Metadata    map[string]string
}

// Recorder receives audit and timeline records. Implementations must
// never block the caller and must never surface failures: observability
// side effects cannot fail the primary operation.
type Recorder interface {
	Change(ctx context.Context, c Change)
	Timeline(ctx context.Context, e Event)
}

// NopRecorder discards everything. Used in tests.
type NopRecorder struct{}

func (NopRecorder) Change(context.Context, Change)  {}
func (NopRecorder) Timeline(context.Context, Event) {}
