/*
Package employee maintains the employee roster and answers the
existence checks the assignment path issues on every grant.

The assignment validators hit the directory constantly, so lookups go
through a bounded LRU cache in front of the store. Any mutation
invalidates the affected entry; a miss falls through to the store and
populates the cache on the way back.
*/
package employee

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/warp/asset-inventory/inventory"
)

// Store persists employees. Get returns (nil, nil) when the employee
// does not exist.
type Store interface {
	Get(ctx context.Context, id inventory.EmployeeID) (*inventory.Employee, error)
	GetByEmail(ctx context.Context, email string) (*inventory.Employee, error)
	List(ctx context.Context) ([]inventory.Employee, error)
	Save(ctx context.Context, e inventory.Employee) error
	Delete(ctx context.Context, id inventory.EmployeeID) error
}

// DefaultCacheSize bounds the lookup cache. Sized for a mid-size org;
// evictions just mean a store round-trip.
const DefaultCacheSize = 4096

// Directory is the cached employee lookup service. It implements
// inventory.EmployeeDirectory.
type Directory struct {
	store Store
	cache *lru.Cache[inventory.EmployeeID, inventory.Employee]
	log   *zap.Logger
}

func NewDirectory(store Store, cacheSize int, log *zap.Logger) (*Directory, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	cache, err := lru.New[inventory.EmployeeID, inventory.Employee](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("building employee cache: %w", err)
	}
	return &Directory{store: store, cache: cache, log: log}, nil
}

// Get loads an employee, serving from cache when possible.
func (d *Directory) Get(ctx context.Context, id inventory.EmployeeID) (*inventory.Employee, error) {
	if e, ok := d.cache.Get(id); ok {
		return &e, nil
	}
	e, err := d.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, &inventory.NotFoundError{Entity: "employee", ID: string(id)}
	}
	d.cache.Add(id, *e)
	return e, nil
}

// Exists implements inventory.EmployeeDirectory.
func (d *Directory) Exists(ctx context.Context, id inventory.EmployeeID) (bool, error) {
	if _, ok := d.cache.Get(id); ok {
		return true, nil
	}
	e, err := d.store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if e == nil {
		return false, nil
	}
	d.cache.Add(id, *e)
	return true, nil
}

// List returns the full roster straight from the store.
func (d *Directory) List(ctx context.Context) ([]inventory.Employee, error) {
	return d.store.List(ctx)
}

// Create registers a new employee. Emails are unique.
func (d *Directory) Create(ctx context.Context, name, email string) (*inventory.Employee, error) {
	if name == "" || email == "" {
		return nil, &inventory.ValidationError{
			Code:    inventory.CodeSchemaViolation,
			Message: "employee name and email are required",
		}
	}
	existing, err := d.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &inventory.ReferentialIntegrityError{Entity: "employee", ID: email, BlockedBy: "existing employee with that email", Count: 1}
	}
	e := inventory.Employee{
		ID:        inventory.EmployeeID(inventory.NewID()),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.store.Save(ctx, e); err != nil {
		return nil, fmt.Errorf("saving employee: %w", err)
	}
	d.cache.Add(e.ID, e)
	return &e, nil
}

// Update edits name and email, invalidating the cache entry first so a
// concurrent reader never sees the stale record after the write lands.
func (d *Directory) Update(ctx context.Context, id inventory.EmployeeID, name, email string) (*inventory.Employee, error) {
	e, err := d.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, &inventory.NotFoundError{Entity: "employee", ID: string(id)}
	}
	if name != "" {
		e.Name = name
	}
	if email != "" && email != e.Email {
		other, err := d.store.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != id {
			return nil, &inventory.ReferentialIntegrityError{Entity: "employee", ID: email, BlockedBy: "existing employee with that email", Count: 1}
		}
		e.Email = email
	}
	d.cache.Remove(id)
	if err := d.store.Save(ctx, *e); err != nil {
		return nil, fmt.Errorf("saving employee: %w", err)
	}
	d.cache.Add(id, *e)
	return e, nil
}

// Delete removes an employee and drops the cache entry.
func (d *Directory) Delete(ctx context.Context, id inventory.EmployeeID) error {
	e, err := d.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		return &inventory.NotFoundError{Entity: "employee", ID: string(id)}
	}
	d.cache.Remove(id)
	if err := d.store.Delete(ctx, id); err != nil {
		return err
	}
	d.log.Debug("employee removed", zap.String("employee_id", string(id)))
	return nil
}
