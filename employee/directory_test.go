package employee_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-inventory/employee"
	"github.com/warp/asset-inventory/inventory"
)

// countingStore wraps the in-memory store and counts Get round-trips,
// to observe cache hits and misses.
type countingStore struct {
	employee.Store
	gets int
}

func (c *countingStore) Get(ctx context.Context, id inventory.EmployeeID) (*inventory.Employee, error) {
	c.gets++
	return c.Store.Get(ctx, id)
}

func newDirectory(t *testing.T) (*employee.Directory, *countingStore) {
	t.Helper()
	cs := &countingStore{Store: employee.NewMemory()}
	d, err := employee.NewDirectory(cs, 8, nil)
	require.NoError(t, err)
	return d, cs
}

func TestDirectoryCreate_Validation(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	_, err := d.Create(ctx, "", "ada@example.com")
	assert.ErrorIs(t, err, inventory.ErrValidation)
	_, err = d.Create(ctx, "Ada Lovelace", "")
	assert.ErrorIs(t, err, inventory.ErrValidation)

	e, err := d.Create(ctx, "Ada Lovelace", "ada@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
}

func TestDirectoryCreate_EmailUnique(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	_, err := d.Create(ctx, "Ada Lovelace", "ada@example.com")
	require.NoError(t, err)

	_, err = d.Create(ctx, "Ada Byron", "ada@example.com")
	assert.ErrorIs(t, err, inventory.ErrReferentialIntegrity)
}

func TestDirectoryExists_ServesFromCache(t *testing.T) {
	// GIVEN: A created employee (cached on create)
	// WHEN: Checking existence repeatedly
	// THEN: The store is never consulted

	d, cs := newDirectory(t)
	ctx := context.Background()
	e, err := d.Create(ctx, "Ada Lovelace", "ada@example.com")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ok, err := d.Exists(ctx, e.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Zero(t, cs.gets)

	// A miss goes to the store once and is cached after.
	ok, err := d.Exists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, cs.gets)
}

func TestDirectoryGet_PopulatesCacheOnMiss(t *testing.T) {
	d, cs := newDirectory(t)
	ctx := context.Background()
	store := cs.Store
	seeded := inventory.Employee{ID: "emp-1", Name: "Ada Lovelace", Email: "ada@example.com"}
	require.NoError(t, store.Save(ctx, seeded))

	for i := 0; i < 3; i++ {
		e, err := d.Get(ctx, "emp-1")
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", e.Name)
	}
	assert.Equal(t, 1, cs.gets)

	_, err := d.Get(ctx, "ghost")
	assert.True(t, inventory.IsNotFound(err))
}

func TestDirectoryUpdate_InvalidatesCache(t *testing.T) {
	// GIVEN: A cached employee
	// WHEN: Updating the record
	// THEN: Subsequent reads see the new value, not the cached one

	d, _ := newDirectory(t)
	ctx := context.Background()
	e, err := d.Create(ctx, "Ada Lovelace", "ada@example.com")
	require.NoError(t, err)

	_, err = d.Get(ctx, e.ID)
	require.NoError(t, err)

	updated, err := d.Update(ctx, e.ID, "Ada King", "ada.king@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada King", updated.Name)

	fresh, err := d.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada King", fresh.Name)
	assert.Equal(t, "ada.king@example.com", fresh.Email)
}

func TestDirectoryUpdate_EmailCollision(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()
	_, err := d.Create(ctx, "Ada Lovelace", "ada@example.com")
	require.NoError(t, err)
	grace, err := d.Create(ctx, "Grace Hopper", "grace@example.com")
	require.NoError(t, err)

	_, err = d.Update(ctx, grace.ID, "", "ada@example.com")
	assert.ErrorIs(t, err, inventory.ErrReferentialIntegrity)

	// Re-saving your own email is not a collision.
	_, err = d.Update(ctx, grace.ID, "Grace Murray Hopper", "grace@example.com")
	assert.NoError(t, err)
}

func TestDirectoryDelete_DropsCacheEntry(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()
	e, err := d.Create(ctx, "Ada Lovelace", "ada@example.com")
	require.NoError(t, err)

	require.NoError(t, d.Delete(ctx, e.ID))

	ok, err := d.Exists(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, d.Delete(ctx, e.ID), inventory.ErrNotFound)
}

func TestDirectoryList_SortedRoster(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()
	for _, spec := range []struct{ name, email string }{
		{"Grace Hopper", "grace@example.com"},
		{"Ada Lovelace", "ada@example.com"},
		{"Katherine Johnson", "katherine@example.com"},
	} {
		_, err := d.Create(ctx, spec.name, spec.email)
		require.NoError(t, err)
	}

	roster, err := d.List(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Equal(t, "Ada Lovelace", roster[0].Name)
	assert.Equal(t, "Grace Hopper", roster[1].Name)
	assert.Equal(t, "Katherine Johnson", roster[2].Name)
}
