package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-inventory/inventory"
)

// =============================================================================
// INDIVIDUAL (EXCLUSIVE) ASSIGNMENTS
// =============================================================================

func TestAssignmentCreate_HardwareRequiresItem(t *testing.T) {
	s := newServices(t)
	res := createHardware(t, s, "MacBook Pro")

	_, err := s.assignments.Create(context.Background(), inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID,
	}, "emp-admin")

	var vErr *inventory.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, inventory.CodeItemRequired, vErr.Code)
}

func TestAssignmentCreate_ClaimFlipsItemToAssigned(t *testing.T) {
	// GIVEN: An AVAILABLE hardware item
	// WHEN: An individual assignment claims it
	// THEN: Assignment is ACTIVE and the item is ASSIGNED, atomically

	s := newServices(t)
	ctx := context.Background()
	res := createHardware(t, s, "MacBook Pro")
	item, err := s.items.Create(ctx, res.ID, hardwareProps("SN-1"), "", "emp-admin")
	require.NoError(t, err)

	a, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, ItemID: item.ID,
	}, "emp-admin")
	require.NoError(t, err)
	assert.Equal(t, inventory.AssignIndividual, a.Type)
	assert.Equal(t, inventory.AssignmentActive, a.Status)
	assert.Equal(t, inventory.EmployeeID("emp-admin"), a.AssignedBy)

	held, err := s.items.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ItemAssigned, held.Status)
}

func TestAssignmentCreate_ClaimedItemIsExclusive(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	res := createHardware(t, s, "MacBook Pro")
	item, err := s.items.Create(ctx, res.ID, hardwareProps("SN-1"), "", "emp-admin")
	require.NoError(t, err)

	a, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, ItemID: item.ID,
	}, "emp-admin")
	require.NoError(t, err)

	// The holder asking again is a duplicate, not an availability problem.
	_, err = s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, ItemID: item.ID,
	}, "emp-admin")
	assert.ErrorIs(t, err, inventory.ErrDuplicateAssignment)

	// Anyone else is told who holds it.
	_, err = s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-bob", ResourceID: res.ID, ItemID: item.ID,
	}, "emp-admin")
	var unavail *inventory.ItemUnavailableError
	require.ErrorAs(t, err, &unavail)
	assert.Equal(t, a.ID, unavail.HeldBy)
}

func TestAssignmentCreate_ItemMustBelongToResource(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	laptop := createHardware(t, s, "MacBook Pro")
	monitor := createHardware(t, s, "Dell Monitor")
	item, err := s.items.Create(ctx, monitor.ID, hardwareProps("SN-M1"), "", "emp-admin")
	require.NoError(t, err)

	_, err = s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: laptop.ID, ItemID: item.ID,
	}, "emp-admin")
	assert.ErrorIs(t, err, inventory.ErrValidation)
}

func TestAssignmentCreate_ItemInMaintenanceNotClaimable(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	res := createHardware(t, s, "MacBook Pro")
	item, err := s.items.Create(ctx, res.ID, hardwareProps("SN-1"), "", "emp-admin")
	require.NoError(t, err)
	_, err = s.items.Update(ctx, item.ID, inventory.UpdateItemInput{Status: inventory.ItemMaintenance})
	require.NoError(t, err)

	_, err = s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, ItemID: item.ID,
	}, "emp-admin")
	var unavail *inventory.ItemUnavailableError
	require.ErrorAs(t, err, &unavail)
	assert.Equal(t, inventory.ItemMaintenance, unavail.Status)
	assert.Empty(t, unavail.HeldBy)
}

func TestAssignmentCreate_ConcurrentClaimsOneWinner(t *testing.T) {
	// GIVEN: One AVAILABLE item and ten simultaneous claimants
	// WHEN: All claims run concurrently
	// THEN: Exactly one succeeds, the rest see the item as taken

	s := newServices(t)
	ctx := context.Background()
	res := createHardware(t, s, "MacBook Pro")
	item, err := s.items.Create(ctx, res.ID, hardwareProps("SN-1"), "", "emp-admin")
	require.NoError(t, err)

	const claimants = 10
	errs := make([]error, claimants)
	var wg sync.WaitGroup
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.assignments.Create(ctx, inventory.AssignmentRequest{
				EmployeeID: inventory.EmployeeID("emp-" + string(rune('a'+i))),
				ResourceID: res.ID,
				ItemID:     item.ID,
			}, "emp-admin")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, inventory.ErrItemUnavailable)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestAssignmentCreate_SoftwareResourceLevelGrant(t *testing.T) {
	// Software without an item attaches at the resource level; a second
	// resource-level grant for the same employee is a duplicate.

	s := newServices(t)
	ctx := context.Background()
	res := createSoftware(t, s, "JetBrains License", 0)

	a, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID,
	}, "emp-admin")
	require.NoError(t, err)
	assert.Equal(t, inventory.AssignIndividual, a.Type)
	assert.False(t, a.ItemBound())

	_, err = s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID,
	}, "emp-admin")
	assert.ErrorIs(t, err, inventory.ErrDuplicateAssignment)
}

// =============================================================================
// POOLED ASSIGNMENTS
// =============================================================================

func TestAssignmentCreate_PooledCapacity(t *testing.T) {
	// GIVEN: A software pool with two seats
	// WHEN: Three employees request seats
	// THEN: Two get in; the third hits the capacity limit

	s := newServices(t)
	ctx := context.Background()
	res := createSoftware(t, s, "Figma", 2)

	for _, emp := range []inventory.EmployeeID{"emp-alice", "emp-bob"} {
		a, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
			EmployeeID: emp, ResourceID: res.ID, Type: inventory.AssignPooled,
		}, "emp-admin")
		require.NoError(t, err)
		assert.Equal(t, inventory.AssignPooled, a.Type)
	}

	_, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-carol", ResourceID: res.ID, Type: inventory.AssignPooled,
	}, "emp-admin")
	var capErr *inventory.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 2, capErr.Quantity)
	assert.Equal(t, 2, capErr.Active)
}

func TestAssignmentCreate_PooledOneSeatPerEmployee(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	res := createSoftware(t, s, "Figma", 5)

	_, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, Type: inventory.AssignPooled,
	}, "emp-admin")
	require.NoError(t, err)

	_, err = s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, Type: inventory.AssignPooled,
	}, "emp-admin")
	assert.ErrorIs(t, err, inventory.ErrDuplicateAssignment)
}

func TestAssignmentCreate_ReturnedSeatFreesCapacity(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	res := createSoftware(t, s, "Figma", 1)

	first, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, Type: inventory.AssignPooled,
	}, "emp-admin")
	require.NoError(t, err)

	_, err = s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-bob", ResourceID: res.ID, Type: inventory.AssignPooled,
	}, "emp-admin")
	assert.ErrorIs(t, err, inventory.ErrCapacityExceeded)

	_, err = s.assignments.UpdateStatus(ctx, first.ID, inventory.AssignmentReturned, "emp-admin")
	require.NoError(t, err)

	_, err = s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-bob", ResourceID: res.ID, Type: inventory.AssignPooled,
	}, "emp-admin")
	assert.NoError(t, err)
}

func TestAssignmentCreate_PooledDoesNotBindItems(t *testing.T) {
	// A pooled seat is a resource-level grant. Naming an item - real or
	// not - is a request error, never a claim.

	s := newServices(t)
	ctx := context.Background()
	res := createSoftware(t, s, "Figma", 5)

	_, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, Type: inventory.AssignPooled,
		ItemID: "item-does-not-exist",
	}, "emp-admin")
	var vErr *inventory.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, inventory.CodeItemNotAllowed, vErr.Code)

	// The rejected request must leave nothing behind.
	list, err := s.assignments.ListByResource(ctx, res.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAssignmentCreate_PooledCannotStealHeldItem(t *testing.T) {
	// GIVEN: A license unit exclusively held by one employee
	// WHEN: Another employee requests a pooled seat naming that unit
	// THEN: The request is rejected and the holder keeps the item

	s := newServices(t)
	ctx := context.Background()
	res := createSoftware(t, s, "Figma", 5)
	item, err := s.items.Create(ctx, res.ID, map[string]any{"licenseKey": "LK-1"}, "", "emp-admin")
	require.NoError(t, err)

	held, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, ItemID: item.ID,
	}, "emp-admin")
	require.NoError(t, err)
	require.Equal(t, inventory.AssignIndividual, held.Type)

	_, err = s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-bob", ResourceID: res.ID, Type: inventory.AssignPooled,
		ItemID: item.ID,
	}, "emp-admin")
	var vErr *inventory.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, inventory.CodeItemNotAllowed, vErr.Code)

	// The original holder's claim is still the only ACTIVE one.
	reloaded, err := s.items.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ItemAssigned, reloaded.Status)
	bobs, err := s.assignments.ListByEmployee(ctx, "emp-bob")
	require.NoError(t, err)
	assert.Empty(t, bobs)
}

// =============================================================================
// SHARED ASSIGNMENTS
// =============================================================================

func TestAssignmentCreate_SharedUnlimitedButOnePerEmployee(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	res := createCloud(t, s, "Notion")

	for _, emp := range []inventory.EmployeeID{"emp-alice", "emp-bob", "emp-carol", "emp-dave"} {
		a, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
			EmployeeID: emp, ResourceID: res.ID,
		}, "emp-admin")
		require.NoError(t, err)
		assert.Equal(t, inventory.AssignShared, a.Type)
	}

	_, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID,
	}, "emp-admin")
	assert.ErrorIs(t, err, inventory.ErrDuplicateAssignment)
}

func TestAssignmentCreate_SharedItemBindingDoesNotClaim(t *testing.T) {
	// A SHARED assignment may reference an item for bookkeeping, but the
	// item stays AVAILABLE.

	s := newServices(t)
	ctx := context.Background()
	res := createCloud(t, s, "Notion")
	item, err := s.items.Create(ctx, res.ID, map[string]any{"maxUsers": 50}, "", "emp-admin")
	require.NoError(t, err)

	a, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, ItemID: item.ID,
	}, "emp-admin")
	require.NoError(t, err)
	assert.True(t, a.ItemBound())

	reloaded, err := s.items.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ItemAvailable, reloaded.Status)
}

// =============================================================================
// CROSS-CUTTING CHECKS
// =============================================================================

func TestAssignmentCreate_InactiveResourceRejected(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	res := createCloud(t, s, "Notion")
	inactive := inventory.ResourceInactive
	_, err := s.resources.Update(ctx, res.ID, inventory.UpdateResourceInput{Status: &inactive})
	require.NoError(t, err)

	_, err = s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID,
	}, "emp-admin")
	var inErr *inventory.InactiveResourceError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, inventory.ResourceInactive, inErr.Status)
}

func TestAssignmentCreate_UnknownEmployeeRejected(t *testing.T) {
	s := newServices(t)
	res := createCloud(t, s, "Notion")

	_, err := s.assignments.Create(context.Background(), inventory.AssignmentRequest{
		EmployeeID: "ghost", ResourceID: res.ID,
	}, "emp-admin")
	assert.True(t, inventory.IsNotFound(err))
}

func TestAssignmentCreate_UnknownTypeRejected(t *testing.T) {
	s := newServices(t)
	res := createCloud(t, s, "Notion")

	_, err := s.assignments.Create(context.Background(), inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, Type: "LEASED",
	}, "emp-admin")
	var vErr *inventory.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, inventory.CodeUnknownAssignType, vErr.Code)
}

func TestAssignmentValidate_DryRunWritesNothing(t *testing.T) {
	// GIVEN: A claimable item
	// WHEN: Validating the request twice
	// THEN: Both pass - validation never claims the item

	s := newServices(t)
	ctx := context.Background()
	res := createHardware(t, s, "MacBook Pro")
	item, err := s.items.Create(ctx, res.ID, hardwareProps("SN-1"), "", "emp-admin")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		outcome, err := s.assignments.Validate(ctx, inventory.AssignmentRequest{
			EmployeeID: "emp-alice", ResourceID: res.ID, ItemID: item.ID,
		})
		require.NoError(t, err)
		assert.True(t, outcome.Valid)
		assert.Equal(t, inventory.AssignIndividual, outcome.ResolvedType)
		assert.NoError(t, outcome.Err)
	}

	reloaded, err := s.items.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ItemAvailable, reloaded.Status)
}

func TestAssignmentValidate_ReportsRejectionWithoutError(t *testing.T) {
	// Business rejections surface through the outcome, not the call error.

	s := newServices(t)
	ctx := context.Background()
	res := createSoftware(t, s, "Figma", 0)

	outcome, err := s.assignments.Validate(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, Type: inventory.AssignPooled,
	})
	require.NoError(t, err)
	assert.False(t, outcome.Valid)
	assert.Equal(t, inventory.AssignPooled, outcome.ResolvedType)
	assert.ErrorIs(t, outcome.Err, inventory.ErrCapacityExceeded)
}

// =============================================================================
// STATUS TRANSITIONS AND ITEM COUPLING
// =============================================================================

func TestAssignmentUpdateStatus_ReturnFreesItem(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	res := createHardware(t, s, "MacBook Pro")
	item, err := s.items.Create(ctx, res.ID, hardwareProps("SN-1"), "", "emp-admin")
	require.NoError(t, err)
	a, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, ItemID: item.ID,
	}, "emp-admin")
	require.NoError(t, err)

	returned, err := s.assignments.UpdateStatus(ctx, a.ID, inventory.AssignmentReturned, "emp-admin")
	require.NoError(t, err)
	assert.Equal(t, inventory.AssignmentReturned, returned.Status)
	require.NotNil(t, returned.ReturnedAt)

	freed, err := s.items.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ItemAvailable, freed.Status)
}

func TestAssignmentUpdateStatus_LostAndDamagedFollowTheItem(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	res := createHardware(t, s, "MacBook Pro")

	claim := func(serial string) (*inventory.Item, *inventory.Assignment) {
		item, err := s.items.Create(ctx, res.ID, hardwareProps(serial), "", "emp-admin")
		require.NoError(t, err)
		a, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
			EmployeeID: "emp-alice", ResourceID: res.ID, ItemID: item.ID,
		}, "emp-admin")
		require.NoError(t, err)
		return item, a
	}

	t.Run("lost", func(t *testing.T) {
		item, a := claim("SN-LOST")
		_, err := s.assignments.UpdateStatus(ctx, a.ID, inventory.AssignmentLost, "emp-admin")
		require.NoError(t, err)
		reloaded, err := s.items.Get(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.ItemLost, reloaded.Status)
	})

	t.Run("damaged then repaired and returned", func(t *testing.T) {
		item, a := claim("SN-DMG")
		_, err := s.assignments.UpdateStatus(ctx, a.ID, inventory.AssignmentDamaged, "emp-admin")
		require.NoError(t, err)
		reloaded, err := s.items.Get(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.ItemDamaged, reloaded.Status)

		// DAMAGED assignments may still complete the return.
		_, err = s.assignments.UpdateStatus(ctx, a.ID, inventory.AssignmentReturned, "emp-admin")
		require.NoError(t, err)
		reloaded, err = s.items.Get(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.ItemAvailable, reloaded.Status)
	})
}

func TestAssignmentUpdateStatus_TerminalStatesStayPut(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	res := createSoftware(t, s, "Figma", 5)
	a, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, Type: inventory.AssignPooled,
	}, "emp-admin")
	require.NoError(t, err)
	_, err = s.assignments.UpdateStatus(ctx, a.ID, inventory.AssignmentReturned, "emp-admin")
	require.NoError(t, err)

	for _, to := range []inventory.AssignmentStatus{
		inventory.AssignmentActive, inventory.AssignmentLost, inventory.AssignmentDamaged,
	} {
		_, err := s.assignments.UpdateStatus(ctx, a.ID, to, "emp-admin")
		var trErr *inventory.StateTransitionError
		require.ErrorAs(t, err, &trErr)
		assert.Equal(t, string(inventory.AssignmentReturned), trErr.From)
	}
}

func TestAssignmentRevoke_IsAReturn(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	res := createHardware(t, s, "MacBook Pro")
	item, err := s.items.Create(ctx, res.ID, hardwareProps("SN-1"), "", "emp-admin")
	require.NoError(t, err)
	a, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, ItemID: item.ID,
	}, "emp-admin")
	require.NoError(t, err)

	revoked, err := s.assignments.Revoke(ctx, a.ID, "emp-admin", "offboarding")
	require.NoError(t, err)
	assert.Equal(t, inventory.AssignmentReturned, revoked.Status)

	freed, err := s.items.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ItemAvailable, freed.Status)
}

// =============================================================================
// SCENARIO
// =============================================================================

func TestScenario_LaptopLifecycle(t *testing.T) {
	// A laptop is registered, issued, reported damaged, repaired and
	// returned, then reissued to someone else.

	s := newServices(t)
	ctx := context.Background()
	res := createHardware(t, s, "MacBook Pro 16")

	item, err := s.items.Create(ctx, res.ID, map[string]any{
		"serialNumber":   "C02XL0GYJGH5",
		"warrantyExpiry": "2028-01-15",
		"model":          "M4 Pro",
	}, "", "emp-admin")
	require.NoError(t, err)

	a1, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-alice", ResourceID: res.ID, ItemID: item.ID,
		Notes: "new hire setup",
	}, "emp-admin")
	require.NoError(t, err)

	// While Alice holds it, nobody else can claim it and it cannot be
	// deleted.
	_, err = s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-bob", ResourceID: res.ID, ItemID: item.ID,
	}, "emp-admin")
	assert.ErrorIs(t, err, inventory.ErrItemUnavailable)
	assert.ErrorIs(t, s.items.Delete(ctx, item.ID, "emp-admin"), inventory.ErrActiveAssignment)

	// Damaged in the field, repaired, returned.
	_, err = s.assignments.UpdateStatus(ctx, a1.ID, inventory.AssignmentDamaged, "emp-alice")
	require.NoError(t, err)
	_, err = s.assignments.UpdateStatus(ctx, a1.ID, inventory.AssignmentReturned, "emp-admin")
	require.NoError(t, err)

	// Reissue to Bob.
	a2, err := s.assignments.Create(ctx, inventory.AssignmentRequest{
		EmployeeID: "emp-bob", ResourceID: res.ID, ItemID: item.ID,
	}, "emp-admin")
	require.NoError(t, err)
	assert.NotEqual(t, a1.ID, a2.ID)

	history, err := s.assignments.ListByResource(ctx, res.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
