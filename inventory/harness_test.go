package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warp/asset-inventory/inventory"
	"github.com/warp/asset-inventory/inventory/store"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

// stubTypes is a fixed TypeDirectory with the three system types plus
// one custom type.
type stubTypes struct{}

const (
	typeHardware inventory.TypeID = "type-hardware"
	typeSoftware inventory.TypeID = "type-software"
	typeCloud    inventory.TypeID = "type-cloud"
	typeCustom   inventory.TypeID = "type-custom"
)

func (stubTypes) TypeName(_ context.Context, id inventory.TypeID) (string, error) {
	switch id {
	case typeHardware:
		return "Hardware", nil
	case typeSoftware:
		return "Software", nil
	case typeCloud:
		return "Cloud", nil
	case typeCustom:
		return "Lab Equipment", nil
	}
	return "", &inventory.NotFoundError{Entity: "resource type", ID: string(id)}
}

func (stubTypes) MandatoryKeys(_ context.Context, id inventory.TypeID) ([]string, error) {
	switch id {
	case typeHardware:
		return []string{"serialNumber", "warrantyExpiry"}, nil
	case typeSoftware:
		return []string{"licenseKey"}, nil
	case typeCloud:
		return []string{"maxUsers"}, nil
	case typeCustom:
		return []string{"assetTag"}, nil
	}
	return nil, &inventory.NotFoundError{Entity: "resource type", ID: string(id)}
}

// stubEmployees says yes to every employee whose ID starts with "emp-".
type stubEmployees struct{}

func (stubEmployees) Exists(_ context.Context, id inventory.EmployeeID) (bool, error) {
	return len(id) > 4 && id[:4] == "emp-", nil
}

type services struct {
	store       *store.Memory
	resources   *inventory.ResourceService
	items       *inventory.ItemService
	assignments *inventory.AssignmentService
}

func newServices(t *testing.T) services {
	t.Helper()
	mem := store.NewMemory()
	return services{
		store:       mem,
		resources:   inventory.NewResourceService(mem, stubTypes{}, nil, nil),
		items:       inventory.NewItemService(mem, stubTypes{}, nil, nil),
		assignments: inventory.NewAssignmentService(mem, stubTypes{}, stubEmployees{}, nil, nil),
	}
}

func hardwareSchema() inventory.Schema {
	return inventory.Schema{
		{Key: "serialNumber", Label: "Serial Number", DataType: inventory.DataTypeString, Required: true, Unique: true},
		{Key: "warrantyExpiry", Label: "Warranty Expiry", DataType: inventory.DataTypeDate, Required: true},
		{Key: "model", Label: "Model", DataType: inventory.DataTypeString},
	}
}

func softwareSchema() inventory.Schema {
	return inventory.Schema{
		{Key: "licenseKey", Label: "License Key", DataType: inventory.DataTypeString, Required: true, Unique: true},
	}
}

func cloudSchema() inventory.Schema {
	return inventory.Schema{
		{Key: "maxUsers", Label: "Max Users", DataType: inventory.DataTypeNumber, Required: true},
	}
}

func hardwareProps(serial string) map[string]any {
	return map[string]any{
		"serialNumber":   serial,
		"warrantyExpiry": "2027-06-30",
	}
}

// createHardware registers a laptop-style resource.
func createHardware(t *testing.T, s services, name string) *inventory.Resource {
	t.Helper()
	res, err := s.resources.Create(context.Background(), inventory.CreateResourceInput{
		Name:       name,
		TypeID:     typeHardware,
		CategoryID: "cat-laptop",
		Schema:     hardwareSchema(),
	})
	require.NoError(t, err)
	return res
}

// createSoftware registers a pooled-capable software resource.
func createSoftware(t *testing.T, s services, name string, quantity int) *inventory.Resource {
	t.Helper()
	res, err := s.resources.Create(context.Background(), inventory.CreateResourceInput{
		Name:       name,
		TypeID:     typeSoftware,
		CategoryID: "cat-license",
		Schema:     softwareSchema(),
		Quantity:   quantity,
	})
	require.NoError(t, err)
	return res
}

// createCloud registers a shared cloud subscription resource.
func createCloud(t *testing.T, s services, name string) *inventory.Resource {
	t.Helper()
	res, err := s.resources.Create(context.Background(), inventory.CreateResourceInput{
		Name:       name,
		TypeID:     typeCloud,
		CategoryID: "cat-saas",
		Schema:     cloudSchema(),
	})
	require.NoError(t, err)
	return res
}
