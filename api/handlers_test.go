package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-inventory/api"
	"github.com/warp/asset-inventory/employee"
	"github.com/warp/asset-inventory/inventory"
	memstore "github.com/warp/asset-inventory/inventory/store"
	"github.com/warp/asset-inventory/registry"
)

// newServer wires the full stack over the in-memory stores, seeded the
// same way the production entrypoint does.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	mem := memstore.NewMemory()
	reg := registry.NewService(registry.NewMemory(), mem, nil, nil)
	require.NoError(t, reg.Seed(context.Background()))

	directory, err := employee.NewDirectory(employee.NewMemory(), 0, nil)
	require.NoError(t, err)

	h := api.NewHandler(
		inventory.NewResourceService(mem, reg, nil, nil),
		inventory.NewItemService(mem, reg, nil, nil),
		inventory.NewAssignmentService(mem, reg, directory, nil, nil),
		reg,
		directory,
		nil,
	)
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

// do issues a JSON request and decodes the response body into out
// (when out is non-nil).
func do(t *testing.T, srv *httptest.Server, method, path string, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "emp-admin")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func hardwareTypeID(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	var types []api.ResourceTypeDTO
	resp := do(t, srv, http.MethodGet, "/api/types", nil, &types)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, tp := range types {
		if tp.Name == "Hardware" {
			return tp.ID
		}
	}
	t.Fatal("Hardware type not seeded")
	return ""
}

func createLaptopResource(t *testing.T, srv *httptest.Server) api.ResourceDTO {
	t.Helper()
	var res api.ResourceDTO
	resp := do(t, srv, http.MethodPost, "/api/resources", api.CreateResourceRequest{
		Name: "MacBook Pro", TypeID: hardwareTypeID(t, srv), CategoryID: "cat-laptop",
		Schema: []api.PropertyDefinitionDTO{
			{Key: "serialNumber", Label: "Serial Number", DataType: "STRING", Required: true, Unique: true},
			{Key: "warrantyExpiry", Label: "Warranty Expiry", DataType: "DATE", Required: true},
		},
	}, &res)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return res
}

func createEmployee(t *testing.T, srv *httptest.Server, name, email string) api.EmployeeDTO {
	t.Helper()
	var e api.EmployeeDTO
	resp := do(t, srv, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{Name: name, Email: email}, &e)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return e
}

// =============================================================================
// HEALTH AND REGISTRY
// =============================================================================

func TestAPI_Healthz(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_SeededRegistry(t *testing.T) {
	srv := newServer(t)

	var defs []api.PropertyDefinitionDTO
	resp := do(t, srv, http.MethodGet, "/api/properties", nil, &defs)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, defs)

	hwID := hardwareTypeID(t, srv)
	var cats []api.CategoryDTO
	resp = do(t, srv, http.MethodGet, "/api/types/"+hwID+"/categories", nil, &cats)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, cats, 3)
}

func TestAPI_CreateCustomType(t *testing.T) {
	srv := newServer(t)

	var created api.ResourceTypeDTO
	resp := do(t, srv, http.MethodPost, "/api/types", api.CreateTypeRequest{
		Name: "Lab Equipment", MandatoryProperties: []string{"serialNumber"},
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.False(t, created.IsSystem)

	// Unknown catalog keys are a 400 with the offending keys in details.
	var errResp api.ErrorResponse
	resp = do(t, srv, http.MethodPost, "/api/types", api.CreateTypeRequest{
		Name: "Vehicles", MandatoryProperties: []string{"vin"},
	}, &errResp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errResp.Details, "vin")
}

// =============================================================================
// RESOURCE AND ITEM FLOW
// =============================================================================

func TestAPI_ResourceItemFlow(t *testing.T) {
	// Full walk: create resource, add an item (locking the schema),
	// verify the lock rejects a schema edit with 409.

	srv := newServer(t)
	res := createLaptopResource(t, srv)
	assert.False(t, res.SchemaLocked)

	var item api.ItemDTO
	resp := do(t, srv, http.MethodPost, "/api/resources/"+res.ID+"/items", api.CreateItemRequest{
		Properties: map[string]any{"serialNumber": "SN-1", "warrantyExpiry": "2027-06-30"},
	}, &item)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "AVAILABLE", item.Status)
	assert.Equal(t, "SN-1", item.Properties["serialNumber"])

	var reloaded api.ResourceDTO
	resp = do(t, srv, http.MethodGet, "/api/resources/"+res.ID, nil, &reloaded)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, reloaded.SchemaLocked)

	// Schema edit after the lock is a conflict.
	var errResp api.ErrorResponse
	resp = do(t, srv, http.MethodPut, "/api/resources/"+res.ID, api.UpdateResourceRequest{
		Schema: []api.PropertyDefinitionDTO{
			{Key: "serialNumber", DataType: "STRING", Required: true, Unique: true},
		},
	}, &errResp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// So is a duplicate serial number.
	resp = do(t, srv, http.MethodPost, "/api/resources/"+res.ID+"/items", api.CreateItemRequest{
		Properties: map[string]any{"serialNumber": "SN-1", "warrantyExpiry": "2027-06-30"},
	}, &errResp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Missing mandatory properties are a 400 with a machine code.
	resp = do(t, srv, http.MethodPost, "/api/resources/"+res.ID+"/items", api.CreateItemRequest{
		Properties: map[string]any{"serialNumber": "SN-2"},
	}, &errResp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, errResp.Code)
}

func TestAPI_DeleteResourceWithItemsConflicts(t *testing.T) {
	srv := newServer(t)
	res := createLaptopResource(t, srv)
	resp := do(t, srv, http.MethodPost, "/api/resources/"+res.ID+"/items", api.CreateItemRequest{
		Properties: map[string]any{"serialNumber": "SN-1", "warrantyExpiry": "2027-06-30"},
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, srv, http.MethodDelete, "/api/resources/"+res.ID, nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// =============================================================================
// ASSIGNMENT FLOW
// =============================================================================

func TestAPI_AssignmentFlow(t *testing.T) {
	srv := newServer(t)
	res := createLaptopResource(t, srv)
	alice := createEmployee(t, srv, "Alice Chen", "alice@example.com")

	var item api.ItemDTO
	resp := do(t, srv, http.MethodPost, "/api/resources/"+res.ID+"/items", api.CreateItemRequest{
		Properties: map[string]any{"serialNumber": "SN-1", "warrantyExpiry": "2027-06-30"},
	}, &item)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Dry-run first.
	var outcome api.ValidateAssignmentDTO
	resp = do(t, srv, http.MethodPost, "/api/assignments/validate", api.CreateAssignmentRequest{
		EmployeeID: alice.ID, ResourceID: res.ID, ItemID: item.ID,
	}, &outcome)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, outcome.Valid)
	assert.Equal(t, "INDIVIDUAL", outcome.ResolvedType)

	// Grant.
	var a api.AssignmentDTO
	resp = do(t, srv, http.MethodPost, "/api/assignments", api.CreateAssignmentRequest{
		EmployeeID: alice.ID, ResourceID: res.ID, ItemID: item.ID, Notes: "new hire setup",
	}, &a)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ACTIVE", a.Status)
	assert.Equal(t, "emp-admin", a.AssignedBy)

	// The item is now claimed.
	var claimed api.ItemDTO
	resp = do(t, srv, http.MethodGet, "/api/items/"+item.ID, nil, &claimed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ASSIGNED", claimed.Status)

	var check api.DeleteCheckDTO
	resp = do(t, srv, http.MethodGet, "/api/items/"+item.ID+"/can-delete", nil, &check)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, check.CanDelete)

	// A second claimant conflicts.
	bob := createEmployee(t, srv, "Bob Diaz", "bob@example.com")
	resp = do(t, srv, http.MethodPost, "/api/assignments", api.CreateAssignmentRequest{
		EmployeeID: bob.ID, ResourceID: res.ID, ItemID: item.ID,
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Illegal transition is a 422.
	resp = do(t, srv, http.MethodPut, "/api/assignments/"+a.ID+"/status",
		api.UpdateAssignmentStatusRequest{Status: "ACTIVE"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Return frees the item.
	var returned api.AssignmentDTO
	resp = do(t, srv, http.MethodPut, "/api/assignments/"+a.ID+"/status",
		api.UpdateAssignmentStatusRequest{Status: "RETURNED"}, &returned)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, returned.ReturnedAt)

	resp = do(t, srv, http.MethodGet, "/api/items/"+item.ID, nil, &claimed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "AVAILABLE", claimed.Status)

	// History shows up for the employee.
	var history []api.AssignmentDTO
	resp = do(t, srv, http.MethodGet, "/api/employees/"+alice.ID+"/assignments", nil, &history)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, history, 1)
}

func TestAPI_RevokeAssignment(t *testing.T) {
	srv := newServer(t)
	res := createLaptopResource(t, srv)
	alice := createEmployee(t, srv, "Alice Chen", "alice@example.com")

	var item api.ItemDTO
	resp := do(t, srv, http.MethodPost, "/api/resources/"+res.ID+"/items", api.CreateItemRequest{
		Properties: map[string]any{"serialNumber": "SN-1", "warrantyExpiry": "2027-06-30"},
	}, &item)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var a api.AssignmentDTO
	resp = do(t, srv, http.MethodPost, "/api/assignments", api.CreateAssignmentRequest{
		EmployeeID: alice.ID, ResourceID: res.ID, ItemID: item.ID,
	}, &a)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var revoked api.AssignmentDTO
	resp = do(t, srv, http.MethodPost, "/api/assignments/"+a.ID+"/revoke",
		api.RevokeAssignmentRequest{Reason: "offboarding"}, &revoked)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "RETURNED", revoked.Status)
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestAPI_ErrorStatuses(t *testing.T) {
	srv := newServer(t)

	t.Run("unknown resource is 404", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/api/resources/ghost", nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown item is 404", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/api/items/ghost", nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/resources", bytes.NewBufferString("{nope"))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty schema is 400 with code", func(t *testing.T) {
		var errResp api.ErrorResponse
		resp := do(t, srv, http.MethodPost, "/api/resources", api.CreateResourceRequest{
			Name: "Empty", TypeID: hardwareTypeID(t, srv), CategoryID: "cat-x",
		}, &errResp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.NotEmpty(t, errResp.Code)
	})

	t.Run("duplicate employee email is 409", func(t *testing.T) {
		createEmployee(t, srv, "Alice Chen", "alice@example.com")
		resp := do(t, srv, http.MethodPost, "/api/employees",
			api.CreateEmployeeRequest{Name: "Alice C", Email: "alice@example.com"}, nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("deleting a system type is 400", func(t *testing.T) {
		resp := do(t, srv, http.MethodDelete, "/api/types/"+hardwareTypeID(t, srv), nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
