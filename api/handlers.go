/*
handlers.go - HTTP API handlers for the asset inventory service

PURPOSE:
  Exposes the inventory engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Registry:
    GET    /api/properties             List the property catalog
    POST   /api/properties             Register a property definition
    DELETE /api/properties/{key}       Remove a definition
    GET    /api/types                  List resource types
    POST   /api/types                  Create a custom type
    PUT    /api/types/{id}             Edit a type
    DELETE /api/types/{id}             Delete a custom type
    GET    /api/types/{id}/categories  List categories under a type
    POST   /api/categories             Create a category
    PUT    /api/categories/{id}        Rename a category
    DELETE /api/categories/{id}        Delete a category

  Resources:
    GET    /api/resources              List resources
    POST   /api/resources              Create a resource with its schema
    GET    /api/resources/{id}         Get resource details
    PUT    /api/resources/{id}         Edit a resource
    DELETE /api/resources/{id}         Delete an itemless resource
    GET    /api/resources/{id}/items       List items
    POST   /api/resources/{id}/items       Create an item (locks the schema)
    GET    /api/resources/{id}/assignments List assignments

  Items:
    GET    /api/items/{id}             Get item details
    PUT    /api/items/{id}             Edit properties/status
    DELETE /api/items/{id}             Delete an unassigned item
    GET    /api/items/{id}/can-delete  Deletability check

  Assignments:
    POST   /api/assignments            Grant a resource
    POST   /api/assignments/validate   Dry-run an assignment request
    GET    /api/assignments/{id}       Get assignment details
    PUT    /api/assignments/{id}/status Transition an assignment
    POST   /api/assignments/{id}/revoke Revoke (return) an assignment

  Employees:
    GET    /api/employees              List employees
    POST   /api/employees              Create an employee
    GET    /api/employees/{id}         Get employee details
    GET    /api/employees/{id}/assignments Assignment history

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicates, capacity, locked schema, references)
  - 422: Illegal lifecycle transition
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are
  public; the acting user is taken from the X-Actor-ID header.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/asset-inventory/employee"
	"github.com/warp/asset-inventory/inventory"
	"github.com/warp/asset-inventory/registry"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Resources   *inventory.ResourceService
	Items       *inventory.ItemService
	Assignments *inventory.AssignmentService
	Registry    *registry.Service
	Employees   *employee.Directory
	Log         *zap.Logger
}

// NewHandler creates a new handler with the given services.
func NewHandler(
	resources *inventory.ResourceService,
	items *inventory.ItemService,
	assignments *inventory.AssignmentService,
	reg *registry.Service,
	employees *employee.Directory,
	log *zap.Logger,
) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Resources:   resources,
		Items:       items,
		Assignments: assignments,
		Registry:    reg,
		Employees:   employees,
		Log:         log,
	}
}

// actor extracts the acting user from the request.
func actor(r *http.Request) string {
	return r.Header.Get("X-Actor-ID")
}

// =============================================================================
// PROPERTY CATALOG HANDLERS
// =============================================================================

// ListProperties returns the property catalog.
// GET /api/properties
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	defs, err := h.Registry.ListDefinitions(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list properties", err)
		return
	}
	dtos := make([]PropertyDefinitionDTO, len(defs))
	for i, d := range defs {
		dtos[i] = toDefinitionDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RegisterProperty adds or replaces a catalog definition.
// POST /api/properties
func (h *Handler) RegisterProperty(w http.ResponseWriter, r *http.Request) {
	var req PropertyDefinitionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Registry.RegisterDefinition(r.Context(), fromDefinitionDTO(req), actor(r)); err != nil {
		h.writeDomainError(w, "Failed to register property", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// DeleteProperty removes a catalog definition.
// DELETE /api/properties/{key}
func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := h.Registry.DeleteDefinition(r.Context(), key, actor(r)); err != nil {
		h.writeDomainError(w, "Failed to delete property", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESOURCE TYPE HANDLERS
// =============================================================================

// ListTypes returns all resource types.
// GET /api/types
func (h *Handler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Registry.ListTypes(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list types", err)
		return
	}
	dtos := make([]ResourceTypeDTO, len(types))
	for i, t := range types {
		dtos[i] = toTypeDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateType creates a custom resource type.
// POST /api/types
func (h *Handler) CreateType(w http.ResponseWriter, r *http.Request) {
	var req CreateTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	t, err := h.Registry.CreateType(r.Context(), req.Name, req.Description, req.MandatoryProperties, actor(r))
	if err != nil {
		h.writeDomainError(w, "Failed to create type", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTypeDTO(*t))
}

// UpdateType edits a resource type.
// PUT /api/types/{id}
func (h *Handler) UpdateType(w http.ResponseWriter, r *http.Request) {
	var req UpdateTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	t, err := h.Registry.UpdateType(r.Context(), inventory.TypeID(chi.URLParam(r, "id")), registry.UpdateTypeInput{
		Name:        req.Name,
		Description: req.Description,
		Mandatory:   req.MandatoryProperties,
		ActorID:     actor(r),
	})
	if err != nil {
		h.writeDomainError(w, "Failed to update type", err)
		return
	}
	writeJSON(w, http.StatusOK, toTypeDTO(*t))
}

// DeleteType deletes a custom resource type.
// DELETE /api/types/{id}
func (h *Handler) DeleteType(w http.ResponseWriter, r *http.Request) {
	err := h.Registry.DeleteType(r.Context(), inventory.TypeID(chi.URLParam(r, "id")), actor(r))
	if err != nil {
		h.writeDomainError(w, "Failed to delete type", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTypeCategories returns the categories under a type.
// GET /api/types/{id}/categories
func (h *Handler) ListTypeCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Registry.ListCategories(r.Context(), inventory.TypeID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Failed to list categories", err)
		return
	}
	dtos := make([]CategoryDTO, len(cats))
	for i, c := range cats {
		dtos[i] = toCategoryDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

// CreateCategory creates a category under a type.
// POST /api/categories
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	c, err := h.Registry.CreateCategory(r.Context(), req.Name, inventory.TypeID(req.TypeID), actor(r))
	if err != nil {
		h.writeDomainError(w, "Failed to create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(*c))
}

// RenameCategory renames a category.
// PUT /api/categories/{id}
func (h *Handler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	var req RenameCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	c, err := h.Registry.RenameCategory(r.Context(), inventory.CategoryID(chi.URLParam(r, "id")), req.Name, actor(r))
	if err != nil {
		h.writeDomainError(w, "Failed to rename category", err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(*c))
}

// DeleteCategory deletes a category.
// DELETE /api/categories/{id}
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	err := h.Registry.DeleteCategory(r.Context(), inventory.CategoryID(chi.URLParam(r, "id")), actor(r))
	if err != nil {
		h.writeDomainError(w, "Failed to delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESOURCE HANDLERS
// =============================================================================

// ListResources returns all catalog resources.
// GET /api/resources
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.Resources.List(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list resources", err)
		return
	}
	dtos := make([]ResourceDTO, len(resources))
	for i, res := range resources {
		dtos[i] = toResourceDTO(res)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateResource creates a resource with its selected schema.
// POST /api/resources
func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req CreateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	res, err := h.Resources.Create(r.Context(), inventory.CreateResourceInput{
		Name:       req.Name,
		TypeID:     inventory.TypeID(req.TypeID),
		CategoryID: inventory.CategoryID(req.CategoryID),
		Schema:     fromSchemaDTO(req.Schema),
		Quantity:   req.Quantity,
		ActorID:    actor(r),
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create resource", err)
		return
	}
	writeJSON(w, http.StatusCreated, toResourceDTO(*res))
}

// GetResource returns one resource.
// GET /api/resources/{id}
func (h *Handler) GetResource(w http.ResponseWriter, r *http.Request) {
	res, err := h.Resources.Get(r.Context(), inventory.ResourceID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Failed to get resource", err)
		return
	}
	writeJSON(w, http.StatusOK, toResourceDTO(*res))
}

// UpdateResource applies partial edits, honoring the schema lock.
// PUT /api/resources/{id}
func (h *Handler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	var req UpdateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	in := inventory.UpdateResourceInput{
		Name:     req.Name,
		Schema:   fromSchemaDTO(req.Schema),
		Quantity: req.Quantity,
		ActorID:  actor(r),
	}
	if req.Status != nil {
		status := inventory.ResourceStatus(*req.Status)
		in.Status = &status
	}
	res, err := h.Resources.Update(r.Context(), inventory.ResourceID(chi.URLParam(r, "id")), in)
	if err != nil {
		h.writeDomainError(w, "Failed to update resource", err)
		return
	}
	writeJSON(w, http.StatusOK, toResourceDTO(*res))
}

// DeleteResource removes an itemless resource.
// DELETE /api/resources/{id}
func (h *Handler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	err := h.Resources.Delete(r.Context(), inventory.ResourceID(chi.URLParam(r, "id")), actor(r))
	if err != nil {
		h.writeDomainError(w, "Failed to delete resource", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListResourceAssignments returns every assignment on a resource.
// GET /api/resources/{id}/assignments
func (h *Handler) ListResourceAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.Assignments.ListByResource(r.Context(), inventory.ResourceID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Failed to list assignments", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTOs(assignments))
}

// =============================================================================
// ITEM HANDLERS
// =============================================================================

// ListItems returns the items of a resource.
// GET /api/resources/{id}/items
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Items.ListByResource(r.Context(), inventory.ResourceID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Failed to list items", err)
		return
	}
	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = toItemDTO(it)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateItem creates an item under a resource. The first item locks
// the resource's schema.
// POST /api/resources/{id}/items
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	it, err := h.Items.Create(r.Context(),
		inventory.ResourceID(chi.URLParam(r, "id")),
		req.Properties, inventory.ItemStatus(req.Status), actor(r))
	if err != nil {
		h.writeDomainError(w, "Failed to create item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemDTO(*it))
}

// GetItem returns one item.
// GET /api/items/{id}
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.Items.Get(r.Context(), inventory.ItemID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Failed to get item", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(*it))
}

// UpdateItem edits item properties and/or status.
// PUT /api/items/{id}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	it, err := h.Items.Update(r.Context(), inventory.ItemID(chi.URLParam(r, "id")), inventory.UpdateItemInput{
		Properties: req.Properties,
		Status:     inventory.ItemStatus(req.Status),
		ActorID:    actor(r),
	})
	if err != nil {
		h.writeDomainError(w, "Failed to update item", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(*it))
}

// DeleteItem removes an item with no active assignment.
// DELETE /api/items/{id}
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	err := h.Items.Delete(r.Context(), inventory.ItemID(chi.URLParam(r, "id")), actor(r))
	if err != nil {
		h.writeDomainError(w, "Failed to delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CanDeleteItem answers the deletability check without deleting.
// GET /api/items/{id}/can-delete
func (h *Handler) CanDeleteItem(w http.ResponseWriter, r *http.Request) {
	check, err := h.Items.CanDelete(r.Context(), inventory.ItemID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Failed to check item", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteCheckDTO{CanDelete: check.CanDelete, Reason: check.Reason})
}

// =============================================================================
// ASSIGNMENT HANDLERS
// =============================================================================

// CreateAssignment grants a resource (or a specific item) to an
// employee.
// POST /api/assignments
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	a, err := h.Assignments.Create(r.Context(), inventory.AssignmentRequest{
		EmployeeID: inventory.EmployeeID(req.EmployeeID),
		ResourceID: inventory.ResourceID(req.ResourceID),
		ItemID:     inventory.ItemID(req.ItemID),
		Type:       inventory.AssignmentType(req.Type),
		Notes:      req.Notes,
	}, actor(r))
	if err != nil {
		h.writeDomainError(w, "Failed to create assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentDTO(*a))
}

// ValidateAssignment dry-runs an assignment request.
// POST /api/assignments/validate
func (h *Handler) ValidateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	outcome, err := h.Assignments.Validate(r.Context(), inventory.AssignmentRequest{
		EmployeeID: inventory.EmployeeID(req.EmployeeID),
		ResourceID: inventory.ResourceID(req.ResourceID),
		ItemID:     inventory.ItemID(req.ItemID),
		Type:       inventory.AssignmentType(req.Type),
	})
	if err != nil {
		h.writeDomainError(w, "Failed to validate assignment", err)
		return
	}
	dto := ValidateAssignmentDTO{
		Valid:        outcome.Valid,
		ResolvedType: string(outcome.ResolvedType),
	}
	if outcome.Err != nil {
		dto.Reason = outcome.Err.Error()
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetAssignment returns one assignment.
// GET /api/assignments/{id}
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := h.Assignments.Get(r.Context(), inventory.AssignmentID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Failed to get assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(*a))
}

// UpdateAssignmentStatus transitions an assignment. Item status follows
// for item-bound assignments.
// PUT /api/assignments/{id}/status
func (h *Handler) UpdateAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateAssignmentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	a, err := h.Assignments.UpdateStatus(r.Context(),
		inventory.AssignmentID(chi.URLParam(r, "id")),
		inventory.AssignmentStatus(req.Status), actor(r))
	if err != nil {
		h.writeDomainError(w, "Failed to update assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(*a))
}

// RevokeAssignment ends an assignment, returning the item to the pool.
// POST /api/assignments/{id}/revoke
func (h *Handler) RevokeAssignment(w http.ResponseWriter, r *http.Request) {
	var req RevokeAssignmentRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	a, err := h.Assignments.Revoke(r.Context(),
		inventory.AssignmentID(chi.URLParam(r, "id")), actor(r), req.Reason)
	if err != nil {
		h.writeDomainError(w, "Failed to revoke assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(*a))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the roster.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.List(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee registers an employee.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	e, err := h.Employees.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		h.writeDomainError(w, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(*e))
}

// GetEmployee returns one employee.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.Employees.Get(r.Context(), inventory.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*e))
}

// ListEmployeeAssignments returns an employee's assignment history.
// GET /api/employees/{id}/assignments
func (h *Handler) ListEmployeeAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.Assignments.ListByEmployee(r.Context(), inventory.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Failed to list assignments", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTOs(assignments))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func toAssignmentDTOs(assignments []inventory.Assignment) []AssignmentDTO {
	dtos := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = toAssignmentDTO(a)
	}
	return dtos
}

// writeDomainError maps domain errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case inventory.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, inventory.ErrStateTransition):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, inventory.ErrSchemaLocked), inventory.IsConflict(err):
		status = http.StatusConflict
	case errors.Is(err, inventory.ErrValidation), errors.Is(err, inventory.ErrInactiveResource):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.Log.Error("request failed", zap.String("message", message), zap.Error(err))
	}

	resp := ErrorResponse{Error: message, Details: err.Error()}
	var vErr *inventory.ValidationError
	if errors.As(err, &vErr) {
		resp.Code = vErr.Code
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
