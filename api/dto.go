/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in the domain services, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/asset-inventory/inventory"
	"github.com/warp/asset-inventory/registry"
)

// =============================================================================
// REGISTRY TYPES
// =============================================================================

// PropertyDefinitionDTO mirrors inventory.PropertyDefinition on the wire.
type PropertyDefinitionDTO struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	DataType    string `json:"dataType"`
	Description string `json:"description,omitempty"`
	Default     string `json:"defaultValue,omitempty"`
	Required    bool   `json:"isRequired,omitempty"`
	Unique      bool   `json:"isUnique,omitempty"`
}

// ResourceTypeDTO represents a resource type in API responses.
type ResourceTypeDTO struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Description         string   `json:"description,omitempty"`
	IsSystem            bool     `json:"isSystem"`
	MandatoryProperties []string `json:"mandatoryProperties"`
	CreatedAt           string   `json:"createdAt,omitempty"`
}

// CreateTypeRequest is the request to create a custom resource type.
type CreateTypeRequest struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	MandatoryProperties []string `json:"mandatoryProperties"`
}

// UpdateTypeRequest is a partial type update.
type UpdateTypeRequest struct {
	Name                *string  `json:"name"`
	Description         *string  `json:"description"`
	MandatoryProperties []string `json:"mandatoryProperties"`
}

// CategoryDTO represents a category in API responses.
type CategoryDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TypeID   string `json:"typeId"`
	IsSystem bool   `json:"isSystem"`
}

// CreateCategoryRequest is the request to create a category.
type CreateCategoryRequest struct {
	Name   string `json:"name"`
	TypeID string `json:"typeId"`
}

// RenameCategoryRequest renames a category.
type RenameCategoryRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// RESOURCE TYPES
// =============================================================================

// ResourceDTO represents a catalog resource in API responses.
type ResourceDTO struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	TypeID       string                  `json:"typeId"`
	CategoryID   string                  `json:"categoryId"`
	Schema       []PropertyDefinitionDTO `json:"schema"`
	SchemaLocked bool                    `json:"schemaLocked"`
	Quantity     int                     `json:"quantity"`
	Status       string                  `json:"status"`
	CreatedAt    string                  `json:"createdAt,omitempty"`
	UpdatedAt    string                  `json:"updatedAt,omitempty"`
}

// CreateResourceRequest is the request to create a resource.
type CreateResourceRequest struct {
	Name       string                  `json:"name"`
	TypeID     string                  `json:"typeId"`
	CategoryID string                  `json:"categoryId"`
	Schema     []PropertyDefinitionDTO `json:"schema"`
	Quantity   int                     `json:"quantity"`
}

// UpdateResourceRequest is a partial resource update. Nil fields are
// left untouched.
type UpdateResourceRequest struct {
	Name     *string                 `json:"name"`
	Schema   []PropertyDefinitionDTO `json:"schema"`
	Quantity *int                    `json:"quantity"`
	Status   *string                 `json:"status"`
}

// =============================================================================
// ITEM TYPES
// =============================================================================

// ItemDTO represents an item in API responses. Properties carry the
// raw JSON-friendly values.
type ItemDTO struct {
	ID         string         `json:"id"`
	ResourceID string         `json:"resourceId"`
	Status     string         `json:"status"`
	Properties map[string]any `json:"properties"`
	CreatedAt  string         `json:"createdAt,omitempty"`
	UpdatedAt  string         `json:"updatedAt,omitempty"`
}

// CreateItemRequest is the request to create an item.
type CreateItemRequest struct {
	Properties map[string]any `json:"properties"`
	Status     string         `json:"status,omitempty"`
}

// UpdateItemRequest is a partial item update.
type UpdateItemRequest struct {
	Properties map[string]any `json:"properties,omitempty"`
	Status     string         `json:"status,omitempty"`
}

// DeleteCheckDTO answers "can this item be deleted?".
type DeleteCheckDTO struct {
	CanDelete bool   `json:"canDelete"`
	Reason    string `json:"reason,omitempty"`
}

// =============================================================================
// ASSIGNMENT TYPES
// =============================================================================

// AssignmentDTO represents an assignment in API responses.
type AssignmentDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	ResourceID string `json:"resourceId"`
	ItemID     string `json:"itemId,omitempty"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	AssignedBy string `json:"assignedBy,omitempty"`
	Notes      string `json:"notes,omitempty"`
	AssignedAt string `json:"assignedAt"`
	ReturnedAt string `json:"returnedAt,omitempty"`
}

// CreateAssignmentRequest is the request to grant a resource.
type CreateAssignmentRequest struct {
	EmployeeID string `json:"employeeId"`
	ResourceID string `json:"resourceId"`
	ItemID     string `json:"itemId,omitempty"`
	Type       string `json:"type,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// ValidateAssignmentDTO is the dry-run answer for an assignment request.
type ValidateAssignmentDTO struct {
	Valid        bool   `json:"valid"`
	ResolvedType string `json:"resolvedType"`
	Reason       string `json:"reason,omitempty"`
}

// UpdateAssignmentStatusRequest moves an assignment through its
// lifecycle.
type UpdateAssignmentStatusRequest struct {
	Status string `json:"status"`
}

// RevokeAssignmentRequest ends an assignment early.
type RevokeAssignmentRequest struct {
	Reason string `json:"reason,omitempty"`
}

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the error envelope every failure returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toDefinitionDTO(d inventory.PropertyDefinition) PropertyDefinitionDTO {
	return PropertyDefinitionDTO{
		Key:         d.Key,
		Label:       d.Label,
		DataType:    string(d.DataType),
		Description: d.Description,
		Default:     d.Default,
		Required:    d.Required,
		Unique:      d.Unique,
	}
}

func fromDefinitionDTO(d PropertyDefinitionDTO) inventory.PropertyDefinition {
	return inventory.PropertyDefinition{
		Key:         d.Key,
		Label:       d.Label,
		DataType:    inventory.DataType(d.DataType),
		Description: d.Description,
		Default:     d.Default,
		Required:    d.Required,
		Unique:      d.Unique,
	}
}

func toSchemaDTO(s inventory.Schema) []PropertyDefinitionDTO {
	out := make([]PropertyDefinitionDTO, len(s))
	for i, d := range s {
		out[i] = toDefinitionDTO(d)
	}
	return out
}

func fromSchemaDTO(dtos []PropertyDefinitionDTO) inventory.Schema {
	if dtos == nil {
		return nil
	}
	out := make(inventory.Schema, len(dtos))
	for i, d := range dtos {
		out[i] = fromDefinitionDTO(d)
	}
	return out
}

func toTypeDTO(t registry.ResourceType) ResourceTypeDTO {
	return ResourceTypeDTO{
		ID:                  string(t.ID),
		Name:                t.Name,
		Description:         t.Description,
		IsSystem:            t.IsSystem,
		MandatoryProperties: t.MandatoryProperties,
		CreatedAt:           formatTime(t.CreatedAt),
	}
}

func toCategoryDTO(c registry.Category) CategoryDTO {
	return CategoryDTO{
		ID:       string(c.ID),
		Name:     c.Name,
		TypeID:   string(c.TypeID),
		IsSystem: c.IsSystem,
	}
}

func toResourceDTO(r inventory.Resource) ResourceDTO {
	return ResourceDTO{
		ID:           string(r.ID),
		Name:         r.Name,
		TypeID:       string(r.TypeID),
		CategoryID:   string(r.CategoryID),
		Schema:       toSchemaDTO(r.Schema),
		SchemaLocked: r.SchemaLocked,
		Quantity:     r.Quantity,
		Status:       string(r.Status),
		CreatedAt:    formatTime(r.CreatedAt),
		UpdatedAt:    formatTime(r.UpdatedAt),
	}
}

func toItemDTO(it inventory.Item) ItemDTO {
	return ItemDTO{
		ID:         string(it.ID),
		ResourceID: string(it.ResourceID),
		Status:     string(it.Status),
		Properties: it.Properties.Raw(),
		CreatedAt:  formatTime(it.CreatedAt),
		UpdatedAt:  formatTime(it.UpdatedAt),
	}
}

func toAssignmentDTO(a inventory.Assignment) AssignmentDTO {
	dto := AssignmentDTO{
		ID:         string(a.ID),
		EmployeeID: string(a.EmployeeID),
		ResourceID: string(a.ResourceID),
		ItemID:     string(a.ItemID),
		Type:       string(a.Type),
		Status:     string(a.Status),
		AssignedBy: string(a.AssignedBy),
		Notes:      a.Notes,
		AssignedAt: formatTime(a.AssignedAt),
	}
	if a.ReturnedAt != nil {
		dto.ReturnedAt = formatTime(*a.ReturnedAt)
	}
	return dto
}

func toEmployeeDTO(e inventory.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:        string(e.ID),
		Name:      e.Name,
		Email:     e.Email,
		CreatedAt: formatTime(e.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
