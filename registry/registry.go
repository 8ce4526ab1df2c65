/*
Package registry manages the classification side of the catalog: the
reusable property catalog, the top-level resource types, and the
categories scoped under them.

KEY CONCEPTS:
  PropertyDefinition (catalog): Reusable property templates resources
    pick their schemas from. Keys are unique across the catalog.
  ResourceType: Top-level classification (Hardware, Software, Cloud,
    or custom) carrying the set of property keys every item of that
    type MUST provide.
  Category: Sub-classification scoped to exactly one type; names are
    unique within the type.

SYSTEM vs CUSTOM:
  Hardware, Software, and Cloud are seeded system types. Their
  mandatory-property sets can grow but never shrink below the seeded
  defaults, and they cannot be renamed or deleted. Custom types may
  declare any mandatory set but must keep at least one key. System
  categories are immutable and non-deletable.

REFERENTIAL INTEGRITY:
  Deleting a type is blocked while any category or resource references
  it; deleting a category is blocked while any resource references it.
  Blocked deletes report the dependent entity and count.
*/
package registry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/warp/asset-inventory/inventory"
)

// =============================================================================
// TYPES
// =============================================================================

// ResourceType is a top-level classification.
type ResourceType struct {
	ID          inventory.TypeID
	Name        string
	Description string
	IsSystem    bool

	// MandatoryProperties lists catalog keys every item of this type
	// must carry with a non-empty value.
	MandatoryProperties []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Category is a sub-classification under exactly one type.
type Category struct {
	ID        inventory.CategoryID
	Name      string
	TypeID    inventory.TypeID
	IsSystem  bool
	CreatedAt time.Time
}

// Store persists the catalog, types, and categories.
// Get* methods return (nil, nil) when the record does not exist.
type Store interface {
	GetDefinition(ctx context.Context, key string) (*inventory.PropertyDefinition, error)
	ListDefinitions(ctx context.Context) ([]inventory.PropertyDefinition, error)
	SaveDefinition(ctx context.Context, def inventory.PropertyDefinition) error
	DeleteDefinition(ctx context.Context, key string) error

	GetType(ctx context.Context, id inventory.TypeID) (*ResourceType, error)
	GetTypeByName(ctx context.Context, name string) (*ResourceType, error)
	ListTypes(ctx context.Context) ([]ResourceType, error)
	SaveType(ctx context.Context, t ResourceType) error
	DeleteType(ctx context.Context, id inventory.TypeID) error

	GetCategory(ctx context.Context, id inventory.CategoryID) (*Category, error)
	ListCategoriesByType(ctx context.Context, typeID inventory.TypeID) ([]Category, error)
	SaveCategory(ctx context.Context, c Category) error
	DeleteCategory(ctx context.Context, id inventory.CategoryID) error
	CountCategoriesByType(ctx context.Context, typeID inventory.TypeID) (int, error)
}

// UsageCounter reports how many resources reference a type or category.
// Implemented by the resource store.
type UsageCounter interface {
	ResourceCountByType(ctx context.Context, typeID inventory.TypeID) (int, error)
	ResourceCountByCategory(ctx context.Context, categoryID inventory.CategoryID) (int, error)
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Store    Store
	Usage    UsageCounter
	Recorder inventory.Recorder
	Log      *zap.Logger
}

func NewService(store Store, usage UsageCounter, rec inventory.Recorder, log *zap.Logger) *Service {
	if rec == nil {
		rec = inventory.NopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Store: store, Usage: usage, Recorder: rec, Log: log}
}

// defaultMandatory is the floor for system type mandatory sets.
var defaultMandatory = map[string][]string{
	inventory.TypeHardware: {"serialNumber", "warrantyExpiry"},
	inventory.TypeSoftware: {"licenseKey"},
	inventory.TypeCloud:    {"maxUsers"},
}

// =============================================================================
// PROPERTY CATALOG
// =============================================================================

// RegisterDefinition adds or replaces a reusable property definition.
func (s *Service) RegisterDefinition(ctx context.Context, def inventory.PropertyDefinition, actorID string) error {
	if def.Key == "" {
		return &inventory.ValidationError{Code: inventory.CodeEmptySchema, Message: "property key is required"}
	}
	switch def.DataType {
	case inventory.DataTypeString, inventory.DataTypeNumber, inventory.DataTypeBoolean, inventory.DataTypeDate:
	default:
		return &inventory.ValidationError{Code: inventory.CodeUnknownDataType, Message: fmt.Sprintf("property %q has unknown data type %q", def.Key, def.DataType)}
	}
	if err := s.Store.SaveDefinition(ctx, def); err != nil {
		return fmt.Errorf("saving property definition: %w", err)
	}
	s.Recorder.Change(ctx, inventory.Change{EntityType: "property", EntityID: def.Key, ActorID: actorID, Field: "registered"})
	return nil
}

// DeleteDefinition removes a catalog entry unless some type still lists
// it as mandatory.
func (s *Service) DeleteDefinition(ctx context.Context, key, actorID string) error {
	def, err := s.Store.GetDefinition(ctx, key)
	if err != nil {
		return err
	}
	if def == nil {
		return &inventory.NotFoundError{Entity: "property", ID: key}
	}
	types, err := s.Store.ListTypes(ctx)
	if err != nil {
		return err
	}
	users := 0
	for _, t := range types {
		for _, k := range t.MandatoryProperties {
			if k == key {
				users++
				break
			}
		}
	}
	if users > 0 {
		return &inventory.ReferentialIntegrityError{Entity: "property", ID: key, BlockedBy: "resource types", Count: users}
	}
	if err := s.Store.DeleteDefinition(ctx, key); err != nil {
		return err
	}
	s.Recorder.Change(ctx, inventory.Change{EntityType: "property", EntityID: key, ActorID: actorID, Field: "deleted"})
	return nil
}

// ListDefinitions returns the full property catalog.
func (s *Service) ListDefinitions(ctx context.Context) ([]inventory.PropertyDefinition, error) {
	return s.Store.ListDefinitions(ctx)
}

// =============================================================================
// RESOURCE TYPES
// =============================================================================

// CreateType registers a custom type. At least one mandatory property
// is required and every mandatory key must exist in the catalog.
func (s *Service) CreateType(ctx context.Context, name, description string, mandatory []string, actorID string) (*ResourceType, error) {
	if name == "" {
		return nil, &inventory.ValidationError{Code: inventory.CodeSchemaViolation, Message: "type name is required"}
	}
	if len(mandatory) == 0 {
		return nil, &inventory.ValidationError{Code: inventory.CodeMissingMandatory, Message: "a type must declare at least one mandatory property"}
	}
	if existing, err := s.Store.GetTypeByName(ctx, name); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, &inventory.ReferentialIntegrityError{Entity: "resource type", ID: name, BlockedBy: "existing type with that name", Count: 1}
	}
	if err := s.checkCatalogKeys(ctx, mandatory); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := ResourceType{
		ID:                  inventory.TypeID(inventory.NewID()),
		Name:                name,
		Description:         description,
		MandatoryProperties: mandatory,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.Store.SaveType(ctx, t); err != nil {
		return nil, fmt.Errorf("saving resource type: %w", err)
	}
	s.Recorder.Change(ctx, inventory.Change{EntityType: "resourceType", EntityID: string(t.ID), ActorID: actorID, Field: "created"})
	return &t, nil
}

// UpdateTypeInput is a partial type update.
type UpdateTypeInput struct {
	Name        *string
	Description *string
	Mandatory   []string // nil = unchanged
	ActorID     string
}

// UpdateType edits a type. System types keep their name and never
// shrink their mandatory set below the seeded defaults; custom types
// keep at least one mandatory key.
func (s *Service) UpdateType(ctx context.Context, id inventory.TypeID, in UpdateTypeInput) (*ResourceType, error) {
	t, err := s.Store.GetType(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &inventory.NotFoundError{Entity: "resource type", ID: string(id)}
	}

	if in.Name != nil && *in.Name != t.Name {
		if t.IsSystem {
			return nil, &inventory.ValidationError{Code: inventory.CodeSchemaViolation, Message: "system types cannot be renamed"}
		}
		t.Name = *in.Name
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Mandatory != nil {
		if len(in.Mandatory) == 0 {
			return nil, &inventory.ValidationError{Code: inventory.CodeMissingMandatory, Message: "a type must declare at least one mandatory property"}
		}
		if t.IsSystem {
			for _, required := range defaultMandatory[t.Name] {
				if !containsKey(in.Mandatory, required) {
					return nil, &inventory.ValidationError{
						Code:    inventory.CodeMissingMandatory,
						Message: fmt.Sprintf("system type %s must keep mandatory property %q", t.Name, required),
					}
				}
			}
		}
		if err := s.checkCatalogKeys(ctx, in.Mandatory); err != nil {
			return nil, err
		}
		s.Recorder.Change(ctx, inventory.Change{
			EntityType: "resourceType", EntityID: string(id), ActorID: in.ActorID,
			Field: "mandatoryProperties", OldValue: t.MandatoryProperties, NewValue: in.Mandatory,
		})
		t.MandatoryProperties = in.Mandatory
	}

	t.UpdatedAt = time.Now().UTC()
	if err := s.Store.SaveType(ctx, *t); err != nil {
		return nil, fmt.Errorf("saving resource type: %w", err)
	}
	return t, nil
}

// DeleteType removes a custom type with no dependents.
func (s *Service) DeleteType(ctx context.Context, id inventory.TypeID, actorID string) error {
	t, err := s.Store.GetType(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return &inventory.NotFoundError{Entity: "resource type", ID: string(id)}
	}
	if t.IsSystem {
		return &inventory.ValidationError{Code: inventory.CodeSchemaViolation, Message: "system types cannot be deleted"}
	}
	if count, err := s.Store.CountCategoriesByType(ctx, id); err != nil {
		return err
	} else if count > 0 {
		return &inventory.ReferentialIntegrityError{Entity: "resource type", ID: t.Name, BlockedBy: "categories", Count: count}
	}
	if count, err := s.Usage.ResourceCountByType(ctx, id); err != nil {
		return err
	} else if count > 0 {
		return &inventory.ReferentialIntegrityError{Entity: "resource type", ID: t.Name, BlockedBy: "resources", Count: count}
	}
	if err := s.Store.DeleteType(ctx, id); err != nil {
		return err
	}
	s.Recorder.Change(ctx, inventory.Change{EntityType: "resourceType", EntityID: string(id), ActorID: actorID, Field: "deleted"})
	return nil
}

// GetType loads a type or returns NotFoundError.
func (s *Service) GetType(ctx context.Context, id inventory.TypeID) (*ResourceType, error) {
	t, err := s.Store.GetType(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &inventory.NotFoundError{Entity: "resource type", ID: string(id)}
	}
	return t, nil
}

// ListTypes returns all types.
func (s *Service) ListTypes(ctx context.Context) ([]ResourceType, error) {
	return s.Store.ListTypes(ctx)
}

// =============================================================================
// CATEGORIES
// =============================================================================

// CreateCategory adds a category under a type. Names are unique within
// the type.
func (s *Service) CreateCategory(ctx context.Context, name string, typeID inventory.TypeID, actorID string) (*Category, error) {
	if name == "" {
		return nil, &inventory.ValidationError{Code: inventory.CodeSchemaViolation, Message: "category name is required"}
	}
	t, err := s.Store.GetType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &inventory.NotFoundError{Entity: "resource type", ID: string(typeID)}
	}
	siblings, err := s.Store.ListCategoriesByType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	for _, c := range siblings {
		if c.Name == name {
			return nil, &inventory.ReferentialIntegrityError{Entity: "category", ID: name, BlockedBy: "existing category with that name", Count: 1}
		}
	}

	c := Category{
		ID:        inventory.CategoryID(inventory.NewID()),
		Name:      name,
		TypeID:    typeID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.SaveCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("saving category: %w", err)
	}
	s.Recorder.Change(ctx, inventory.Change{EntityType: "category", EntityID: string(c.ID), ActorID: actorID, Field: "created"})
	return &c, nil
}

// RenameCategory renames a non-system category.
func (s *Service) RenameCategory(ctx context.Context, id inventory.CategoryID, name, actorID string) (*Category, error) {
	c, err := s.Store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &inventory.NotFoundError{Entity: "category", ID: string(id)}
	}
	if c.IsSystem {
		return nil, &inventory.ValidationError{Code: inventory.CodeSchemaViolation, Message: "system categories are immutable"}
	}
	old := c.Name
	c.Name = name
	if err := s.Store.SaveCategory(ctx, *c); err != nil {
		return nil, err
	}
	s.Recorder.Change(ctx, inventory.Change{
		EntityType: "category", EntityID: string(id), ActorID: actorID,
		Field: "name", OldValue: old, NewValue: name,
	})
	return c, nil
}

// DeleteCategory removes a non-system category with no resources.
func (s *Service) DeleteCategory(ctx context.Context, id inventory.CategoryID, actorID string) error {
	c, err := s.Store.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return &inventory.NotFoundError{Entity: "category", ID: string(id)}
	}
	if c.IsSystem {
		return &inventory.ValidationError{Code: inventory.CodeSchemaViolation, Message: "system categories cannot be deleted"}
	}
	if count, err := s.Usage.ResourceCountByCategory(ctx, id); err != nil {
		return err
	} else if count > 0 {
		return &inventory.ReferentialIntegrityError{Entity: "category", ID: c.Name, BlockedBy: "resources", Count: count}
	}
	if err := s.Store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.Recorder.Change(ctx, inventory.Change{EntityType: "category", EntityID: string(id), ActorID: actorID, Field: "deleted"})
	return nil
}

// ListCategories returns the categories under a type.
func (s *Service) ListCategories(ctx context.Context, typeID inventory.TypeID) ([]Category, error) {
	return s.Store.ListCategoriesByType(ctx, typeID)
}

// =============================================================================
// TYPE DIRECTORY (consumed by the inventory services)
// =============================================================================

// TypeName implements inventory.TypeDirectory.
func (s *Service) TypeName(ctx context.Context, id inventory.TypeID) (string, error) {
	t, err := s.Store.GetType(ctx, id)
	if err != nil {
		return "", err
	}
	if t == nil {
		return "", &inventory.NotFoundError{Entity: "resource type", ID: string(id)}
	}
	return t.Name, nil
}

// MandatoryKeys implements inventory.TypeDirectory.
func (s *Service) MandatoryKeys(ctx context.Context, id inventory.TypeID) ([]string, error) {
	t, err := s.Store.GetType(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &inventory.NotFoundError{Entity: "resource type", ID: string(id)}
	}
	return t.MandatoryProperties, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Service) checkCatalogKeys(ctx context.Context, keys []string) error {
	var missing []string
	for _, key := range keys {
		def, err := s.Store.GetDefinition(ctx, key)
		if err != nil {
			return err
		}
		if def == nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &inventory.ValidationError{
			Code:        inventory.CodeSchemaViolation,
			Message:     "mandatory keys not in the property catalog",
			MissingKeys: missing,
		}
	}
	return nil
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
