/*
Package inventory provides the core asset catalog engine.

PURPOSE:
  This package contains the domain types and services for tracking
  catalog resources (hardware models, software licenses, cloud
  entitlements), the concrete items that belong to them, and the
  assignments that bind items or resources to employees.

KEY CONCEPTS IN THIS FILE (types.go):
  - PropertyValue: A closed, kind-tagged value (string/number/bool/date)
  - PropertyDefinition / Schema: What properties a resource declares
  - Resource: A catalog entry with a lockable property schema
  - Item: A concrete, individually tracked unit of a resource
  - Assignment: The binding of an employee to a resource or item

DESIGN PRINCIPLES:
  1. Closed schemas: Items carry exactly the keys their resource declares
  2. One-way locking: A resource's schema freezes on its first item
  3. Precision: Uses decimal.Decimal for numeric property values
  4. Explicit state machines: Item and assignment transitions are
     table-driven and checked on every status change

SEE ALSO:
  - schema.go: Property validation against a schema
  - item.go: Item lifecycle service
  - assignment.go: Assignment lifecycle service and policies
*/
package inventory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ResourceID string
type ItemID string
type AssignmentID string
type EmployeeID string
type TypeID string
type CategoryID string

// NewID returns a fresh random identifier.
func NewID() string { return uuid.NewString() }

// =============================================================================
// PROPERTY VALUES - Closed sum type over the supported data types
// =============================================================================

type DataType string

const (
	DataTypeString  DataType = "STRING"
	DataTypeNumber  DataType = "NUMBER"
	DataTypeBoolean DataType = "BOOLEAN"
	DataTypeDate    DataType = "DATE"
)

// PropertyValue is a validated, kind-tagged property value. Values are
// produced by ParsePropertyValue at the boundary; the engine never carries
// untyped maps internally.
type PropertyValue struct {
	Kind DataType
	Str  string
	Num  decimal.Decimal
	Bool bool
	Date time.Time
}

func StringValue(s string) PropertyValue {
	return PropertyValue{Kind: DataTypeString, Str: s}
}

func NumberValue(d decimal.Decimal) PropertyValue {
	return PropertyValue{Kind: DataTypeNumber, Num: d}
}

func BoolValue(b bool) PropertyValue {
	return PropertyValue{Kind: DataTypeBoolean, Bool: b}
}

func DateValue(t time.Time) PropertyValue {
	return PropertyValue{Kind: DataTypeDate, Date: t.UTC()}
}

// Raw returns the native Go representation, suitable for JSON responses.
func (v PropertyValue) Raw() any {
	switch v.Kind {
	case DataTypeString:
		return v.Str
	case DataTypeNumber:
		return v.Num
	case DataTypeBoolean:
		return v.Bool
	case DataTypeDate:
		return v.Date.Format("2006-01-02")
	}
	return nil
}

// Canonical returns the stable string form used for uniqueness checks
// (e.g. serial numbers) and for the legacy column mirror.
func (v PropertyValue) Canonical() string {
	switch v.Kind {
	case DataTypeString:
		return v.Str
	case DataTypeNumber:
		return v.Num.String()
	case DataTypeBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case DataTypeDate:
		return v.Date.Format("2006-01-02")
	}
	return ""
}

// IsEmpty reports whether the value counts as "absent" for required and
// mandatory property checks. Only empty strings qualify; a zero number
// or false boolean is a real value.
func (v PropertyValue) IsEmpty() bool {
	return v.Kind == DataTypeString && v.Str == ""
}

func (v PropertyValue) Equal(o PropertyValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case DataTypeString:
		return v.Str == o.Str
	case DataTypeNumber:
		return v.Num.Equal(o.Num)
	case DataTypeBoolean:
		return v.Bool == o.Bool
	case DataTypeDate:
		return v.Date.Equal(o.Date)
	}
	return false
}

func (v PropertyValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

// PropertyMap holds an item's validated properties keyed by schema key.
type PropertyMap map[string]PropertyValue

// Raw converts the map back to native values for serialization.
func (m PropertyMap) Raw() map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v.Raw()
	}
	return out
}

// =============================================================================
// SCHEMA - Ordered property definitions selected by a resource
// =============================================================================

// PropertyDefinition declares one property a resource's items carry.
// Definitions are immutable once part of a locked schema.
type PropertyDefinition struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	DataType    DataType `json:"dataType"`
	Description string   `json:"description,omitempty"`
	Default     string   `json:"defaultValue,omitempty"`
	Required    bool     `json:"isRequired,omitempty"`
	// Unique marks values that must be globally unique across all items
	// (e.g. serial numbers).
	Unique bool `json:"isUnique,omitempty"`
}

// Schema is the ordered list of property definitions a resource selected.
type Schema []PropertyDefinition

// Keys returns the schema's keys in declaration order.
func (s Schema) Keys() []string {
	keys := make([]string, len(s))
	for i, d := range s {
		keys[i] = d.Key
	}
	return keys
}

// Definition returns the definition for key, or nil if the schema does
// not declare it.
func (s Schema) Definition(key string) *PropertyDefinition {
	for i := range s {
		if s[i].Key == key {
			return &s[i]
		}
	}
	return nil
}

// Equal reports whether two schemas are identical: same definitions in
// the same order. Used to tolerate no-op schema updates on locked
// resources.
func (s Schema) Equal(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Check verifies the structural invariants: at least one property and
// no duplicate keys.
func (s Schema) Check() error {
	if len(s) == 0 {
		return &ValidationError{Code: CodeEmptySchema, Message: "schema must declare at least one property"}
	}
	seen := make(map[string]bool, len(s))
	for _, d := range s {
		if d.Key == "" {
			return &ValidationError{Code: CodeEmptySchema, Message: "schema property with empty key"}
		}
		if seen[d.Key] {
			return &ValidationError{Code: CodeDuplicateKey, Message: fmt.Sprintf("duplicate schema key %q", d.Key)}
		}
		seen[d.Key] = true
		switch d.DataType {
		case DataTypeString, DataTypeNumber, DataTypeBoolean, DataTypeDate:
		default:
			return &ValidationError{Code: CodeUnknownDataType, Message: fmt.Sprintf("property %q has unknown data type %q", d.Key, d.DataType)}
		}
	}
	return nil
}

// =============================================================================
// RESOURCE - A catalog entry (class of asset)
// =============================================================================

type ResourceStatus string

const (
	ResourceActive   ResourceStatus = "ACTIVE"
	ResourceInactive ResourceStatus = "INACTIVE"
	ResourceRetired  ResourceStatus = "RETIRED"
)

type Resource struct {
	ID         ResourceID
	Name       string
	TypeID     TypeID
	CategoryID CategoryID
	Schema     Schema

	// SchemaLocked flips to true when the first item is created and
	// never reverts.
	SchemaLocked bool

	// Quantity is the pool size; meaningful only for pooled/shared
	// assignment models.
	Quantity int

	Status    ResourceStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// ITEM - A concrete, serial-tracked unit of a resource
// =============================================================================

type ItemStatus string

const (
	ItemAvailable   ItemStatus = "AVAILABLE"
	ItemAssigned    ItemStatus = "ASSIGNED"
	ItemMaintenance ItemStatus = "MAINTENANCE"
	ItemLost        ItemStatus = "LOST"
	ItemDamaged     ItemStatus = "DAMAGED"
)

type Item struct {
	ID         ItemID
	ResourceID ResourceID
	Status     ItemStatus
	Properties PropertyMap
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// itemTransitions enumerates the legal item status moves.
// AVAILABLE -> ASSIGNED is reserved for the assignment service; manual
// edits may not claim an item. DAMAGED -> AVAILABLE covers the
// repaired-then-returned path.
var itemTransitions = map[ItemStatus][]ItemStatus{
	ItemAvailable:   {ItemAssigned, ItemMaintenance, ItemLost, ItemDamaged},
	ItemMaintenance: {ItemAvailable, ItemLost, ItemDamaged},
	ItemAssigned:    {ItemAvailable, ItemLost, ItemDamaged},
	ItemDamaged:     {ItemAvailable, ItemLost},
	ItemLost:        {ItemDamaged},
}

// CanTransitionItem reports whether an item may move from -> to.
// A no-op (from == to) is always permitted; callers treat it as
// "leave the item unchanged".
func CanTransitionItem(from, to ItemStatus) bool {
	if from == to {
		return true
	}
	for _, s := range itemTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// =============================================================================
// ASSIGNMENT - Employee <-> resource/item binding
// =============================================================================

type AssignmentType string

const (
	AssignIndividual AssignmentType = "INDIVIDUAL"
	AssignPooled     AssignmentType = "POOLED"
	AssignShared     AssignmentType = "SHARED"
)

type AssignmentStatus string

const (
	AssignmentActive   AssignmentStatus = "ACTIVE"
	AssignmentReturned AssignmentStatus = "RETURNED"
	AssignmentLost     AssignmentStatus = "LOST"
	AssignmentDamaged  AssignmentStatus = "DAMAGED"
)

type Assignment struct {
	ID         AssignmentID
	EmployeeID EmployeeID
	ResourceID ResourceID

	// ItemID is set for item-bound assignments (exclusive hardware,
	// item-bound software) and empty for pooled/shared resource-level
	// grants.
	ItemID ItemID

	Type   AssignmentType
	Status AssignmentStatus

	AssignedBy EmployeeID
	Notes      string

	AssignedAt time.Time
	ReturnedAt *time.Time
	UpdatedAt  time.Time
}

// ItemBound reports whether the assignment claims a specific item.
func (a Assignment) ItemBound() bool { return a.ItemID != "" }

// assignmentTransitions: ACTIVE is the only initial state; RETURNED and
// LOST are terminal; DAMAGED may still be returned after repair.
var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentActive:  {AssignmentReturned, AssignmentLost, AssignmentDamaged},
	AssignmentDamaged: {AssignmentReturned},
}

// CanTransitionAssignment reports whether an assignment may move
// from -> to. Unlike items, assignment no-ops are NOT tolerated: the
// caller asked for a state change and must get an error if none is legal.
func CanTransitionAssignment(from, to AssignmentStatus) bool {
	for _, s := range assignmentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// itemStatusFor maps a terminal assignment status to the item status it
// drives. RETURNED frees the item; LOST/DAMAGED follow the report.
func itemStatusFor(s AssignmentStatus) (ItemStatus, bool) {
	switch s {
	case AssignmentReturned:
		return ItemAvailable, true
	case AssignmentLost:
		return ItemLost, true
	case AssignmentDamaged:
		return ItemDamaged, true
	}
	return "", false
}

// =============================================================================
// EMPLOYEE - Directory record (owned by the employee package)
// =============================================================================

type Employee struct {
	ID        EmployeeID
	Name      string
	Email     string
	CreatedAt time.Time
}
