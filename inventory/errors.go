/*
errors.go - Centralized error types for the inventory engine

PURPOSE:
  All engine error types in one place. Every failure a caller can act on
  is either a sentinel (use errors.Is) or a structured error that
  unwraps to one. Unexpected persistence faults are returned as plain
  wrapped errors and surface as internal errors at the API edge.

ERROR CATEGORIES:
  1. Validation errors  - schema / type / mandatory-property violations
  2. Integrity errors   - deletes blocked by dependents, duplicates
  3. Transition errors  - illegal lifecycle moves
  4. Policy errors      - capacity exhausted, item unavailable

These are business-rule rejections, not infrastructure faults: they are
never retried and never swallowed.
*/
package inventory

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is the root of all schema/property validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrSchemaLocked is returned when a schema edit hits a locked resource.
	ErrSchemaLocked = errors.New("schema locked")

	// ErrActiveAssignment is returned when a delete is blocked by an
	// active assignment.
	ErrActiveAssignment = errors.New("item has active assignment")

	// ErrDuplicateValue is returned when a globally-unique property value
	// (e.g. a serial number) already exists on another item.
	ErrDuplicateValue = errors.New("duplicate unique property value")

	// ErrReferentialIntegrity is returned when a delete is blocked by
	// dependent records.
	ErrReferentialIntegrity = errors.New("referenced by dependent records")

	// ErrStateTransition is returned for illegal lifecycle moves.
	ErrStateTransition = errors.New("invalid state transition")

	// ErrCapacityExceeded is returned when a pooled resource is full.
	ErrCapacityExceeded = errors.New("pool capacity exceeded")

	// ErrDuplicateAssignment is returned when the employee already holds
	// an active assignment that conflicts with the request.
	ErrDuplicateAssignment = errors.New("employee already holds assignment")

	// ErrItemUnavailable is returned when an item is not AVAILABLE or is
	// already claimed by another active assignment.
	ErrItemUnavailable = errors.New("item unavailable")

	// ErrInactiveResource is returned when assigning against a resource
	// that is not ACTIVE.
	ErrInactiveResource = errors.New("resource not active")
)

// Machine-readable validation codes, surfaced verbatim to API clients.
const (
	CodeSchemaViolation   = "SCHEMA_VALIDATION_FAILED"
	CodeMissingMandatory  = "MISSING_MANDATORY_PROPERTIES"
	CodeEmptySchema       = "EMPTY_SCHEMA"
	CodeDuplicateKey      = "DUPLICATE_SCHEMA_KEY"
	CodeUnknownDataType   = "UNKNOWN_DATA_TYPE"
	CodeUnknownAssignType = "UNKNOWN_ASSIGNMENT_TYPE"
	CodeItemRequired      = "ITEM_REQUIRED"
	CodeItemNotAllowed    = "ITEM_NOT_ALLOWED"
	CodeQuantityRequired  = "QUANTITY_REQUIRED"
)

// =============================================================================
// STRUCTURED ERRORS - Carry context, unwrap to a sentinel
// =============================================================================

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string // "resource", "item", "assignment", "employee", ...
	ID     string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Entity, e.ID) }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TypeError describes one data-type mismatch in a properties map.
type TypeError struct {
	Key      string   `json:"key"`
	Expected DataType `json:"expected"`
	Value    any      `json:"value"`
}

func (e TypeError) String() string {
	return fmt.Sprintf("%s: expected %s, got %v", e.Key, e.Expected, e.Value)
}

// ValidationError aggregates everything wrong with a properties map:
// required keys that are missing, keys the schema doesn't declare, and
// values whose runtime shape doesn't match the declared type.
type ValidationError struct {
	Code        string      `json:"code"`
	Message     string      `json:"message,omitempty"`
	MissingKeys []string    `json:"missingKeys,omitempty"`
	ExtraKeys   []string    `json:"extraKeys,omitempty"`
	TypeErrors  []TypeError `json:"typeErrors,omitempty"`
}

func (e *ValidationError) Error() string {
	var parts []string
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if len(e.MissingKeys) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.MissingKeys, ", "))
	}
	if len(e.ExtraKeys) > 0 {
		parts = append(parts, "unknown: "+strings.Join(e.ExtraKeys, ", "))
	}
	for _, te := range e.TypeErrors {
		parts = append(parts, te.String())
	}
	return e.Code + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// SchemaLockedError reports a schema edit rejected because items exist.
type SchemaLockedError struct {
	ResourceID ResourceID
	ItemCount  int
}

func (e *SchemaLockedError) Error() string {
	return fmt.Sprintf("schema for resource %s is locked by %d existing item(s)", e.ResourceID, e.ItemCount)
}
func (e *SchemaLockedError) Unwrap() error { return ErrSchemaLocked }

// ActiveAssignmentError blocks item deletion.
type ActiveAssignmentError struct {
	ItemID       ItemID
	AssignmentID AssignmentID
}

func (e *ActiveAssignmentError) Error() string {
	return fmt.Sprintf("item %s has active assignment %s", e.ItemID, e.AssignmentID)
}
func (e *ActiveAssignmentError) Unwrap() error { return ErrActiveAssignment }

// DuplicateValueError reports a globally-unique property collision.
type DuplicateValueError struct {
	Key            string
	Value          string
	ExistingItemID ItemID
}

func (e *DuplicateValueError) Error() string {
	return fmt.Sprintf("value %q for unique property %q already used by item %s", e.Value, e.Key, e.ExistingItemID)
}
func (e *DuplicateValueError) Unwrap() error { return ErrDuplicateValue }

// ReferentialIntegrityError reports a delete blocked by dependents.
type ReferentialIntegrityError struct {
	Entity    string
	ID        string
	BlockedBy string // dependent entity name, e.g. "resources"
	Count     int
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("cannot delete %s %s: referenced by %d %s", e.Entity, e.ID, e.Count, e.BlockedBy)
}
func (e *ReferentialIntegrityError) Unwrap() error { return ErrReferentialIntegrity }

// StateTransitionError reports an illegal lifecycle move.
type StateTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("%s cannot transition from %s to %s", e.Entity, e.From, e.To)
}
func (e *StateTransitionError) Unwrap() error { return ErrStateTransition }

// CapacityError reports an exhausted pool.
type CapacityError struct {
	ResourceID ResourceID
	Quantity   int
	Active     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("resource %s pool is full (%d of %d seats active)", e.ResourceID, e.Active, e.Quantity)
}
func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// DuplicateAssignmentError reports a conflicting active assignment held
// by the same employee.
type DuplicateAssignmentError struct {
	EmployeeID EmployeeID
	ResourceID ResourceID
	ItemID     ItemID
}

func (e *DuplicateAssignmentError) Error() string {
	if e.ItemID != "" {
		return fmt.Sprintf("employee %s already holds item %s", e.EmployeeID, e.ItemID)
	}
	return fmt.Sprintf("employee %s already holds an active assignment for resource %s", e.EmployeeID, e.ResourceID)
}
func (e *DuplicateAssignmentError) Unwrap() error { return ErrDuplicateAssignment }

// ItemUnavailableError reports an item that cannot be claimed.
type ItemUnavailableError struct {
	ItemID ItemID
	Status ItemStatus
	HeldBy AssignmentID // set when another active assignment claims it
}

func (e *ItemUnavailableError) Error() string {
	if e.HeldBy != "" {
		return fmt.Sprintf("item %s is claimed by assignment %s", e.ItemID, e.HeldBy)
	}
	return fmt.Sprintf("item %s is %s, not AVAILABLE", e.ItemID, e.Status)
}
func (e *ItemUnavailableError) Unwrap() error { return ErrItemUnavailable }

// InactiveResourceError reports an assignment against a non-ACTIVE resource.
type InactiveResourceError struct {
	ResourceID ResourceID
	Status     ResourceStatus
}

func (e *InactiveResourceError) Error() string {
	return fmt.Sprintf("resource %s is %s", e.ResourceID, e.Status)
}
func (e *InactiveResourceError) Unwrap() error { return ErrInactiveResource }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether err indicates a missing entity.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsClientError reports whether err is due to invalid client input or a
// business-rule rejection, as opposed to an infrastructure fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrSchemaLocked) ||
		errors.Is(err, ErrStateTransition) ||
		errors.Is(err, ErrInactiveResource) ||
		IsConflict(err)
}

// IsConflict reports whether err indicates a state conflict (duplicate,
// capacity, claimed item, blocked delete).
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateValue) ||
		errors.Is(err, ErrDuplicateAssignment) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrItemUnavailable) ||
		errors.Is(err, ErrActiveAssignment) ||
		errors.Is(err, ErrReferentialIntegrity)
}
