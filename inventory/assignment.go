/*
assignment.go - Assignment lifecycle service

PURPOSE:
  Creates, resolves, and revokes the bindings between employees and
  resources/items, under the assignment model resolved from the
  resource's type (see policy.go):

    INDIVIDUAL  exclusive, item-bound for hardware; software may bind
                an item or attach directly to the resource
    POOLED      capacity-limited seats on a resource (quantity)
    SHARED      unlimited concurrent access, one per employee

STATE MACHINE (per assignment):
  ACTIVE  -> RETURNED | LOST | DAMAGED
  DAMAGED -> RETURNED                  (repaired, then returned)
  everything else is rejected. Assignments are never hard-deleted.

ITEM COUPLING:
  Creating an item-bound assignment flips the item to ASSIGNED in the
  same transaction. Resolving one maps the new assignment status onto
  the item: RETURNED -> AVAILABLE, LOST -> LOST, DAMAGED -> DAMAGED.

CONCURRENCY:
  All validate-then-write paths run inside one store transaction. Two
  concurrent claims on the same AVAILABLE item, or on the last pooled
  seat, must resolve to exactly one success.
*/
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AssignmentService owns the assignment lifecycle.
type AssignmentService struct {
	Store     TxStores
	Types     TypeDirectory
	Employees EmployeeDirectory
	Recorder  Recorder
	Log       *zap.Logger
}

func NewAssignmentService(store TxStores, types TypeDirectory, employees EmployeeDirectory, rec Recorder, log *zap.Logger) *AssignmentService {
	if rec == nil {
		rec = NopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AssignmentService{Store: store, Types: types, Employees: employees, Recorder: rec, Log: log}
}

// AssignmentRequest is a request to bind an employee to a resource,
// optionally to a specific item. Type is the caller's preference; the
// resource type may override it.
type AssignmentRequest struct {
	EmployeeID EmployeeID
	ResourceID ResourceID
	ItemID     ItemID
	Type       AssignmentType
	Notes      string
}

// ValidationOutcome is the answer to "would this assignment succeed?".
// ResolvedType is always populated so callers can see what model the
// request would actually use.
type ValidationOutcome struct {
	Valid        bool
	ResolvedType AssignmentType
	Err          error
}

// Validate resolves the assignment model and runs the type-specific
// checks without writing anything.
func (s *AssignmentService) Validate(ctx context.Context, req AssignmentRequest) (ValidationOutcome, error) {
	var outcome ValidationOutcome
	err := s.Store.WithTx(ctx, func(tx Stores) error {
		o, err := s.validate(ctx, tx, req)
		outcome = o
		return err
	})
	if err != nil {
		return outcome, err
	}
	return outcome, nil
}

// validate runs inside a store transaction so Create can share it.
// Business-rule rejections land in outcome.Err; infrastructure faults
// are returned as the error.
func (s *AssignmentService) validate(ctx context.Context, tx Stores, req AssignmentRequest) (ValidationOutcome, error) {
	var outcome ValidationOutcome

	if req.Type != "" && !ValidAssignmentType(req.Type) {
		outcome.Err = &ValidationError{Code: CodeUnknownAssignType, Message: fmt.Sprintf("unknown assignment type %q", req.Type)}
		return outcome, nil
	}

	ok, err := s.Employees.Exists(ctx, req.EmployeeID)
	if err != nil {
		return outcome, err
	}
	if !ok {
		outcome.Err = &NotFoundError{Entity: "employee", ID: string(req.EmployeeID)}
		return outcome, nil
	}

	res, err := tx.Resources().Get(ctx, req.ResourceID)
	if err != nil {
		return outcome, err
	}
	if res == nil {
		outcome.Err = &NotFoundError{Entity: "resource", ID: string(req.ResourceID)}
		return outcome, nil
	}
	if res.Status != ResourceActive {
		outcome.Err = &InactiveResourceError{ResourceID: res.ID, Status: res.Status}
		return outcome, nil
	}

	typeName, err := s.Types.TypeName(ctx, res.TypeID)
	if err != nil {
		return outcome, err
	}
	resolved := ResolveAssignmentType(typeName, req.Type)
	outcome.ResolvedType = resolved

	switch resolved {
	case AssignIndividual:
		outcome.Err = s.validateIndividual(ctx, tx, req, typeName)
	case AssignPooled:
		outcome.Err = s.validatePooled(ctx, tx, req, res)
	case AssignShared:
		outcome.Err = s.validateShared(ctx, tx, req)
	}
	if outcome.Err == nil {
		outcome.Valid = true
	}
	return outcome, nil
}

// validateIndividual enforces exclusivity. Hardware always requires an
// item; item-bound software follows the same checks, and software
// without an item attaches at the resource level.
func (s *AssignmentService) validateIndividual(ctx context.Context, tx Stores, req AssignmentRequest, typeName string) error {
	if req.ItemID == "" {
		if isHardwareType(typeName) {
			return &ValidationError{Code: CodeItemRequired, Message: "hardware assignment requires an item"}
		}
		// Resource-level individual grant (software without a unit).
		existing, err := tx.Assignments().ActiveByEmployeeAndResource(ctx, req.EmployeeID, req.ResourceID)
		if err != nil {
			return err
		}
		for _, a := range existing {
			if !a.ItemBound() {
				return &DuplicateAssignmentError{EmployeeID: req.EmployeeID, ResourceID: req.ResourceID}
			}
		}
		return nil
	}
	return s.validateItemClaim(ctx, tx, req)
}

// validateItemClaim checks the item exists, is AVAILABLE, and is not
// already held - by anyone, including the requesting employee.
func (s *AssignmentService) validateItemClaim(ctx context.Context, tx Stores, req AssignmentRequest) error {
	item, err := tx.Items().Get(ctx, req.ItemID)
	if err != nil {
		return err
	}
	if item == nil {
		return &NotFoundError{Entity: "item", ID: string(req.ItemID)}
	}
	if item.ResourceID != req.ResourceID {
		return &ValidationError{Code: CodeSchemaViolation, Message: fmt.Sprintf("item %s does not belong to resource %s", req.ItemID, req.ResourceID)}
	}
	holder, err := tx.Assignments().ActiveByItem(ctx, req.ItemID)
	if err != nil {
		return err
	}
	if holder != nil {
		if holder.EmployeeID == req.EmployeeID {
			return &DuplicateAssignmentError{EmployeeID: req.EmployeeID, ResourceID: req.ResourceID, ItemID: req.ItemID}
		}
		return &ItemUnavailableError{ItemID: req.ItemID, Status: item.Status, HeldBy: holder.ID}
	}
	if item.Status != ItemAvailable {
		return &ItemUnavailableError{ItemID: req.ItemID, Status: item.Status}
	}
	return nil
}

// validatePooled checks seat capacity and that the employee holds no
// existing pooled seat on the resource. Pooled seats are resource-level
// grants: naming an item is a request error, not a claim.
func (s *AssignmentService) validatePooled(ctx context.Context, tx Stores, req AssignmentRequest, res *Resource) error {
	if req.ItemID != "" {
		return &ValidationError{Code: CodeItemNotAllowed, Message: "pooled assignment does not bind an item"}
	}
	existing, err := tx.Assignments().ActiveByEmployeeAndResource(ctx, req.EmployeeID, req.ResourceID)
	if err != nil {
		return err
	}
	for _, a := range existing {
		if a.Type == AssignPooled {
			return &DuplicateAssignmentError{EmployeeID: req.EmployeeID, ResourceID: req.ResourceID}
		}
	}
	active, err := tx.Assignments().CountActive(ctx, req.ResourceID, AssignPooled)
	if err != nil {
		return err
	}
	if active >= res.Quantity {
		return &CapacityError{ResourceID: res.ID, Quantity: res.Quantity, Active: active}
	}
	return nil
}

// validateShared rejects only a second active grant for the same
// employee on the same resource. Item binding is optional and, when
// supplied, merely checked for existence.
func (s *AssignmentService) validateShared(ctx context.Context, tx Stores, req AssignmentRequest) error {
	existing, err := tx.Assignments().ActiveByEmployeeAndResource(ctx, req.EmployeeID, req.ResourceID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return &DuplicateAssignmentError{EmployeeID: req.EmployeeID, ResourceID: req.ResourceID}
	}
	if req.ItemID != "" {
		item, err := tx.Items().Get(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return &NotFoundError{Entity: "item", ID: string(req.ItemID)}
		}
	}
	return nil
}

// Create re-validates the request and, atomically, inserts the ACTIVE
// assignment and flips a bound item to ASSIGNED.
func (s *AssignmentService) Create(ctx context.Context, req AssignmentRequest, actorID string) (*Assignment, error) {
	var created *Assignment
	err := s.Store.WithTx(ctx, func(tx Stores) error {
		outcome, err := s.validate(ctx, tx, req)
		if err != nil {
			return err
		}
		if !outcome.Valid {
			return outcome.Err
		}

		now := time.Now().UTC()
		a := Assignment{
			ID:         AssignmentID(NewID()),
			EmployeeID: req.EmployeeID,
			ResourceID: req.ResourceID,
			Type:       outcome.ResolvedType,
			Status:     AssignmentActive,
			AssignedBy: EmployeeID(actorID),
			Notes:      req.Notes,
			AssignedAt: now,
			UpdatedAt:  now,
		}
		// SHARED item binding is informational only; the item is not
		// claimed and keeps its status.
		claimItem := req.ItemID != "" && outcome.ResolvedType != AssignShared
		if req.ItemID != "" {
			a.ItemID = req.ItemID
		}

		if err := tx.Assignments().Insert(ctx, a); err != nil {
			return fmt.Errorf("inserting assignment: %w", err)
		}

		if claimItem {
			item, err := tx.Items().Get(ctx, req.ItemID)
			if err != nil {
				return err
			}
			if item == nil {
				return &NotFoundError{Entity: "item", ID: string(req.ItemID)}
			}
			item.Status = ItemAssigned
			item.UpdatedAt = now
			if err := tx.Items().Update(ctx, *item); err != nil {
				return fmt.Errorf("claiming item: %w", err)
			}
		}

		created = &a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Recorder.Change(ctx, Change{EntityType: "assignment", EntityID: string(created.ID), ActorID: actorID, Field: "created"})
	s.Recorder.Timeline(ctx, Event{
		Title:       "Resource assigned",
		Description: fmt.Sprintf("Employee %s assigned %s access", created.EmployeeID, created.Type),
		Metadata: map[string]string{
			"assignmentId": string(created.ID),
			"resourceId":   string(created.ResourceID),
			"employeeId":   string(created.EmployeeID),
		},
	})
	return created, nil
}

// UpdateStatus moves an assignment along the transition table and,
// atomically, drives the bound item's status from the new assignment
// status.
func (s *AssignmentService) UpdateStatus(ctx context.Context, id AssignmentID, newStatus AssignmentStatus, actorID string) (*Assignment, error) {
	var updated *Assignment
	var oldStatus AssignmentStatus

	err := s.Store.WithTx(ctx, func(tx Stores) error {
		a, err := tx.Assignments().Get(ctx, id)
		if err != nil {
			return err
		}
		if a == nil {
			return &NotFoundError{Entity: "assignment", ID: string(id)}
		}
		if !CanTransitionAssignment(a.Status, newStatus) {
			return &StateTransitionError{Entity: "assignment", From: string(a.Status), To: string(newStatus)}
		}

		oldStatus = a.Status
		now := time.Now().UTC()
		a.Status = newStatus
		a.UpdatedAt = now
		if newStatus == AssignmentReturned {
			a.ReturnedAt = &now
		}
		if err := tx.Assignments().Update(ctx, *a); err != nil {
			return fmt.Errorf("updating assignment: %w", err)
		}

		if a.ItemBound() && a.Type != AssignShared {
			itemStatus, ok := itemStatusFor(newStatus)
			if ok {
				item, err := tx.Items().Get(ctx, a.ItemID)
				if err != nil {
					return err
				}
				if item != nil && item.Status != itemStatus {
					item.Status = itemStatus
					item.UpdatedAt = now
					if err := tx.Items().Update(ctx, *item); err != nil {
						return fmt.Errorf("releasing item: %w", err)
					}
				}
			}
		}

		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Recorder.Change(ctx, Change{
		EntityType: "assignment", EntityID: string(id), ActorID: actorID,
		Field: "status", OldValue: string(oldStatus), NewValue: string(updated.Status),
	})
	return updated, nil
}

// Revoke is administrative return: the same transition as a voluntary
// return, recorded with the revocation reason.
func (s *AssignmentService) Revoke(ctx context.Context, id AssignmentID, actorID, reason string) (*Assignment, error) {
	a, err := s.UpdateStatus(ctx, id, AssignmentReturned, actorID)
	if err != nil {
		return nil, err
	}
	s.Recorder.Timeline(ctx, Event{
		Title:       "Assignment revoked",
		Description: reason,
		Metadata:    map[string]string{"assignmentId": string(id), "revokedBy": actorID},
	})
	return a, nil
}

// Get loads an assignment or returns NotFoundError.
func (s *AssignmentService) Get(ctx context.Context, id AssignmentID) (*Assignment, error) {
	a, err := s.Store.Assignments().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &NotFoundError{Entity: "assignment", ID: string(id)}
	}
	return a, nil
}

// ListByEmployee returns an employee's assignments, newest first.
func (s *AssignmentService) ListByEmployee(ctx context.Context, employeeID EmployeeID) ([]Assignment, error) {
	return s.Store.Assignments().ListByEmployee(ctx, employeeID)
}

// ListByResource returns a resource's assignments.
func (s *AssignmentService) ListByResource(ctx context.Context, resourceID ResourceID) ([]Assignment, error) {
	return s.Store.Assignments().ListByResource(ctx, resourceID)
}

func isHardwareType(name string) bool {
	switch strings.ToLower(name) {
	case "hardware", "physical":
		return true
	}
	return false
}
