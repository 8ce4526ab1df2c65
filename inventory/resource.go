/*
resource.go - Catalog resource service and schema locking

PURPOSE:
  Creates and maintains catalog resources and enforces the one-way
  schema lock: a resource's selected property schema may be replaced
  wholesale until its first item exists, and is frozen afterwards.

LOCK RULES:
  - UNLOCKED -> LOCKED fires exactly once, inside the same transaction
    as the first item insert (see item.go).
  - While LOCKED, a schema update is accepted only when the new schema
    is identical to the current one (a no-op update is tolerated).
  - Deleting a resource while items exist fails with the blocking
    item count.
*/
package inventory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ResourceService owns resource creation, updates, and deletion.
type ResourceService struct {
	Store    TxStores
	Types    TypeDirectory
	Recorder Recorder
	Log      *zap.Logger
}

func NewResourceService(store TxStores, types TypeDirectory, rec Recorder, log *zap.Logger) *ResourceService {
	if rec == nil {
		rec = NopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ResourceService{Store: store, Types: types, Recorder: rec, Log: log}
}

// CreateResourceInput carries everything needed to create a resource.
type CreateResourceInput struct {
	Name       string
	TypeID     TypeID
	CategoryID CategoryID
	Schema     Schema
	Quantity   int
	ActorID    string
}

// Create registers a new resource with its selected property schema.
// The schema must be non-empty and structurally sound; the category is
// mandatory.
func (s *ResourceService) Create(ctx context.Context, in CreateResourceInput) (*Resource, error) {
	if in.Name == "" {
		return nil, &ValidationError{Code: CodeSchemaViolation, Message: "resource name is required"}
	}
	if in.CategoryID == "" {
		return nil, &ValidationError{Code: CodeSchemaViolation, Message: "resource category is required"}
	}
	if err := in.Schema.Check(); err != nil {
		return nil, err
	}
	if _, err := s.Types.TypeName(ctx, in.TypeID); err != nil {
		return nil, err
	}
	if in.Quantity < 0 {
		return nil, &ValidationError{Code: CodeQuantityRequired, Message: "quantity cannot be negative"}
	}

	now := time.Now().UTC()
	res := Resource{
		ID:         ResourceID(NewID()),
		Name:       in.Name,
		TypeID:     in.TypeID,
		CategoryID: in.CategoryID,
		Schema:     in.Schema,
		Quantity:   in.Quantity,
		Status:     ResourceActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.Store.Resources().Insert(ctx, res); err != nil {
		return nil, fmt.Errorf("inserting resource: %w", err)
	}

	s.Recorder.Change(ctx, Change{EntityType: "resource", EntityID: string(res.ID), ActorID: in.ActorID, Field: "created"})
	s.Recorder.Timeline(ctx, Event{
		Title:       "Resource created",
		Description: fmt.Sprintf("%s added to the catalog", res.Name),
		Metadata:    map[string]string{"resourceId": string(res.ID)},
	})
	return &res, nil
}

// UpdateResourceInput carries a partial resource update. Nil fields are
// left untouched.
type UpdateResourceInput struct {
	Name     *string
	Schema   Schema // nil = no schema change
	Quantity *int
	Status   *ResourceStatus
	ActorID  string
}

// Update applies field edits. A schema replacement is accepted freely
// while the resource is unlocked; once locked, only an identical schema
// passes (no-op), anything else fails with SchemaLockedError.
func (s *ResourceService) Update(ctx context.Context, id ResourceID, in UpdateResourceInput) (*Resource, error) {
	var updated *Resource
	var changes []Change

	err := s.Store.WithTx(ctx, func(tx Stores) error {
		changes = changes[:0]
		res, err := tx.Resources().Get(ctx, id)
		if err != nil {
			return err
		}
		if res == nil {
			return &NotFoundError{Entity: "resource", ID: string(id)}
		}

		if in.Schema != nil && !res.Schema.Equal(in.Schema) {
			if res.SchemaLocked {
				count, err := tx.Items().CountByResource(ctx, id)
				if err != nil {
					return err
				}
				return &SchemaLockedError{ResourceID: id, ItemCount: count}
			}
			if err := in.Schema.Check(); err != nil {
				return err
			}
			changes = append(changes, Change{
				EntityType: "resource", EntityID: string(id), ActorID: in.ActorID,
				Field: "propertySchema", OldValue: res.Schema.Keys(), NewValue: in.Schema.Keys(),
			})
			res.Schema = in.Schema
		}

		if in.Name != nil && *in.Name != res.Name {
			changes = append(changes, Change{
				EntityType: "resource", EntityID: string(id), ActorID: in.ActorID,
				Field: "name", OldValue: res.Name, NewValue: *in.Name,
			})
			res.Name = *in.Name
		}
		if in.Quantity != nil && *in.Quantity != res.Quantity {
			if *in.Quantity < 0 {
				return &ValidationError{Code: CodeQuantityRequired, Message: "quantity cannot be negative"}
			}
			changes = append(changes, Change{
				EntityType: "resource", EntityID: string(id), ActorID: in.ActorID,
				Field: "quantity", OldValue: res.Quantity, NewValue: *in.Quantity,
			})
			res.Quantity = *in.Quantity
		}
		if in.Status != nil && *in.Status != res.Status {
			changes = append(changes, Change{
				EntityType: "resource", EntityID: string(id), ActorID: in.ActorID,
				Field: "status", OldValue: string(res.Status), NewValue: string(*in.Status),
			})
			res.Status = *in.Status
		}

		res.UpdatedAt = time.Now().UTC()
		if err := tx.Resources().Update(ctx, *res); err != nil {
			return fmt.Errorf("updating resource: %w", err)
		}
		updated = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Audit only what actually committed.
	for _, c := range changes {
		s.Recorder.Change(ctx, c)
	}
	return updated, nil
}

// Delete removes a resource. Blocked while any item exists; the error
// names the blocking item count.
func (s *ResourceService) Delete(ctx context.Context, id ResourceID, actorID string) error {
	err := s.Store.WithTx(ctx, func(tx Stores) error {
		res, err := tx.Resources().Get(ctx, id)
		if err != nil {
			return err
		}
		if res == nil {
			return &NotFoundError{Entity: "resource", ID: string(id)}
		}
		count, err := tx.Items().CountByResource(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return &SchemaLockedError{ResourceID: id, ItemCount: count}
		}
		return tx.Resources().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.Recorder.Change(ctx, Change{EntityType: "resource", EntityID: string(id), ActorID: actorID, Field: "deleted"})
	return nil
}

// Get loads a resource or returns NotFoundError.
func (s *ResourceService) Get(ctx context.Context, id ResourceID) (*Resource, error) {
	res, err := s.Store.Resources().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &NotFoundError{Entity: "resource", ID: string(id)}
	}
	return res, nil
}

// List returns all resources.
func (s *ResourceService) List(ctx context.Context) ([]Resource, error) {
	return s.Store.Resources().List(ctx)
}
