/*
item.go - Item lifecycle service

PURPOSE:
  Creates, edits, and deletes the concrete items of a resource against
  the resource's property schema. Creating the first item locks the
  schema in the same transaction, so two concurrent "first item"
  creations cannot both believe they are first.

STATE MACHINE (per item):
  AVAILABLE <-> MAINTENANCE
  AVAILABLE  -> ASSIGNED            (assignment service only)
  ASSIGNED   -> AVAILABLE|LOST|DAMAGED  (on assignment resolution)
  any        -> LOST|DAMAGED        (manual report)
  DAMAGED    -> AVAILABLE           (repaired)

  A requested no-op transition returns the item unchanged.

VALIDATION ORDER on create/update:
  1. Full schema check (required / closed / typed)
  2. Type-level mandatory property check, when the type declares any
  3. Globally-unique property values checked against existing items
*/
package inventory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ItemService owns the item lifecycle.
type ItemService struct {
	Store    TxStores
	Types    TypeDirectory
	Recorder Recorder
	Log      *zap.Logger
}

func NewItemService(store TxStores, types TypeDirectory, rec Recorder, log *zap.Logger) *ItemService {
	if rec == nil {
		rec = NopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ItemService{Store: store, Types: types, Recorder: rec, Log: log}
}

// Create validates properties against the resource's schema and the
// type's mandatory set, then inserts the item. The first successful
// creation for a resource locks its schema atomically with the insert.
func (s *ItemService) Create(ctx context.Context, resourceID ResourceID, properties map[string]any, status ItemStatus, actorID string) (*Item, error) {
	if status == "" {
		status = ItemAvailable
	}
	if status == ItemAssigned {
		return nil, &StateTransitionError{Entity: "item", From: "", To: string(ItemAssigned)}
	}

	var created *Item
	err := s.Store.WithTx(ctx, func(tx Stores) error {
		res, err := tx.Resources().Get(ctx, resourceID)
		if err != nil {
			return err
		}
		if res == nil {
			return &NotFoundError{Entity: "resource", ID: string(resourceID)}
		}

		result := ValidateProperties(properties, res.Schema)
		if err := result.Err(); err != nil {
			return err
		}

		mandatory, err := s.Types.MandatoryKeys(ctx, res.TypeID)
		if err != nil {
			return err
		}
		if len(mandatory) > 0 {
			if err := ValidateMandatory(properties, mandatory).Err(); err != nil {
				return err
			}
		}

		if err := s.checkUniqueValues(ctx, tx, res.Schema, result.Values, ""); err != nil {
			return err
		}

		now := time.Now().UTC()
		item := Item{
			ID:         ItemID(NewID()),
			ResourceID: resourceID,
			Status:     status,
			Properties: result.Values,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.Items().Insert(ctx, item); err != nil {
			return fmt.Errorf("inserting item: %w", err)
		}

		// First item freezes the schema, in this same transaction.
		if !res.SchemaLocked {
			res.SchemaLocked = true
			res.UpdatedAt = now
			if err := tx.Resources().Update(ctx, *res); err != nil {
				return fmt.Errorf("locking schema: %w", err)
			}
		}

		created = &item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Recorder.Change(ctx, Change{EntityType: "item", EntityID: string(created.ID), ActorID: actorID, Field: "created"})
	s.Recorder.Timeline(ctx, Event{
		Title:       "Item added",
		Description: fmt.Sprintf("New unit registered for resource %s", created.ResourceID),
		Metadata:    map[string]string{"itemId": string(created.ID), "resourceId": string(created.ResourceID)},
	})
	return created, nil
}

// UpdateItemInput is a partial item update. Nil Properties means no
// property change; empty Status means no status change.
type UpdateItemInput struct {
	Properties map[string]any
	Status     ItemStatus
	ActorID    string
}

// Update re-validates supplied properties against the (now fixed)
// schema - any key outside it is rejected - and applies a status change
// through the transition table. The per-field change list goes to the
// audit recorder.
func (s *ItemService) Update(ctx context.Context, id ItemID, in UpdateItemInput) (*Item, error) {
	var updated *Item
	var changes []Change

	err := s.Store.WithTx(ctx, func(tx Stores) error {
		changes = changes[:0]
		item, err := tx.Items().Get(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return &NotFoundError{Entity: "item", ID: string(id)}
		}
		res, err := tx.Resources().Get(ctx, item.ResourceID)
		if err != nil {
			return err
		}
		if res == nil {
			return &NotFoundError{Entity: "resource", ID: string(item.ResourceID)}
		}

		if in.Properties != nil {
			result := ValidateProperties(in.Properties, res.Schema)
			if err := result.Err(); err != nil {
				return err
			}
			mandatory, err := s.Types.MandatoryKeys(ctx, res.TypeID)
			if err != nil {
				return err
			}
			if len(mandatory) > 0 {
				if err := ValidateMandatory(in.Properties, mandatory).Err(); err != nil {
					return err
				}
			}
			if err := s.checkUniqueValues(ctx, tx, res.Schema, result.Values, item.ID); err != nil {
				return err
			}

			for key, newVal := range result.Values {
				old, had := item.Properties[key]
				if !had || !old.Equal(newVal) {
					change := Change{
						EntityType: "item", EntityID: string(id), ActorID: in.ActorID,
						Field: key, NewValue: newVal.Raw(),
					}
					if had {
						change.OldValue = old.Raw()
					}
					changes = append(changes, change)
				}
			}
			item.Properties = result.Values
		}

		if in.Status != "" && in.Status != item.Status {
			if in.Status == ItemAssigned {
				// Claiming an item is the assignment service's job.
				return &StateTransitionError{Entity: "item", From: string(item.Status), To: string(ItemAssigned)}
			}
			if !CanTransitionItem(item.Status, in.Status) {
				return &StateTransitionError{Entity: "item", From: string(item.Status), To: string(in.Status)}
			}
			changes = append(changes, Change{
				EntityType: "item", EntityID: string(id), ActorID: in.ActorID,
				Field: "status", OldValue: string(item.Status), NewValue: string(in.Status),
			})
			item.Status = in.Status
		}

		if len(changes) == 0 {
			updated = item
			return nil
		}

		item.UpdatedAt = time.Now().UTC()
		if err := tx.Items().Update(ctx, *item); err != nil {
			return fmt.Errorf("updating item: %w", err)
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range changes {
		s.Recorder.Change(ctx, c)
	}
	return updated, nil
}

// Delete removes an item that has no ACTIVE assignment.
func (s *ItemService) Delete(ctx context.Context, id ItemID, actorID string) error {
	err := s.Store.WithTx(ctx, func(tx Stores) error {
		item, err := tx.Items().Get(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return &NotFoundError{Entity: "item", ID: string(id)}
		}
		active, err := tx.Assignments().ActiveByItem(ctx, id)
		if err != nil {
			return err
		}
		if active != nil {
			return &ActiveAssignmentError{ItemID: id, AssignmentID: active.ID}
		}
		return tx.Items().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.Recorder.Change(ctx, Change{EntityType: "item", EntityID: string(id), ActorID: actorID, Field: "deleted"})
	return nil
}

// DeleteCheck is the answer to "could this item be deleted right now?".
type DeleteCheck struct {
	CanDelete bool
	Reason    string
}

// CanDelete mirrors the Delete precondition without side effects, for
// pre-flight UI checks.
func (s *ItemService) CanDelete(ctx context.Context, id ItemID) (DeleteCheck, error) {
	item, err := s.Store.Items().Get(ctx, id)
	if err != nil {
		return DeleteCheck{}, err
	}
	if item == nil {
		return DeleteCheck{}, &NotFoundError{Entity: "item", ID: string(id)}
	}
	active, err := s.Store.Assignments().ActiveByItem(ctx, id)
	if err != nil {
		return DeleteCheck{}, err
	}
	if active != nil {
		return DeleteCheck{Reason: fmt.Sprintf("item has active assignment %s", active.ID)}, nil
	}
	return DeleteCheck{CanDelete: true}, nil
}

// Get loads an item or returns NotFoundError.
func (s *ItemService) Get(ctx context.Context, id ItemID) (*Item, error) {
	item, err := s.Store.Items().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &NotFoundError{Entity: "item", ID: string(id)}
	}
	return item, nil
}

// ListByResource returns all items of a resource.
func (s *ItemService) ListByResource(ctx context.Context, resourceID ResourceID) ([]Item, error) {
	return s.Store.Items().ListByResource(ctx, resourceID)
}

// checkUniqueValues rejects values for Unique-flagged properties that
// another item already holds. self excludes the item being updated.
func (s *ItemService) checkUniqueValues(ctx context.Context, tx Stores, schema Schema, values PropertyMap, self ItemID) error {
	for _, def := range schema {
		if !def.Unique {
			continue
		}
		pv, ok := values[def.Key]
		if !ok || pv.IsEmpty() {
			continue
		}
		existing, err := tx.Items().FindByUniqueValue(ctx, def.Key, pv.Canonical())
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != self {
			return &DuplicateValueError{Key: def.Key, Value: pv.Canonical(), ExistingItemID: existing.ID}
		}
	}
	return nil
}
