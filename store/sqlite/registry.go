package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/warp/asset-inventory/audit"
	"github.com/warp/asset-inventory/inventory"
	"github.com/warp/asset-inventory/registry"
)

// =============================================================================
// PROPERTY CATALOG (registry.Store)
// =============================================================================

func (s *Store) GetDefinition(ctx context.Context, key string) (*inventory.PropertyDefinition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT prop_key, label, data_type, description, default_value, is_required, is_unique
		FROM property_definitions WHERE prop_key = ?`, key)
	def, err := scanDefinition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return def, nil
}

func (s *Store) ListDefinitions(ctx context.Context) ([]inventory.PropertyDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT prop_key, label, data_type, description, default_value, is_required, is_unique
		FROM property_definitions ORDER BY prop_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query property definitions: %w", err)
	}
	defer rows.Close()

	var out []inventory.PropertyDefinition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *def)
	}
	return out, rows.Err()
}

func (s *Store) SaveDefinition(ctx context.Context, def inventory.PropertyDefinition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO property_definitions
		(prop_key, label, data_type, description, default_value, is_required, is_unique)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(prop_key) DO UPDATE SET
			label = excluded.label,
			data_type = excluded.data_type,
			description = excluded.description,
			default_value = excluded.default_value,
			is_required = excluded.is_required,
			is_unique = excluded.is_unique`,
		def.Key, def.Label, string(def.DataType), def.Description,
		nullString(def.Default), def.Required, def.Unique,
	)
	if err != nil {
		return fmt.Errorf("failed to save property definition: %w", err)
	}
	return nil
}

func (s *Store) DeleteDefinition(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM property_definitions WHERE prop_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete property definition: %w", err)
	}
	return nil
}

func scanDefinition(row interface{ Scan(...any) error }) (*inventory.PropertyDefinition, error) {
	var (
		def          inventory.PropertyDefinition
		dataType     string
		description  sql.NullString
		defaultValue sql.NullString
	)
	err := row.Scan(&def.Key, &def.Label, &dataType, &description, &defaultValue,
		&def.Required, &def.Unique)
	if err != nil {
		return nil, err
	}
	def.DataType = inventory.DataType(dataType)
	def.Description = description.String
	def.Default = defaultValue.String
	return &def, nil
}

// =============================================================================
// RESOURCE TYPES (registry.Store)
// =============================================================================

const typeColumns = `id, name, description, is_system, mandatory_json, created_at, updated_at`

func (s *Store) GetType(ctx context.Context, id inventory.TypeID) (*registry.ResourceType, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+typeColumns+` FROM resource_types WHERE id = ?`, string(id))
	t, err := scanType(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) GetTypeByName(ctx context.Context, name string) (*registry.ResourceType, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+typeColumns+` FROM resource_types WHERE name = ?`, name)
	t, err := scanType(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) ListTypes(ctx context.Context) ([]registry.ResourceType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+typeColumns+` FROM resource_types ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query resource types: %w", err)
	}
	defer rows.Close()

	var out []registry.ResourceType
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) SaveType(ctx context.Context, t registry.ResourceType) error {
	mandatoryJSON, err := json.Marshal(t.MandatoryProperties)
	if err != nil {
		return fmt.Errorf("failed to encode mandatory properties: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resource_types
		(id, name, description, is_system, mandatory_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			mandatory_json = excluded.mandatory_json,
			updated_at = excluded.updated_at`,
		string(t.ID), t.Name, t.Description, t.IsSystem, string(mandatoryJSON),
		t.CreatedAt.UTC().Format(time.RFC3339), t.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save resource type: %w", err)
	}
	return nil
}

func (s *Store) DeleteType(ctx context.Context, id inventory.TypeID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM resource_types WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete resource type: %w", err)
	}
	return nil
}

func scanType(row interface{ Scan(...any) error }) (*registry.ResourceType, error) {
	var (
		t             registry.ResourceType
		id            string
		description   sql.NullString
		mandatoryJSON string
		createdAt     string
		updatedAt     string
	)
	err := row.Scan(&id, &t.Name, &description, &t.IsSystem, &mandatoryJSON,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.ID = inventory.TypeID(id)
	t.Description = description.String
	if err := json.Unmarshal([]byte(mandatoryJSON), &t.MandatoryProperties); err != nil {
		return nil, fmt.Errorf("failed to decode mandatory properties: %w", err)
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

// =============================================================================
// CATEGORIES (registry.Store)
// =============================================================================

func (s *Store) GetCategory(ctx context.Context, id inventory.CategoryID) (*registry.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, type_id, is_system, created_at
		FROM resource_categories WHERE id = ?`, string(id))
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) ListCategoriesByType(ctx context.Context, typeID inventory.TypeID) ([]registry.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type_id, is_system, created_at
		FROM resource_categories WHERE type_id = ? ORDER BY name ASC`, string(typeID))
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []registry.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) SaveCategory(ctx context.Context, c registry.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resource_categories (id, name, type_id, is_system, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		string(c.ID), c.Name, string(c.TypeID), c.IsSystem,
		c.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id inventory.CategoryID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM resource_categories WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func (s *Store) CountCategoriesByType(ctx context.Context, typeID inventory.TypeID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM resource_categories WHERE type_id = ?`,
		string(typeID)).Scan(&count)
	return count, err
}

func scanCategory(row interface{ Scan(...any) error }) (*registry.Category, error) {
	var (
		c         registry.Category
		id        string
		typeID    string
		createdAt string
	)
	err := row.Scan(&id, &c.Name, &typeID, &c.IsSystem, &createdAt)
	if err != nil {
		return nil, err
	}
	c.ID = inventory.CategoryID(id)
	c.TypeID = inventory.TypeID(typeID)
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

// =============================================================================
// USAGE COUNTS (registry.UsageCounter)
// =============================================================================

func (s *Store) ResourceCountByType(ctx context.Context, typeID inventory.TypeID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM resources WHERE type_id = ?`,
		string(typeID)).Scan(&count)
	return count, err
}

func (s *Store) ResourceCountByCategory(ctx context.Context, categoryID inventory.CategoryID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM resources WHERE category_id = ?`,
		string(categoryID)).Scan(&count)
	return count, err
}

// =============================================================================
// EMPLOYEES (employee.Store)
// =============================================================================

func (s *Store) Get(ctx context.Context, id inventory.EmployeeID) (*inventory.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM employees WHERE id = ?`, string(id))
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*inventory.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM employees WHERE email = ?`, email)
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) List(ctx context.Context) ([]inventory.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, created_at FROM employees ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var out []inventory.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *Store) Save(ctx context.Context, e inventory.Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, email, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email`,
		string(e.ID), e.Name, e.Email, e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id inventory.EmployeeID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return nil
}

func scanEmployee(row interface{ Scan(...any) error }) (*inventory.Employee, error) {
	var (
		e         inventory.Employee
		id        string
		createdAt string
	)
	err := row.Scan(&id, &e.Name, &e.Email, &createdAt)
	if err != nil {
		return nil, err
	}
	e.ID = inventory.EmployeeID(id)
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}

// =============================================================================
// AUDIT SINK (audit.Sink)
// =============================================================================

func (s *Store) SaveChange(ctx context.Context, c audit.ChangeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log
		(id, entity_type, entity_id, actor_id, field, old_value, new_value, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.EntityType, c.EntityID, nullString(c.ActorID), c.Field,
		nullString(c.OldValue), nullString(c.NewValue),
		c.RecordedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit record: %w", err)
	}
	return nil
}

func (s *Store) SaveEvent(ctx context.Context, e audit.TimelineEvent) error {
	metadataJSON, _ := json.Marshal(e.Metadata)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO timeline_events (id, title, description, metadata_json, recorded_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Description, string(metadataJSON),
		e.RecordedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save timeline event: %w", err)
	}
	return nil
}
