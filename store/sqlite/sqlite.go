/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces. In production, the same patterns apply to PostgreSQL - only
minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  inventory.TxStores:   Resources, items, assignments with transactions
  registry.Store:       Property catalog, types, categories
  registry.UsageCounter Referential counts for safe deletes
  employee.Store:       Employee roster
  audit.Sink:           Audit log and timeline persistence

KEY TABLES:
  resources:            Catalog entries with their schema JSON
  resource_items:       Concrete items; properties stored as JSON
  resource_assignments: Assignment records (never deleted)
  item_unique_values:   One row per unique-flagged property value
  property_definitions, resource_types, resource_categories
  employees, audit_log, timeline_events

CONSTRAINT BACKSTOPS:
  The services enforce the business invariants inside WithTx, and the
  schema backs the critical ones with unique indexes:
  - idx_one_active_per_item: at most one ACTIVE assignment may claim an
    item (exclusivity race backstop)
  - item_unique_values(prop_key, prop_value): serial-number style
    global uniqueness
  - idx_one_active_grant: one ACTIVE resource-level grant per employee
    and resource

LEGACY MIRROR:
  serial_number, warranty_expiry, and license_key are mirrored into
  fixed columns on resource_items at write time so pre-existing
  reporting queries keep working. The JSON properties blob is the
  source of truth; the mirror is write-only from this package's point
  of view.

CONCURRENCY:
  A single writer mutex serializes WithTx. SQLite is opened with WAL
  (Write-Ahead Logging) so readers don't block behind the writer.

USAGE:
  store, err := sqlite.New("./data/inventory.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - inventory/store.go: Interface definitions
  - inventory/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/asset-inventory/inventory"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The in-memory database vanishes if its single connection is
	// recycled.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Resources (catalog entries)
	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		schema_json TEXT NOT NULL,
		schema_locked BOOLEAN NOT NULL DEFAULT FALSE,
		quantity INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_resources_type
		ON resources(type_id);
	CREATE INDEX IF NOT EXISTS idx_resources_category
		ON resources(category_id);

	-- Items (concrete units)
	CREATE TABLE IF NOT EXISTS resource_items (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL REFERENCES resources(id),
		status TEXT NOT NULL,
		properties_json TEXT NOT NULL,
		-- legacy reporting mirror, write-only
		serial_number TEXT,
		warranty_expiry TEXT,
		license_key TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_resource
		ON resource_items(resource_id);
	CREATE INDEX IF NOT EXISTS idx_items_status
		ON resource_items(resource_id, status);

	-- One row per unique-flagged property value. The UNIQUE constraint
	-- is the database-level backstop for serial-number uniqueness.
	CREATE TABLE IF NOT EXISTS item_unique_values (
		item_id TEXT NOT NULL REFERENCES resource_items(id) ON DELETE CASCADE,
		prop_key TEXT NOT NULL,
		prop_value TEXT NOT NULL,
		PRIMARY KEY (item_id, prop_key),
		UNIQUE (prop_key, prop_value)
	);

	-- Assignments (never deleted, only transitioned)
	CREATE TABLE IF NOT EXISTS resource_assignments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		resource_id TEXT NOT NULL REFERENCES resources(id),
		item_id TEXT,
		assign_type TEXT NOT NULL,
		status TEXT NOT NULL,
		assigned_by TEXT,
		notes TEXT,
		assigned_at TEXT NOT NULL,
		returned_at TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_employee
		ON resource_assignments(employee_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_resource
		ON resource_assignments(resource_id);

	-- CRITICAL: at most one ACTIVE assignment may claim an item.
	-- SHARED rows carry item_id as bookkeeping only and never claim.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_per_item
		ON resource_assignments(item_id)
		WHERE status = 'ACTIVE' AND item_id IS NOT NULL AND assign_type != 'SHARED';

	-- One active resource-level grant per employee and resource.
	-- Item-bound assignments are exempt: an employee may hold several
	-- distinct items of the same resource.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_grant
		ON resource_assignments(employee_id, resource_id)
		WHERE status = 'ACTIVE' AND item_id IS NULL;

	-- Property catalog
	CREATE TABLE IF NOT EXISTS property_definitions (
		prop_key TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		data_type TEXT NOT NULL,
		description TEXT,
		default_value TEXT,
		is_required BOOLEAN NOT NULL DEFAULT FALSE,
		is_unique BOOLEAN NOT NULL DEFAULT FALSE
	);

	-- Resource types
	CREATE TABLE IF NOT EXISTS resource_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT,
		is_system BOOLEAN NOT NULL DEFAULT FALSE,
		mandatory_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Categories (unique name within a type)
	CREATE TABLE IF NOT EXISTS resource_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type_id TEXT NOT NULL REFERENCES resource_types(id),
		is_system BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		UNIQUE (type_id, name)
	);

	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	);

	-- Audit log
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		actor_id TEXT,
		field TEXT NOT NULL,
		old_value TEXT,
		new_value TEXT,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_entity
		ON audit_log(entity_type, entity_id);

	-- Timeline events
	CREATE TABLE IF NOT EXISTS timeline_events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		metadata_json TEXT,
		recorded_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TXSTORES (inventory.TxStores interface)
// =============================================================================

func (s *Store) Resources() inventory.ResourceStore {
	return &resourceStore{q: s.db}
}

func (s *Store) Items() inventory.ItemStore {
	return &itemStore{q: s.db}
}

func (s *Store) Assignments() inventory.AssignmentStore {
	return &assignmentStore{q: s.db}
}

// WithTx executes fn against transaction-scoped stores. A single
// writer mutex serializes transactions; WAL keeps readers unblocked.
func (s *Store) WithTx(ctx context.Context, fn func(inventory.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStores{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStores struct {
	tx *sql.Tx
}

func (ts *txStores) Resources() inventory.ResourceStore {
	return &resourceStore{q: ts.tx}
}

func (ts *txStores) Items() inventory.ItemStore {
	return &itemStore{q: ts.tx}
}

func (ts *txStores) Assignments() inventory.AssignmentStore {
	return &assignmentStore{q: ts.tx}
}

// =============================================================================
// RESOURCE STORE
// =============================================================================

type resourceStore struct {
	q querier
}

const resourceColumns = `id, name, type_id, category_id, schema_json, schema_locked, quantity, status, created_at, updated_at`

func (rs *resourceStore) Get(ctx context.Context, id inventory.ResourceID) (*inventory.Resource, error) {
	row := rs.q.QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = ?`, string(id))
	r, err := scanResource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (rs *resourceStore) List(ctx context.Context) ([]inventory.Resource, error) {
	rows, err := rs.q.QueryContext(ctx,
		`SELECT `+resourceColumns+` FROM resources ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	var out []inventory.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (rs *resourceStore) Insert(ctx context.Context, r inventory.Resource) error {
	schemaJSON, err := json.Marshal(r.Schema)
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	_, err = rs.q.ExecContext(ctx, `
		INSERT INTO resources
		(id, name, type_id, category_id, schema_json, schema_locked, quantity, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), r.Name, string(r.TypeID), string(r.CategoryID),
		string(schemaJSON), r.SchemaLocked, r.Quantity, string(r.Status),
		r.CreatedAt.UTC().Format(time.RFC3339), r.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert resource: %w", err)
	}
	return nil
}

func (rs *resourceStore) Update(ctx context.Context, r inventory.Resource) error {
	schemaJSON, err := json.Marshal(r.Schema)
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	_, err = rs.q.ExecContext(ctx, `
		UPDATE resources SET
			name = ?, type_id = ?, category_id = ?, schema_json = ?,
			schema_locked = ?, quantity = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		r.Name, string(r.TypeID), string(r.CategoryID), string(schemaJSON),
		r.SchemaLocked, r.Quantity, string(r.Status),
		time.Now().UTC().Format(time.RFC3339), string(r.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to update resource: %w", err)
	}
	return nil
}

func (rs *resourceStore) Delete(ctx context.Context, id inventory.ResourceID) error {
	_, err := rs.q.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	return nil
}

func scanResource(row interface{ Scan(...any) error }) (*inventory.Resource, error) {
	var (
		r          inventory.Resource
		id         string
		typeID     string
		categoryID string
		schemaJSON string
		status     string
		createdAt  string
		updatedAt  string
	)
	err := row.Scan(&id, &r.Name, &typeID, &categoryID, &schemaJSON,
		&r.SchemaLocked, &r.Quantity, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	r.ID = inventory.ResourceID(id)
	r.TypeID = inventory.TypeID(typeID)
	r.CategoryID = inventory.CategoryID(categoryID)
	r.Status = inventory.ResourceStatus(status)
	if err := json.Unmarshal([]byte(schemaJSON), &r.Schema); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

// =============================================================================
// ITEM STORE
// =============================================================================

type itemStore struct {
	q querier
}

// itemColumns joins the resource schema so properties can be decoded
// back into typed values.
const itemColumns = `i.id, i.resource_id, i.status, i.properties_json, i.created_at, i.updated_at, r.schema_json`

const itemFrom = ` FROM resource_items i JOIN resources r ON r.id = i.resource_id `

func (is *itemStore) Get(ctx context.Context, id inventory.ItemID) (*inventory.Item, error) {
	row := is.q.QueryRowContext(ctx,
		`SELECT `+itemColumns+itemFrom+`WHERE i.id = ?`, string(id))
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (is *itemStore) ListByResource(ctx context.Context, resourceID inventory.ResourceID) ([]inventory.Item, error) {
	rows, err := is.q.QueryContext(ctx,
		`SELECT `+itemColumns+itemFrom+`WHERE i.resource_id = ? ORDER BY i.created_at ASC, i.id ASC`,
		string(resourceID))
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var out []inventory.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func (is *itemStore) CountByResource(ctx context.Context, resourceID inventory.ResourceID) (int, error) {
	var count int
	err := is.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM resource_items WHERE resource_id = ?`,
		string(resourceID)).Scan(&count)
	return count, err
}

func (is *itemStore) FindByUniqueValue(ctx context.Context, key, value string) (*inventory.Item, error) {
	var itemID string
	err := is.q.QueryRowContext(ctx,
		`SELECT item_id FROM item_unique_values WHERE prop_key = ? AND prop_value = ?`,
		key, value).Scan(&itemID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return is.Get(ctx, inventory.ItemID(itemID))
}

func (is *itemStore) Insert(ctx context.Context, it inventory.Item) error {
	propsJSON, err := json.Marshal(it.Properties.Raw())
	if err != nil {
		return fmt.Errorf("failed to encode properties: %w", err)
	}

	serial, warranty, license := legacyMirror(it.Properties)
	_, err = is.q.ExecContext(ctx, `
		INSERT INTO resource_items
		(id, resource_id, status, properties_json, serial_number, warranty_expiry, license_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(it.ID), string(it.ResourceID), string(it.Status), string(propsJSON),
		serial, warranty, license,
		it.CreatedAt.UTC().Format(time.RFC3339), it.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return is.syncUniqueValues(ctx, it)
}

func (is *itemStore) Update(ctx context.Context, it inventory.Item) error {
	propsJSON, err := json.Marshal(it.Properties.Raw())
	if err != nil {
		return fmt.Errorf("failed to encode properties: %w", err)
	}

	serial, warranty, license := legacyMirror(it.Properties)
	_, err = is.q.ExecContext(ctx, `
		UPDATE resource_items SET
			status = ?, properties_json = ?,
			serial_number = ?, warranty_expiry = ?, license_key = ?,
			updated_at = ?
		WHERE id = ?`,
		string(it.Status), string(propsJSON),
		serial, warranty, license,
		time.Now().UTC().Format(time.RFC3339), string(it.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	return is.syncUniqueValues(ctx, it)
}

func (is *itemStore) Delete(ctx context.Context, id inventory.ItemID) error {
	if _, err := is.q.ExecContext(ctx,
		`DELETE FROM item_unique_values WHERE item_id = ?`, string(id)); err != nil {
		return fmt.Errorf("failed to delete unique values: %w", err)
	}
	_, err := is.q.ExecContext(ctx, `DELETE FROM resource_items WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// syncUniqueValues rewrites the item's rows in the unique-value side
// table from the resource's current schema.
func (is *itemStore) syncUniqueValues(ctx context.Context, it inventory.Item) error {
	var schemaJSON string
	err := is.q.QueryRowContext(ctx,
		`SELECT schema_json FROM resources WHERE id = ?`,
		string(it.ResourceID)).Scan(&schemaJSON)
	if err != nil {
		return fmt.Errorf("failed to load schema for unique sync: %w", err)
	}
	var schema inventory.Schema
	if err := json.Unmarshal([]byte(schemaJSON), &schema); err != nil {
		return fmt.Errorf("failed to decode schema: %w", err)
	}

	if _, err := is.q.ExecContext(ctx,
		`DELETE FROM item_unique_values WHERE item_id = ?`, string(it.ID)); err != nil {
		return fmt.Errorf("failed to clear unique values: %w", err)
	}

	for _, def := range schema {
		if !def.Unique {
			continue
		}
		val, ok := it.Properties[def.Key]
		if !ok || val.IsEmpty() {
			continue
		}
		_, err := is.q.ExecContext(ctx,
			`INSERT INTO item_unique_values (item_id, prop_key, prop_value) VALUES (?, ?, ?)`,
			string(it.ID), def.Key, val.Canonical())
		if err != nil {
			if isUniqueConstraintError(err) {
				return &inventory.DuplicateValueError{Key: def.Key, Value: val.Canonical()}
			}
			return fmt.Errorf("failed to record unique value: %w", err)
		}
	}
	return nil
}

func scanItem(row interface{ Scan(...any) error }) (*inventory.Item, error) {
	var (
		it         inventory.Item
		id         string
		resourceID string
		status     string
		propsJSON  string
		createdAt  string
		updatedAt  string
		schemaJSON string
	)
	err := row.Scan(&id, &resourceID, &status, &propsJSON, &createdAt, &updatedAt, &schemaJSON)
	if err != nil {
		return nil, err
	}

	it.ID = inventory.ItemID(id)
	it.ResourceID = inventory.ResourceID(resourceID)
	it.Status = inventory.ItemStatus(status)
	it.CreatedAt = parseTime(createdAt)
	it.UpdatedAt = parseTime(updatedAt)

	var schema inventory.Schema
	if err := json.Unmarshal([]byte(schemaJSON), &schema); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(propsJSON), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}
	it.Properties = inventory.DecodeProperties(raw, schema)
	return &it, nil
}

// legacyMirror extracts the fixed reporting columns from the property
// map. Empty values become NULL.
func legacyMirror(props inventory.PropertyMap) (serial, warranty, license sql.NullString) {
	if v, ok := props["serialNumber"]; ok && !v.IsEmpty() {
		serial = sql.NullString{String: v.Canonical(), Valid: true}
	}
	if v, ok := props["warrantyExpiry"]; ok && !v.IsEmpty() {
		warranty = sql.NullString{String: v.Canonical(), Valid: true}
	}
	if v, ok := props["licenseKey"]; ok && !v.IsEmpty() {
		license = sql.NullString{String: v.Canonical(), Valid: true}
	}
	return serial, warranty, license
}

// =============================================================================
// ASSIGNMENT STORE
// =============================================================================

type assignmentStore struct {
	q querier
}

const assignmentColumns = `id, employee_id, resource_id, item_id, assign_type, status, assigned_by, notes, assigned_at, returned_at, updated_at`

func (as *assignmentStore) Get(ctx context.Context, id inventory.AssignmentID) (*inventory.Assignment, error) {
	row := as.q.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM resource_assignments WHERE id = ?`, string(id))
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (as *assignmentStore) ListByEmployee(ctx context.Context, employeeID inventory.EmployeeID) ([]inventory.Assignment, error) {
	return as.query(ctx,
		`SELECT `+assignmentColumns+` FROM resource_assignments WHERE employee_id = ? ORDER BY assigned_at DESC`,
		string(employeeID))
}

func (as *assignmentStore) ListByResource(ctx context.Context, resourceID inventory.ResourceID) ([]inventory.Assignment, error) {
	return as.query(ctx,
		`SELECT `+assignmentColumns+` FROM resource_assignments WHERE resource_id = ? ORDER BY assigned_at DESC`,
		string(resourceID))
}

func (as *assignmentStore) ActiveByItem(ctx context.Context, itemID inventory.ItemID) (*inventory.Assignment, error) {
	row := as.q.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM resource_assignments
		 WHERE item_id = ? AND status = 'ACTIVE' AND assign_type != 'SHARED'`, string(itemID))
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (as *assignmentStore) ActiveByEmployeeAndResource(ctx context.Context, employeeID inventory.EmployeeID, resourceID inventory.ResourceID) ([]inventory.Assignment, error) {
	return as.query(ctx,
		`SELECT `+assignmentColumns+` FROM resource_assignments
		 WHERE employee_id = ? AND resource_id = ? AND status = 'ACTIVE'
		 ORDER BY assigned_at DESC`,
		string(employeeID), string(resourceID))
}

func (as *assignmentStore) CountActive(ctx context.Context, resourceID inventory.ResourceID, t inventory.AssignmentType) (int, error) {
	query := `SELECT COUNT(*) FROM resource_assignments WHERE resource_id = ? AND status = 'ACTIVE'`
	args := []any{string(resourceID)}
	if t != "" {
		query += ` AND assign_type = ?`
		args = append(args, string(t))
	}
	var count int
	err := as.q.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (as *assignmentStore) Insert(ctx context.Context, a inventory.Assignment) error {
	_, err := as.q.ExecContext(ctx, `
		INSERT INTO resource_assignments
		(id, employee_id, resource_id, item_id, assign_type, status, assigned_by, notes, assigned_at, returned_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(a.ID), string(a.EmployeeID), string(a.ResourceID),
		nullString(string(a.ItemID)), string(a.Type), string(a.Status),
		nullString(string(a.AssignedBy)), a.Notes,
		a.AssignedAt.UTC().Format(time.RFC3339), nullTime(a.ReturnedAt),
		a.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			// Lost the race to the constraint backstop.
			if strings.Contains(err.Error(), "idx_one_active_per_item") {
				return &inventory.ItemUnavailableError{ItemID: a.ItemID, Status: inventory.ItemAssigned}
			}
			return &inventory.DuplicateAssignmentError{
				EmployeeID: a.EmployeeID, ResourceID: a.ResourceID, ItemID: a.ItemID,
			}
		}
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}

func (as *assignmentStore) Update(ctx context.Context, a inventory.Assignment) error {
	_, err := as.q.ExecContext(ctx, `
		UPDATE resource_assignments SET
			status = ?, notes = ?, returned_at = ?, updated_at = ?
		WHERE id = ?`,
		string(a.Status), a.Notes, nullTime(a.ReturnedAt),
		time.Now().UTC().Format(time.RFC3339), string(a.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	return nil
}

func (as *assignmentStore) query(ctx context.Context, query string, args ...any) ([]inventory.Assignment, error) {
	rows, err := as.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var out []inventory.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAssignment(row interface{ Scan(...any) error }) (*inventory.Assignment, error) {
	var (
		a          inventory.Assignment
		id         string
		employeeID string
		resourceID string
		itemID     sql.NullString
		assignType string
		status     string
		assignedBy sql.NullString
		notes      sql.NullString
		assignedAt string
		returnedAt sql.NullString
		updatedAt  string
	)
	err := row.Scan(&id, &employeeID, &resourceID, &itemID, &assignType, &status,
		&assignedBy, &notes, &assignedAt, &returnedAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	a.ID = inventory.AssignmentID(id)
	a.EmployeeID = inventory.EmployeeID(employeeID)
	a.ResourceID = inventory.ResourceID(resourceID)
	a.ItemID = inventory.ItemID(itemID.String)
	a.Type = inventory.AssignmentType(assignType)
	a.Status = inventory.AssignmentStatus(status)
	a.AssignedBy = inventory.EmployeeID(assignedBy.String)
	a.Notes = notes.String
	a.AssignedAt = parseTime(assignedAt)
	if returnedAt.Valid {
		t := parseTime(returnedAt.String)
		a.ReturnedAt = &t
	}
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
