package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/asset-inventory/inventory"
)

// seedDefinitions is the starter property catalog. Definitions already
// present are left alone so operator edits survive restarts.
var seedDefinitions = []inventory.PropertyDefinition{
	{Key: "serialNumber", Label: "Serial Number", DataType: inventory.DataTypeString, Description: "Manufacturer serial number", Required: true, Unique: true},
	{Key: "warrantyExpiry", Label: "Warranty Expiry", DataType: inventory.DataTypeDate, Description: "Date the manufacturer warranty ends", Required: true},
	{Key: "licenseKey", Label: "License Key", DataType: inventory.DataTypeString, Description: "Software license key", Required: true, Unique: true},
	{Key: "maxUsers", Label: "Max Users", DataType: inventory.DataTypeNumber, Description: "Seat limit for a shared subscription", Required: true},
	{Key: "purchaseDate", Label: "Purchase Date", DataType: inventory.DataTypeDate, Description: "Date of purchase"},
	{Key: "vendor", Label: "Vendor", DataType: inventory.DataTypeString, Description: "Supplying vendor"},
	{Key: "model", Label: "Model", DataType: inventory.DataTypeString, Description: "Manufacturer model name"},
	{Key: "isRefurbished", Label: "Refurbished", DataType: inventory.DataTypeBoolean, Description: "Whether the unit was refurbished"},
}

type seedCategory struct {
	typeName string
	name     string
}

var seedCategories = []seedCategory{
	{inventory.TypeHardware, "Laptop"},
	{inventory.TypeHardware, "Monitor"},
	{inventory.TypeHardware, "Phone"},
	{inventory.TypeSoftware, "Desktop License"},
	{inventory.TypeCloud, "SaaS Subscription"},
}

// Seed installs the system types, their default categories, and the
// starter property catalog. Safe to call on every startup.
func (s *Service) Seed(ctx context.Context) error {
	for _, def := range seedDefinitions {
		existing, err := s.Store.GetDefinition(ctx, def.Key)
		if err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}
		if existing != nil {
			continue
		}
		if err := s.Store.SaveDefinition(ctx, def); err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}
	}

	byName := map[string]inventory.TypeID{}
	for name, mandatory := range defaultMandatory {
		existing, err := s.Store.GetTypeByName(ctx, name)
		if err != nil {
			return fmt.Errorf("seeding types: %w", err)
		}
		if existing != nil {
			byName[name] = existing.ID
			continue
		}
		now := time.Now().UTC()
		t := ResourceType{
			ID:                  inventory.TypeID(inventory.NewID()),
			Name:                name,
			IsSystem:            true,
			MandatoryProperties: append([]string(nil), mandatory...),
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := s.Store.SaveType(ctx, t); err != nil {
			return fmt.Errorf("seeding types: %w", err)
		}
		byName[name] = t.ID
	}

	for _, sc := range seedCategories {
		typeID, ok := byName[sc.typeName]
		if !ok {
			continue
		}
		existing, err := s.Store.ListCategoriesByType(ctx, typeID)
		if err != nil {
			return fmt.Errorf("seeding categories: %w", err)
		}
		found := false
		for _, c := range existing {
			if c.Name == sc.name {
				found = true
				break
			}
		}
		if found {
			continue
		}
		c := Category{
			ID:        inventory.CategoryID(inventory.NewID()),
			Name:      sc.name,
			TypeID:    typeID,
			IsSystem:  true,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.Store.SaveCategory(ctx, c); err != nil {
			return fmt.Errorf("seeding categories: %w", err)
		}
	}
	return nil
}
