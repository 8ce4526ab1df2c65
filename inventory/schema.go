/*
schema.go - Property validation against a resource's schema

PURPOSE:
  Validates a caller-supplied properties map against a Schema. The
  schema is closed: every required key must be present, no key outside
  the schema is accepted, and every value's runtime shape must match
  the declared data type. Validation happens once at the boundary; the
  result carries the values as typed PropertyValues so the rest of the
  engine never re-checks untyped maps.

TWO CHECKS:
  ValidateProperties: full schema check (required / closed / typed)
  ValidateMandatory:  the stricter ResourceType-level subset check -
                      missing, nil, or empty-string values all violate,
                      independent of the full schema

Neither check has side effects.
*/
package inventory

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ValidationResult reports everything wrong with a properties map.
// Values is populated with the typed values for every key that parsed
// cleanly; it is complete only when Valid is true.
type ValidationResult struct {
	Valid       bool
	MissingKeys []string
	ExtraKeys   []string
	TypeErrors  []TypeError
	Values      PropertyMap
}

// Err converts a failed result into a ValidationError, nil otherwise.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{
		Code:        CodeSchemaViolation,
		MissingKeys: r.MissingKeys,
		ExtraKeys:   r.ExtraKeys,
		TypeErrors:  r.TypeErrors,
	}
}

// ValidateProperties checks values against schema.
//   - Every Required key must be present and non-empty -> MissingKeys
//   - Every key not declared by the schema -> ExtraKeys
//   - Every present value must match its declared DataType -> TypeErrors
//
// Valid is true iff all three lists are empty.
func ValidateProperties(values map[string]any, schema Schema) ValidationResult {
	result := ValidationResult{Values: make(PropertyMap, len(values))}

	for _, def := range schema {
		raw, ok := values[def.Key]
		if !ok || raw == nil {
			if def.Required {
				result.MissingKeys = append(result.MissingKeys, def.Key)
			}
			continue
		}
		pv, err := ParsePropertyValue(def.DataType, raw)
		if err != nil {
			result.TypeErrors = append(result.TypeErrors, TypeError{Key: def.Key, Expected: def.DataType, Value: raw})
			continue
		}
		if def.Required && pv.IsEmpty() {
			result.MissingKeys = append(result.MissingKeys, def.Key)
			continue
		}
		result.Values[def.Key] = pv
	}

	for key := range values {
		if schema.Definition(key) == nil {
			result.ExtraKeys = append(result.ExtraKeys, key)
		}
	}
	sort.Strings(result.ExtraKeys)

	result.Valid = len(result.MissingKeys) == 0 && len(result.ExtraKeys) == 0 && len(result.TypeErrors) == 0
	return result
}

// MandatoryResult reports the ResourceType-level mandatory check.
type MandatoryResult struct {
	Valid   bool
	Missing []string
}

// Err converts a failed result into the MISSING_MANDATORY_PROPERTIES
// validation error listing exactly the absent keys.
func (r MandatoryResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Code: CodeMissingMandatory, MissingKeys: r.Missing}
}

// ValidateMandatory checks only the type-level mandatory key set.
// A key is violated when it is absent, nil, or an empty string - this
// is stricter than the schema check and independent of it.
func ValidateMandatory(values map[string]any, mandatoryKeys []string) MandatoryResult {
	result := MandatoryResult{Valid: true}
	for _, key := range mandatoryKeys {
		raw, ok := values[key]
		if !ok || raw == nil {
			result.Missing = append(result.Missing, key)
			continue
		}
		if s, isString := raw.(string); isString && s == "" {
			result.Missing = append(result.Missing, key)
		}
	}
	result.Valid = len(result.Missing) == 0
	return result
}

// =============================================================================
// VALUE PARSING - One-time boundary conversion to PropertyValue
// =============================================================================

// ParsePropertyValue converts a raw boundary value (JSON-decoded or
// already typed) into a PropertyValue of the declared data type.
// NUMBER accepts numeric types and numeric strings but rejects NaN/Inf;
// DATE accepts time.Time, RFC 3339, or YYYY-MM-DD strings.
func ParsePropertyValue(dt DataType, raw any) (PropertyValue, error) {
	switch dt {
	case DataTypeString:
		s, ok := raw.(string)
		if !ok {
			return PropertyValue{}, fmt.Errorf("expected string, got %T", raw)
		}
		return StringValue(s), nil

	case DataTypeNumber:
		switch n := raw.(type) {
		case decimal.Decimal:
			return NumberValue(n), nil
		case float64:
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return PropertyValue{}, fmt.Errorf("number must be finite")
			}
			return NumberValue(decimal.NewFromFloat(n)), nil
		case int:
			return NumberValue(decimal.NewFromInt(int64(n))), nil
		case int64:
			return NumberValue(decimal.NewFromInt(n)), nil
		case json.Number:
			d, err := decimal.NewFromString(n.String())
			if err != nil {
				return PropertyValue{}, fmt.Errorf("invalid number %q", n)
			}
			return NumberValue(d), nil
		case string:
			d, err := decimal.NewFromString(n)
			if err != nil {
				return PropertyValue{}, fmt.Errorf("invalid number %q", n)
			}
			return NumberValue(d), nil
		}
		return PropertyValue{}, fmt.Errorf("expected number, got %T", raw)

	case DataTypeBoolean:
		b, ok := raw.(bool)
		if !ok {
			return PropertyValue{}, fmt.Errorf("expected boolean, got %T", raw)
		}
		return BoolValue(b), nil

	case DataTypeDate:
		switch d := raw.(type) {
		case time.Time:
			return DateValue(d), nil
		case string:
			if t, err := time.Parse(time.RFC3339, d); err == nil {
				return DateValue(t), nil
			}
			if t, err := time.Parse("2006-01-02", d); err == nil {
				return DateValue(t), nil
			}
			return PropertyValue{}, fmt.Errorf("invalid date %q", d)
		}
		return PropertyValue{}, fmt.Errorf("expected date, got %T", raw)
	}

	return PropertyValue{}, fmt.Errorf("unknown data type %q", dt)
}

// DecodeProperties re-types a stored raw map against the schema. Used
// on the load path where values were validated at write time; unknown
// keys are dropped rather than rejected so old rows survive.
func DecodeProperties(raw map[string]any, schema Schema) PropertyMap {
	props := make(PropertyMap, len(raw))
	for key, value := range raw {
		def := schema.Definition(key)
		if def == nil || value == nil {
			continue
		}
		if pv, err := ParsePropertyValue(def.DataType, value); err == nil {
			props[key] = pv
		}
	}
	return props
}
