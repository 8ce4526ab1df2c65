/*
policy.go - Assignment model resolution per resource type

PURPOSE:
  Maps a resource type to the assignment model its assignments use:

    Hardware / Physical  -> always INDIVIDUAL (never pooled or shared)
    Software             -> POOLED when explicitly requested, else INDIVIDUAL
    Cloud                -> always SHARED
    custom types         -> the requested model, else INDIVIDUAL

  The resolution is authoritative: when a type forces a model, a
  conflicting request is silently overridden rather than rejected.
  Callers that care can compare the result with what they asked for.
*/
package inventory

import "strings"

// Well-known system type names. Matching is case-insensitive so that
// "hardware" and "Hardware" resolve alike.
const (
	TypeHardware = "Hardware"
	TypeSoftware = "Software"
	TypeCloud    = "Cloud"
)

// ResolveAssignmentType returns the assignment model for a resource
// type name and an optional requested model ("" means no preference).
func ResolveAssignmentType(typeName string, requested AssignmentType) AssignmentType {
	switch strings.ToLower(typeName) {
	case "hardware", "physical":
		return AssignIndividual
	case "software":
		if requested == AssignPooled {
			return AssignPooled
		}
		return AssignIndividual
	case "cloud":
		return AssignShared
	}

	// Custom types: honor the request when one is given.
	if requested != "" {
		return requested
	}
	return AssignIndividual
}

// ValidAssignmentType reports whether t is one of the known models.
func ValidAssignmentType(t AssignmentType) bool {
	switch t {
	case AssignIndividual, AssignPooled, AssignShared:
		return true
	}
	return false
}
