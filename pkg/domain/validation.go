package domain

import (
	"fmt"
	"strings"
)

// ValidateCreature checks creature field constraints and returns every violation found.
func ValidateCreature(c Creature) []FieldViolation {
	var out []FieldViolation
	if strings.TrimSpace(c.Name) == "" {
		out = append(out, FieldViolation{Field: "name", Message: "must not be blank"})
	}
	if strings.TrimSpace(c.Species) == "" {
		out = append(out, FieldViolation{Field: "species", Message: "must not be blank"})
	}
	if c.DangerLevel < MinDangerLevel || c.DangerLevel > MaxDangerLevel {
		out = append(out, FieldViolation{
			Field:   "danger_level",
			Message: fmt.Sprintf("must be between %d and %d", MinDangerLevel, MaxDangerLevel),
		})
	}
	return out
}

// ValidateZone checks zone field constraints and returns every violation found.
func ValidateZone(z Zone) []FieldViolation {
	var out []FieldViolation
	if strings.TrimSpace(z.Name) == "" {
		out = append(out, FieldViolation{Field: "name", Message: "must not be blank"})
	}
	if z.Capacity < 0 {
		out = append(out, FieldViolation{Field: "capacity", Message: "must be greater than or equal to 0"})
	}
	return out
}

// CheckCreature wraps ValidateCreature into a ValidationError, or nil when valid.
func CheckCreature(c Creature) error {
	if violations := ValidateCreature(c); len(violations) > 0 {
		return ValidationError{Entity: EntityCreature, Violations: violations}
	}
	return nil
}

// CheckZone wraps ValidateZone into a ValidationError, or nil when valid.
func CheckZone(z Zone) error {
	if violations := ValidateZone(z); len(violations) > 0 {
		return ValidationError{Entity: EntityZone, Violations: violations}
	}
	return nil
}
