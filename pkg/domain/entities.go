// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by zoocore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityCreature identifies a creature record.
	EntityCreature EntityType = "creature"
	// EntityZone identifies a zone record.
	EntityZone EntityType = "zone"
)

// HealthStatus captures the medical state of a creature. Known values are
// exposed as constants but any string is accepted and persisted as-is.
type HealthStatus string

// Health statuses with domain meaning.
const (
	HealthStable     HealthStatus = "stable"
	HealthRecovering HealthStatus = "recovering"
	// HealthCritical blocks deletion of the creature.
	HealthCritical HealthStatus = "critical"
)

// IsCritical reports whether the status is the critical value.
func (h HealthStatus) IsCritical() bool {
	return h == HealthCritical
}

// Danger level bounds, inclusive.
const (
	MinDangerLevel = 0
	MaxDangerLevel = 10
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Creature represents an individual animal kept by the zoo.
type Creature struct {
	Base
	Name         string       `json:"name"`
	Species      string       `json:"species"`
	DangerLevel  int          `json:"danger_level"`
	HealthStatus HealthStatus `json:"health_status"`
	ZoneID       *string      `json:"zone_id,omitempty"`
}

// Zone represents an enclosure housing creatures up to its capacity.
type Zone struct {
	Base
	Name        string `json:"name"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
	// CreatureIDs is derived from creature zone links on read.
	CreatureIDs []string `json:"creature_ids"`
}

// CreatureUpdate carries the mutable creature fields applied by an update.
type CreatureUpdate struct {
	Name         string       `json:"name"`
	Species      string       `json:"species"`
	DangerLevel  int          `json:"danger_level"`
	HealthStatus HealthStatus `json:"health_status"`
}

// Apply overwrites the mutable fields of c.
func (u CreatureUpdate) Apply(c *Creature) {
	c.Name = u.Name
	c.Species = u.Species
	c.DangerLevel = u.DangerLevel
	c.HealthStatus = u.HealthStatus
}

// ZoneUpdate carries the mutable zone fields applied by an update. A nil
// Description leaves the stored description untouched.
type ZoneUpdate struct {
	Name        string  `json:"name"`
	Capacity    int     `json:"capacity"`
	Description *string `json:"description,omitempty"`
}

// Apply overwrites the mutable fields of z.
func (u ZoneUpdate) Apply(z *Zone) {
	z.Name = u.Name
	z.Capacity = u.Capacity
	if u.Description != nil {
		z.Description = *u.Description
	}
}

// Change describes a mutation applied within a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Actions recorded on Change entries.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a rule outcome.
type Violation struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Entity   EntityType `json:"entity"`
	EntityID string     `json:"entity_id,omitempty"`
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation `json:"violations,omitempty"`
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}
