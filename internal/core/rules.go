package core

import (
	"context"
	"fmt"

	"zoocore/pkg/domain"
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewZoneCapacityRule())
	return engine
}

// NewZoneCapacityRule returns the in-transaction rule enforcing zone capacity.
// Placing a creature into an over-capacity zone blocks the transaction; an
// over-capacity zone caused only by editing the zone is reported as a warning.
func NewZoneCapacityRule() domain.Rule {
	return zoneCapacityRule{}
}

type zoneCapacityRule struct{}

func (zoneCapacityRule) Name() string { return "zone_capacity" }

func (r zoneCapacityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	placed := placedZones(changes)
	occupancy := make(map[string]int)
	for _, creature := range view.ListCreatures() {
		if creature.ZoneID == nil {
			continue
		}
		occupancy[*creature.ZoneID]++
	}

	res := domain.Result{}
	for _, zone := range view.ListZones() {
		count := occupancy[zone.ID]
		if count <= zone.Capacity {
			continue
		}
		severity := domain.SeverityWarn
		if placed[zone.ID] {
			severity = domain.SeverityBlock
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: severity,
			Message:  fmt.Sprintf("zone %s (%s) over capacity: %d/%d creatures", zone.Name, zone.ID, count, zone.Capacity),
			Entity:   domain.EntityZone,
			EntityID: zone.ID,
		})
	}
	return res, nil
}

// placedZones collects zones that received a creature in this change set.
func placedZones(changes []domain.Change) map[string]bool {
	out := make(map[string]bool)
	for _, change := range changes {
		if change.Entity != domain.EntityCreature || change.Action == domain.ActionDelete {
			continue
		}
		after, ok := change.After.(domain.Creature)
		if !ok || after.ZoneID == nil {
			continue
		}
		if before, ok := change.Before.(domain.Creature); ok && before.ZoneID != nil && *before.ZoneID == *after.ZoneID {
			continue
		}
		out[*after.ZoneID] = true
	}
	return out
}
