package core

import (
	"context"

	"zoocore/pkg/domain"
)

// CreatureService implements CRUD and zone placement for creatures.
type CreatureService struct {
	svc *Service
}

// CreateCreature validates and persists a new creature. Caller supplied ids
// and timestamps are ignored; the store assigns them.
func (c *CreatureService) CreateCreature(ctx context.Context, creature Creature) (Creature, Result, error) {
	const op = "create_creature"
	var (
		created Creature
		res     Result
	)
	err := c.svc.run(ctx, op, func(ctx context.Context) (string, error) {
		input := creature
		input.Base = domain.Base{}
		if err := domain.CheckCreature(input); err != nil {
			return "", err
		}
		var err error
		res, err = c.svc.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			created, txErr = tx.CreateCreature(input)
			return txErr
		})
		return created.ID, err
	})
	if err == nil {
		c.svc.logResult(op, res)
	}
	return created, res, err
}

// GetByID returns the creature with the given id or domain.ErrNotFound.
func (c *CreatureService) GetByID(ctx context.Context, id string) (Creature, error) {
	var found Creature
	err := c.svc.run(ctx, "get_creature", func(ctx context.Context) (string, error) {
		return id, c.svc.store.View(ctx, func(view TransactionView) error {
			creature, ok := view.FindCreature(id)
			if !ok {
				return domain.ErrNotFound{Entity: domain.EntityCreature, ID: id}
			}
			found = creature
			return nil
		})
	})
	return found, err
}

// List returns every creature ordered by creation time, then id.
func (c *CreatureService) List(ctx context.Context) ([]Creature, error) {
	var out []Creature
	err := c.svc.run(ctx, "list_creatures", func(ctx context.Context) (string, error) {
		return "", c.svc.store.View(ctx, func(view TransactionView) error {
			out = view.ListCreatures()
			return nil
		})
	})
	return out, err
}

// UpdateCreature overwrites the mutable fields of an existing creature and
// validates the result before it is persisted.
func (c *CreatureService) UpdateCreature(ctx context.Context, id string, update domain.CreatureUpdate) (Creature, Result, error) {
	const op = "update_creature"
	var (
		updated Creature
		res     Result
	)
	err := c.svc.run(ctx, op, func(ctx context.Context) (string, error) {
		var err error
		res, err = c.svc.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateCreature(id, func(current *Creature) error {
				update.Apply(current)
				return domain.CheckCreature(*current)
			})
			return txErr
		})
		return id, err
	})
	if err == nil {
		c.svc.logResult(op, res)
	}
	return updated, res, err
}

// DeleteCreature removes a creature unless it is in critical health.
func (c *CreatureService) DeleteCreature(ctx context.Context, id string) (Result, error) {
	const op = "delete_creature"
	var res Result
	err := c.svc.run(ctx, op, func(ctx context.Context) (string, error) {
		var err error
		res, err = c.svc.store.RunInTransaction(ctx, func(tx Transaction) error {
			current, ok := tx.FindCreature(id)
			if !ok {
				return domain.ErrNotFound{Entity: domain.EntityCreature, ID: id}
			}
			if current.HealthStatus.IsCritical() {
				return domain.IllegalStateError{
					Entity: domain.EntityCreature,
					ID:     id,
					Reason: "cannot delete a creature in critical health",
				}
			}
			return tx.DeleteCreature(id)
		})
		return id, err
	})
	if err == nil {
		c.svc.logResult(op, res)
	}
	return res, err
}

// AssignZone places a creature into a zone. The zone_capacity rule blocks
// placements that would overfill the zone.
func (c *CreatureService) AssignZone(ctx context.Context, creatureID, zoneID string) (Creature, Result, error) {
	const op = "assign_zone"
	var (
		updated Creature
		res     Result
	)
	err := c.svc.run(ctx, op, func(ctx context.Context) (string, error) {
		var err error
		res, err = c.svc.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindZone(zoneID); !ok {
				return domain.ErrNotFound{Entity: domain.EntityZone, ID: zoneID}
			}
			var txErr error
			updated, txErr = tx.UpdateCreature(creatureID, func(current *Creature) error {
				id := zoneID
				current.ZoneID = &id
				return nil
			})
			return txErr
		})
		return creatureID, err
	})
	if err == nil {
		c.svc.logResult(op, res)
	}
	return updated, res, err
}

// ReleaseFromZone clears the zone link of a creature. Releasing an unplaced
// creature is a no-op update.
func (c *CreatureService) ReleaseFromZone(ctx context.Context, creatureID string) (Creature, Result, error) {
	const op = "release_from_zone"
	var (
		updated Creature
		res     Result
	)
	err := c.svc.run(ctx, op, func(ctx context.Context) (string, error) {
		var err error
		res, err = c.svc.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateCreature(creatureID, func(current *Creature) error {
				current.ZoneID = nil
				return nil
			})
			return txErr
		})
		return creatureID, err
	})
	if err == nil {
		c.svc.logResult(op, res)
	}
	return updated, res, err
}
