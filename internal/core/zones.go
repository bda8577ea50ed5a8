package core

import (
	"context"

	"zoocore/pkg/domain"
)

// ZoneService implements CRUD for zones.
type ZoneService struct {
	svc *Service
}

// CreateZone validates and persists a new zone.
func (z *ZoneService) CreateZone(ctx context.Context, zone Zone) (Zone, Result, error) {
	const op = "create_zone"
	var (
		created Zone
		res     Result
	)
	err := z.svc.run(ctx, op, func(ctx context.Context) (string, error) {
		input := zone
		input.Base = domain.Base{}
		input.CreatureIDs = nil
		if err := domain.CheckZone(input); err != nil {
			return "", err
		}
		var err error
		res, err = z.svc.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			created, txErr = tx.CreateZone(input)
			return txErr
		})
		return created.ID, err
	})
	if err == nil {
		z.svc.logResult(op, res)
	}
	return created, res, err
}

// GetByID returns the zone with the given id or domain.ErrNotFound.
func (z *ZoneService) GetByID(ctx context.Context, id string) (Zone, error) {
	var found Zone
	err := z.svc.run(ctx, "get_zone", func(ctx context.Context) (string, error) {
		return id, z.svc.store.View(ctx, func(view TransactionView) error {
			zone, ok := view.FindZone(id)
			if !ok {
				return domain.ErrNotFound{Entity: domain.EntityZone, ID: id}
			}
			found = zone
			return nil
		})
	})
	return found, err
}

// List returns every zone ordered by creation time, then id.
func (z *ZoneService) List(ctx context.Context) ([]Zone, error) {
	var out []Zone
	err := z.svc.run(ctx, "list_zones", func(ctx context.Context) (string, error) {
		return "", z.svc.store.View(ctx, func(view TransactionView) error {
			out = view.ListZones()
			return nil
		})
	})
	return out, err
}

// UpdateZone overwrites name and capacity, and the description when supplied.
func (z *ZoneService) UpdateZone(ctx context.Context, id string, update domain.ZoneUpdate) (Zone, Result, error) {
	const op = "update_zone"
	var (
		updated Zone
		res     Result
	)
	err := z.svc.run(ctx, op, func(ctx context.Context) (string, error) {
		var err error
		res, err = z.svc.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateZone(id, func(current *Zone) error {
				update.Apply(current)
				return domain.CheckZone(*current)
			})
			return txErr
		})
		return id, err
	})
	if err == nil {
		z.svc.logResult(op, res)
	}
	return updated, res, err
}

// DeleteZone removes a zone. Creatures it housed stay in place with their
// zone link cleared.
func (z *ZoneService) DeleteZone(ctx context.Context, id string) (Result, error) {
	const op = "delete_zone"
	var res Result
	err := z.svc.run(ctx, op, func(ctx context.Context) (string, error) {
		var err error
		res, err = z.svc.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteZone(id)
		})
		return id, err
	})
	if err == nil {
		z.svc.logResult(op, res)
	}
	return res, err
}
