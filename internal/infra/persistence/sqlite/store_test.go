package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"zoocore/pkg/domain"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	var zoneID, creatureID string
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		zone, err := tx.CreateZone(domain.Zone{Name: "Aquatic", Description: "water", Capacity: 12})
		if err != nil {
			return err
		}
		zoneID = zone.ID
		creature, err := tx.CreateCreature(domain.Creature{Name: "Unicornio", Species: "Mistico", DangerLevel: 3, HealthStatus: domain.HealthStable, ZoneID: &zoneID})
		creatureID = creature.ID
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if reloaded.Path() != path {
		t.Fatalf("unexpected path %s", reloaded.Path())
	}
	creature, ok := reloaded.GetCreature(creatureID)
	if !ok || creature.Name != "Unicornio" || creature.DangerLevel != 3 {
		t.Fatalf("expected creature to reload, got %+v (found=%v)", creature, ok)
	}
	zone, ok := reloaded.GetZone(zoneID)
	if !ok || zone.Capacity != 12 {
		t.Fatalf("expected zone to reload, got %+v", zone)
	}
	if len(zone.CreatureIDs) != 1 || zone.CreatureIDs[0] != creatureID {
		t.Fatalf("expected derived membership after reload, got %v", zone.CreatureIDs)
	}
}

func TestSQLiteStoreFailedTransactionDoesNotPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteCreature("missing")
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count state rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no snapshot rows after failed transaction, got %d", count)
	}
	_ = store.Close()
}

func TestSQLiteStoreWriteFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	var creatureID string
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		c, err := tx.CreateCreature(domain.Creature{Name: "Kraken", Species: "Cephalopod", DangerLevel: 8, HealthStatus: domain.HealthStable})
		creatureID = c.ID
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.DB().Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateCreature(domain.Creature{Name: "Hydra", Species: "Serpent", DangerLevel: 7, HealthStatus: domain.HealthStable})
		return err
	}); err == nil {
		t.Fatalf("expected write error on closed database")
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteCreature(creatureID)
	}); err == nil {
		t.Fatalf("expected delete to fail on closed database")
	}
	creatures := store.ListCreatures()
	if len(creatures) != 1 || creatures[0].ID != creatureID {
		t.Fatalf("failed writes must not change visible state, got %+v", creatures)
	}
}
