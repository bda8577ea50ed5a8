package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateCreature(Creature) (Creature, error)
	UpdateCreature(id string, mutator func(*Creature) error) (Creature, error)
	DeleteCreature(id string) error
	FindCreature(id string) (Creature, bool)
	CreateZone(Zone) (Zone, error)
	UpdateZone(id string, mutator func(*Zone) error) (Zone, error)
	DeleteZone(id string) error
	FindZone(id string) (Zone, bool)
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	ListCreatures() []Creature
	ListZones() []Zone
	FindCreature(id string) (Creature, bool)
	FindZone(id string) (Zone, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetCreature(id string) (Creature, bool)
	ListCreatures() []Creature
	GetZone(id string) (Zone, bool)
	ListZones() []Zone
}
