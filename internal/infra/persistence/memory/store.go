// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"zoocore/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Creature aliases domain.Creature for in-memory persistence operations.
	Creature = domain.Creature
	// Zone aliases domain.Zone.
	Zone = domain.Zone
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	creatures map[string]Creature
	zones     map[string]Zone
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Creatures map[string]Creature `json:"creatures"`
	Zones     map[string]Zone     `json:"zones"`
}

func newMemoryState() memoryState {
	return memoryState{
		creatures: make(map[string]Creature),
		zones:     make(map[string]Zone),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Creatures: make(map[string]Creature, len(state.creatures)),
		Zones:     make(map[string]Zone, len(state.zones)),
	}
	for k, v := range state.creatures {
		s.Creatures[k] = cloneCreature(v)
	}
	for k, v := range state.zones {
		s.Zones[k] = cloneZone(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Creatures {
		state.creatures[k] = cloneCreature(v)
	}
	for k, v := range s.Zones {
		z := cloneZone(v)
		// membership is derived, never stored
		z.CreatureIDs = nil
		state.zones[k] = z
	}
	return state
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.creatures {
		cloned.creatures[k] = cloneCreature(v)
	}
	for k, v := range s.zones {
		cloned.zones[k] = cloneZone(v)
	}
	return cloned
}

func cloneCreature(c Creature) Creature {
	cp := c
	if c.ZoneID != nil {
		id := *c.ZoneID
		cp.ZoneID = &id
	}
	return cp
}

func cloneZone(z Zone) Zone {
	cp := z
	cp.CreatureIDs = append([]string(nil), z.CreatureIDs...)
	return cp
}

func sortCreatures(out []Creature) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
}

func sortZones(out []Zone) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
}

func zoneCreatureIDs(state *memoryState, zoneID string) []string {
	var housed []Creature
	for _, c := range state.creatures {
		if c.ZoneID != nil && *c.ZoneID == zoneID {
			housed = append(housed, c)
		}
	}
	sortCreatures(housed)
	ids := make([]string, 0, len(housed))
	for _, c := range housed {
		ids = append(ids, c.ID)
	}
	return ids
}

func decorateZone(state *memoryState, zone Zone) Zone {
	cp := cloneZone(zone)
	cp.CreatureIDs = zoneCreatureIDs(state, zone.ID)
	return cp
}

// Option configures a Store.
type Option func(*Store)

// WithNowFunc overrides the clock used to stamp CreatedAt/UpdatedAt.
func WithNowFunc(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.nowFn = fn
		}
	}
}

// CommitHook receives the state a transaction is about to commit. A non-nil
// error aborts the commit and leaves the previous state in place.
type CommitHook func(ctx context.Context, next Snapshot) error

// WithCommitHook installs a hook that runs under the store lock before each
// commit. The hook must not call back into the store.
func WithCommitHook(hook CommitHook) Option {
	return func(s *Store) {
		s.commitHook = hook
	}
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu         sync.RWMutex
	state      memoryState
	engine     *RulesEngine
	nowFn      func() time.Time
	commitHook CommitHook
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) transactionView {
	return transactionView{state: state}
}

// ListCreatures returns all creatures within the snapshot.
func (v transactionView) ListCreatures() []Creature {
	out := make([]Creature, 0, len(v.state.creatures))
	for _, c := range v.state.creatures {
		out = append(out, cloneCreature(c))
	}
	sortCreatures(out)
	return out
}

// ListZones returns all zones with their derived membership.
func (v transactionView) ListZones() []Zone {
	out := make([]Zone, 0, len(v.state.zones))
	for _, z := range v.state.zones {
		out = append(out, decorateZone(v.state, z))
	}
	sortZones(out)
	return out
}

// FindCreature retrieves a creature by ID from the snapshot.
func (v transactionView) FindCreature(id string) (Creature, bool) {
	c, ok := v.state.creatures[id]
	if !ok {
		return Creature{}, false
	}
	return cloneCreature(c), true
}

// FindZone retrieves a zone by ID from the snapshot.
func (v transactionView) FindZone(id string) (Zone, bool) {
	z, ok := v.state.zones[id]
	if !ok {
		return Zone{}, false
	}
	return decorateZone(v.state, z), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.commitHook != nil {
		if err := s.commitHook(ctx, snapshotFromMemoryState(tx.state)); err != nil {
			return result, err
		}
	}
	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view of the in-flight transaction state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindCreature looks up a creature inside the transaction.
func (tx *transaction) FindCreature(id string) (Creature, bool) {
	return newTransactionView(&tx.state).FindCreature(id)
}

// FindZone looks up a zone inside the transaction.
func (tx *transaction) FindZone(id string) (Zone, bool) {
	return newTransactionView(&tx.state).FindZone(id)
}

func (tx *transaction) checkZoneRef(c Creature) error {
	if c.ZoneID == nil {
		return nil
	}
	if _, ok := tx.state.zones[*c.ZoneID]; !ok {
		return domain.ErrNotFound{Entity: domain.EntityZone, ID: *c.ZoneID}
	}
	return nil
}

// CreateCreature stores a new creature within the transaction.
func (tx *transaction) CreateCreature(c Creature) (Creature, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.creatures[c.ID]; exists {
		return Creature{}, fmt.Errorf("creature %q already exists", c.ID)
	}
	if err := tx.checkZoneRef(c); err != nil {
		return Creature{}, err
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.creatures[c.ID] = cloneCreature(c)
	tx.recordChange(Change{Entity: domain.EntityCreature, Action: domain.ActionCreate, After: cloneCreature(c)})
	return cloneCreature(c), nil
}

// UpdateCreature mutates a creature using the provided mutator function.
func (tx *transaction) UpdateCreature(id string, mutator func(*Creature) error) (Creature, error) {
	current, ok := tx.state.creatures[id]
	if !ok {
		return Creature{}, domain.ErrNotFound{Entity: domain.EntityCreature, ID: id}
	}
	before := cloneCreature(current)
	current = cloneCreature(current)
	if err := mutator(&current); err != nil {
		return Creature{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	if err := tx.checkZoneRef(current); err != nil {
		return Creature{}, err
	}
	tx.state.creatures[id] = cloneCreature(current)
	tx.recordChange(Change{Entity: domain.EntityCreature, Action: domain.ActionUpdate, Before: before, After: cloneCreature(current)})
	return cloneCreature(current), nil
}

// DeleteCreature removes a creature from the transaction state.
func (tx *transaction) DeleteCreature(id string) error {
	current, ok := tx.state.creatures[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityCreature, ID: id}
	}
	delete(tx.state.creatures, id)
	tx.recordChange(Change{Entity: domain.EntityCreature, Action: domain.ActionDelete, Before: cloneCreature(current)})
	return nil
}

// CreateZone stores a new zone.
func (tx *transaction) CreateZone(z Zone) (Zone, error) {
	if z.ID == "" {
		z.ID = tx.store.newID()
	}
	if _, exists := tx.state.zones[z.ID]; exists {
		return Zone{}, fmt.Errorf("zone %q already exists", z.ID)
	}
	if z.Capacity < 0 {
		return Zone{}, fmt.Errorf("zone capacity must not be negative")
	}
	z.CreatedAt = tx.now
	z.UpdatedAt = tx.now
	z.CreatureIDs = nil
	tx.state.zones[z.ID] = cloneZone(z)
	created := decorateZone(&tx.state, z)
	tx.recordChange(Change{Entity: domain.EntityZone, Action: domain.ActionCreate, After: created})
	return created, nil
}

// UpdateZone mutates an existing zone.
func (tx *transaction) UpdateZone(id string, mutator func(*Zone) error) (Zone, error) {
	current, ok := tx.state.zones[id]
	if !ok {
		return Zone{}, domain.ErrNotFound{Entity: domain.EntityZone, ID: id}
	}
	before := decorateZone(&tx.state, current)
	current = cloneZone(current)
	if err := mutator(&current); err != nil {
		return Zone{}, err
	}
	if current.Capacity < 0 {
		return Zone{}, fmt.Errorf("zone capacity must not be negative")
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	current.CreatureIDs = nil
	tx.state.zones[id] = cloneZone(current)
	updated := decorateZone(&tx.state, current)
	tx.recordChange(Change{Entity: domain.EntityZone, Action: domain.ActionUpdate, Before: before, After: updated})
	return updated, nil
}

// DeleteZone removes a zone and clears the zone link of the creatures it housed.
func (tx *transaction) DeleteZone(id string) error {
	current, ok := tx.state.zones[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityZone, ID: id}
	}
	before := decorateZone(&tx.state, current)
	for _, creatureID := range before.CreatureIDs {
		c := tx.state.creatures[creatureID]
		prev := cloneCreature(c)
		c.ZoneID = nil
		c.UpdatedAt = tx.now
		tx.state.creatures[creatureID] = c
		tx.recordChange(Change{Entity: domain.EntityCreature, Action: domain.ActionUpdate, Before: prev, After: cloneCreature(c)})
	}
	delete(tx.state.zones, id)
	tx.recordChange(Change{Entity: domain.EntityZone, Action: domain.ActionDelete, Before: before})
	return nil
}

// Read helpers ---------------------------------------------------------------

// GetCreature retrieves a creature by ID from committed state.
func (s *Store) GetCreature(id string) (Creature, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).FindCreature(id)
}

// ListCreatures returns all creatures from committed state.
func (s *Store) ListCreatures() []Creature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListCreatures()
}

// GetZone retrieves a zone by ID.
func (s *Store) GetZone(id string) (Zone, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).FindZone(id)
}

// ListZones returns all zones.
func (s *Store) ListZones() []Zone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListZones()
}
