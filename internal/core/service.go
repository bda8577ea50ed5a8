// Package core exposes the transactional creature and zone services built on
// top of a domain.PersistentStore.
package core

import (
	"context"
	"time"

	"zoocore/internal/infra/persistence/memory"
	"zoocore/pkg/domain"
)

type (
	Creature        = domain.Creature
	Zone            = domain.Zone
	Result          = domain.Result
	RulesEngine     = domain.RulesEngine
	PersistentStore = domain.PersistentStore
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
)

// Service owns the store and cross-cutting hooks shared by the creature and zone services.
type Service struct {
	store   PersistentStore
	engine  *RulesEngine
	clock   Clock
	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer

	creatures *CreatureService
	zones     *ZoneService
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &Service{
		store:   store,
		engine:  extractRulesEngine(store),
		clock:   o.clock,
		logger:  o.logger,
		audit:   o.audit,
		metrics: o.metrics,
		tracer:  o.tracer,
	}
	s.creatures = &CreatureService{svc: s}
	s.zones = &ZoneService{svc: s}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine. The store stamps entities with the service clock.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return NewService(memory.NewStore(engine, memory.WithNowFunc(o.clock.Now)), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// RulesEngine returns the engine attached to the store, if the store exposes one.
func (s *Service) RulesEngine() *RulesEngine { return s.engine }

// Creatures returns the creature service.
func (s *Service) Creatures() *CreatureService { return s.creatures }

// Zones returns the zone service.
func (s *Service) Zones() *ZoneService { return s.zones }

type rulesEngineProvider interface {
	RulesEngine() *domain.RulesEngine
}

func extractRulesEngine(store PersistentStore) *RulesEngine {
	if p, ok := store.(rulesEngineProvider); ok {
		return p.RulesEngine()
	}
	return nil
}

// run wraps one operation with tracing, metrics, logging and auditing.
// fn returns the id of the affected entity, if any.
func (s *Service) run(ctx context.Context, op string, fn func(context.Context) (string, error)) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	entityID, err := fn(ctx)
	elapsed := time.Since(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, elapsed)
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "entity_id", entityID, "error", err, "duration", elapsed)
		s.recordAuditError(ctx, op, entityID, elapsed, err)
		return err
	}
	s.logger.Debug("operation completed", "operation", op, "entity_id", entityID, "duration", elapsed)
	s.recordAuditSuccess(ctx, op, entityID, elapsed)
	return nil
}

// logResult reports non-blocking rule outcomes of a committed transaction.
func (s *Service) logResult(op string, res Result) {
	for _, v := range res.Violations {
		s.logger.Warn("rule violation", "operation", op, "rule", v.Rule, "severity", v.Severity, "entity_id", v.EntityID, "message", v.Message)
	}
}

type operationMeta struct {
	entity domain.EntityType
	action domain.Action
}

// auditedOperations lists the mutating operations that produce audit entries.
var auditedOperations = map[string]operationMeta{
	"create_creature":   {domain.EntityCreature, domain.ActionCreate},
	"update_creature":   {domain.EntityCreature, domain.ActionUpdate},
	"delete_creature":   {domain.EntityCreature, domain.ActionDelete},
	"assign_zone":       {domain.EntityCreature, domain.ActionUpdate},
	"release_from_zone": {domain.EntityCreature, domain.ActionUpdate},
	"create_zone":       {domain.EntityZone, domain.ActionCreate},
	"update_zone":       {domain.EntityZone, domain.ActionUpdate},
	"delete_zone":       {domain.EntityZone, domain.ActionDelete},
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, entityID string, duration time.Duration) {
	meta, ok := auditedOperations[op]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	})
}

func (s *Service) recordAuditError(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	meta, ok := auditedOperations[op]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusError,
		Error:     err.Error(),
		Duration:  duration,
		Timestamp: s.clock.Now(),
	})
}
