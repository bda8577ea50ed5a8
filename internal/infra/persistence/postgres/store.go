// Package postgres provides a Postgres-backed persistent store that mirrors the
// in-memory semantics while keeping zones and creatures in normalized tables.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"zoocore/internal/infra/persistence/memory"
	"zoocore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/zoocore?sslmode=disable"
)

//go:embed schema.sql
var schemaDDL string

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists state to Postgres while reusing the in-memory implementation for transactions.
type Store struct {
	*memory.Store
	db *sql.DB
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back to defaultDSN).
// It applies the embedded schema and hydrates the in-memory store from the
// zones and creatures tables.
func NewStore(dsn string, engine *domain.RulesEngine) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := applySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{db: db}
	s.Store = memory.NewStore(engine, memory.WithCommitHook(s.persist))
	s.ImportState(snapshot)
	return s, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func splitStatements(ddl string) []string {
	parts := strings.Split(ddl, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func applySchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range splitStatements(schemaDDL) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	snapshot := memory.Snapshot{
		Creatures: make(map[string]domain.Creature),
		Zones:     make(map[string]domain.Zone),
	}
	zones, err := db.QueryContext(ctx, `SELECT id, name, description, capacity, created_at, updated_at FROM zones`)
	if err != nil {
		return snapshot, fmt.Errorf("select zones: %w", err)
	}
	defer func() { _ = zones.Close() }()
	for zones.Next() {
		var (
			z        domain.Zone
			capacity int64
		)
		if err := zones.Scan(&z.ID, &z.Name, &z.Description, &capacity, &z.CreatedAt, &z.UpdatedAt); err != nil {
			return snapshot, fmt.Errorf("scan zone: %w", err)
		}
		z.Capacity = int(capacity)
		snapshot.Zones[z.ID] = z
	}
	if err := zones.Err(); err != nil {
		return snapshot, fmt.Errorf("iterate zones: %w", err)
	}

	creatures, err := db.QueryContext(ctx, `SELECT id, name, species, danger_level, health_status, zone_id, created_at, updated_at FROM creatures`)
	if err != nil {
		return snapshot, fmt.Errorf("select creatures: %w", err)
	}
	defer func() { _ = creatures.Close() }()
	for creatures.Next() {
		var (
			c      domain.Creature
			danger int64
			health string
			zoneID sql.NullString
		)
		if err := creatures.Scan(&c.ID, &c.Name, &c.Species, &danger, &health, &zoneID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return snapshot, fmt.Errorf("scan creature: %w", err)
		}
		c.DangerLevel = int(danger)
		c.HealthStatus = domain.HealthStatus(health)
		if zoneID.Valid {
			id := zoneID.String
			c.ZoneID = &id
		}
		snapshot.Creatures[c.ID] = c
	}
	if err := creatures.Err(); err != nil {
		return snapshot, fmt.Errorf("iterate creatures: %w", err)
	}
	return snapshot, nil
}

// persist rewrites both tables from the candidate snapshot inside one SQL
// transaction. It runs before the memory store swaps state in.
func (s *Store) persist(ctx context.Context, snapshot memory.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `TRUNCATE TABLE creatures, zones`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	// zones go first so creature foreign keys resolve
	for _, z := range snapshot.Zones {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO zones (id, name, description, capacity, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			z.ID, z.Name, z.Description, int64(z.Capacity), z.CreatedAt.UTC(), z.UpdatedAt.UTC()); err != nil {
			return fmt.Errorf("insert zone %s: %w", z.ID, err)
		}
	}
	for _, c := range snapshot.Creatures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO creatures (id, name, species, danger_level, health_status, zone_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID, c.Name, c.Species, int64(c.DangerLevel), string(c.HealthStatus), nullableString(c.ZoneID), c.CreatedAt.UTC(), c.UpdatedAt.UTC()); err != nil {
			return fmt.Errorf("insert creature %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func nullableString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
