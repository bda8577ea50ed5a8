package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoocore/internal/blob"
	"zoocore/internal/config"
	"zoocore/internal/core"
	"zoocore/pkg/domain"
)

// sharedRuntime keeps one in-memory service alive across command invocations.
type sharedRuntime struct {
	svc    *core.Service
	blobs  blob.Store
	opened int
	closed int
	cfg    config.Config
}

func newShared(withBlobs bool) *sharedRuntime {
	s := &sharedRuntime{svc: core.NewInMemoryService(core.NewDefaultRulesEngine())}
	if withBlobs {
		s.blobs = blob.NewMemory()
	}
	return s
}

func (s *sharedRuntime) open(_ context.Context, cfg config.Config) (*Runtime, error) {
	s.opened++
	s.cfg = cfg
	rt := &Runtime{Config: cfg, Service: s.svc, Blobs: s.blobs}
	rt.closers = append(rt.closers, func(context.Context) error {
		s.closed++
		return nil
	})
	return rt, nil
}

func execute(t *testing.T, shared *sharedRuntime, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.PathEnv, "")
	root := NewRootCmd(WithOpener(shared.open), WithVersion("1.2.3"))
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func decodeOutput[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

type creatureOutput struct {
	Entity     domain.Creature    `json:"entity"`
	Violations []domain.Violation `json:"violations"`
}

type zoneOutput struct {
	Entity     domain.Zone        `json:"entity"`
	Violations []domain.Violation `json:"violations"`
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, newShared(false), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "zoocore version 1.2.3")
}

func TestCreatureCommands(t *testing.T) {
	shared := newShared(false)

	out, err := execute(t, shared, "creature", "create", "--name", "Fluffy", "--species", "Dragon", "--danger", "7")
	require.NoError(t, err)
	created := decodeOutput[creatureOutput](t, out).Entity
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.HealthStable, created.HealthStatus)

	out, err = execute(t, shared, "creature", "get", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fluffy", decodeOutput[domain.Creature](t, out).Name)

	out, err = execute(t, shared, "creature", "update", created.ID, "--health", "critical")
	require.NoError(t, err)
	updated := decodeOutput[creatureOutput](t, out).Entity
	assert.Equal(t, "Fluffy", updated.Name, "omitted flags keep stored values")
	assert.Equal(t, 7, updated.DangerLevel)
	assert.Equal(t, domain.HealthCritical, updated.HealthStatus)

	_, err = execute(t, shared, "creature", "delete", created.ID)
	require.Error(t, err)
	assert.True(t, domain.IsIllegalState(err))

	_, err = execute(t, shared, "creature", "update", created.ID, "--health", "recovering")
	require.NoError(t, err)
	out, err = execute(t, shared, "creature", "delete", created.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted creature "+created.ID)

	out, err = execute(t, shared, "creature", "list")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	assert.Equal(t, shared.opened, shared.closed, "every runtime is closed")
}

func TestCreatureValidationError(t *testing.T) {
	_, err := execute(t, newShared(false), "creature", "create", "--name", "", "--species", "Dragon", "--danger", "15")
	require.Error(t, err)
	var verr domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasField("name"))
	assert.True(t, verr.HasField("danger_level"))
}

func TestZoneCommandsAndPlacement(t *testing.T) {
	shared := newShared(false)

	out, err := execute(t, shared, "zone", "create", "--name", "Aviary", "--capacity", "1", "--description", "Birds")
	require.NoError(t, err)
	zone := decodeOutput[zoneOutput](t, out).Entity

	out, err = execute(t, shared, "creature", "create", "--name", "Hedwig", "--species", "Owl", "--zone", zone.ID)
	require.NoError(t, err)
	owl := decodeOutput[creatureOutput](t, out).Entity
	require.NotNil(t, owl.ZoneID)

	out, err = execute(t, shared, "creature", "create", "--name", "Errol", "--species", "Owl")
	require.NoError(t, err)
	errol := decodeOutput[creatureOutput](t, out).Entity

	_, err = execute(t, shared, "creature", "assign", errol.ID, zone.ID)
	require.Error(t, err)
	assert.True(t, domain.IsRuleViolation(err))

	out, err = execute(t, shared, "zone", "update", zone.ID, "--capacity", "2")
	require.NoError(t, err)
	updatedZone := decodeOutput[zoneOutput](t, out).Entity
	assert.Equal(t, "Aviary", updatedZone.Name)
	assert.Equal(t, "Birds", updatedZone.Description)

	_, err = execute(t, shared, "creature", "assign", errol.ID, zone.ID)
	require.NoError(t, err)

	out, err = execute(t, shared, "zone", "get", zone.ID)
	require.NoError(t, err)
	assert.Len(t, decodeOutput[domain.Zone](t, out).CreatureIDs, 2)

	out, err = execute(t, shared, "creature", "release", owl.ID)
	require.NoError(t, err)
	assert.Nil(t, decodeOutput[creatureOutput](t, out).Entity.ZoneID)

	out, err = execute(t, shared, "zone", "update", zone.ID, "--capacity", "0")
	require.NoError(t, err)
	assert.NotEmpty(t, decodeOutput[zoneOutput](t, out).Violations)

	out, err = execute(t, shared, "zone", "list")
	require.NoError(t, err)
	assert.Len(t, decodeOutput[[]domain.Zone](t, out), 1)

	_, err = execute(t, shared, "zone", "delete", zone.ID)
	require.NoError(t, err)
	out, err = execute(t, shared, "creature", "get", errol.ID)
	require.NoError(t, err)
	assert.Nil(t, decodeOutput[domain.Creature](t, out).ZoneID, "deleting a zone orphans its creatures")

	_, err = execute(t, shared, "zone", "get", zone.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestRosterExport(t *testing.T) {
	_, err := execute(t, newShared(false), "roster", "export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blob.driver")

	shared := newShared(true)
	_, err = execute(t, shared, "zone", "create", "--name", "Pond", "--capacity", "3")
	require.NoError(t, err)
	out, err := execute(t, shared, "roster", "export")
	require.NoError(t, err)
	info := decodeOutput[blob.Info](t, out)
	assert.Contains(t, info.Key, core.RosterPrefix)
}

func TestArgumentAndConfigErrors(t *testing.T) {
	shared := newShared(false)
	_, err := execute(t, shared, "creature", "get")
	require.Error(t, err)

	_, err = execute(t, shared, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "zone", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
	assert.Zero(t, shared.opened, "runtime is not opened when config fails")
}

func TestOpenRuntime(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage = config.StorageConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "zoo.db")}
	cfg.Blob = config.BlobConfig{Driver: "memory"}
	cfg.Log.Level = "error"
	cfg.Tracing.Enabled = true

	rt, err := OpenRuntime(ctx, cfg)
	require.NoError(t, err)
	assert.NotNil(t, rt.Service)
	assert.NotNil(t, rt.Blobs)
	assert.NotNil(t, rt.Registry)
	assert.NotNil(t, rt.TracerProvider)

	_, _, err = rt.Service.Zones().CreateZone(ctx, domain.Zone{Name: "Savanna", Capacity: 4})
	require.NoError(t, err)
	families, err := rt.Registry.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() == "zoocore_service_operations_total" {
			found = true
		}
	}
	assert.True(t, found, "service metrics are registered")
	require.NoError(t, rt.Close(ctx))

	cfg.Storage.Driver = "mongo"
	_, err = OpenRuntime(ctx, cfg)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Storage.Driver = "memory"
	cfg.Metrics.Enabled = false
	cfg.Log.Level = "error"
	rt, err = OpenRuntime(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, rt.Blobs)
	assert.Nil(t, rt.Registry)
	assert.Nil(t, rt.TracerProvider)
	require.NoError(t, rt.Close(ctx))
}
