package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"zoocore/internal/blob"
	"zoocore/internal/core"
	"zoocore/pkg/domain"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *core.Service) {
	t.Helper()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	return NewServer(svc, opts...), svc
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

type errorBody struct {
	Error      string            `json:"error"`
	Violations []json.RawMessage `json:"violations"`
}

func createZone(t *testing.T, h http.Handler, name string, capacity int) domain.Zone {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/api/v1/zones", map[string]any{"name": name, "capacity": capacity})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeBody[zoneResponse](t, rr).Zone
}

func createCreature(t *testing.T, h http.Handler, body map[string]any) domain.Creature {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/api/v1/creatures", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeBody[creatureResponse](t, rr).Creature
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = do(t, srv, http.MethodGet, "/api/v1/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "route not found", decodeBody[errorBody](t, rr).Error)

	rr = do(t, srv, http.MethodPatch, "/api/v1/zones", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/v1/rosters", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code, "rosters require a blob store")

	rr = do(t, srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code, "metrics require a handler")
}

func TestCreatureLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	created := createCreature(t, srv, map[string]any{
		"name": "Fluffy", "species": "Dragon", "danger_level": 7, "health_status": "stable",
	})
	assert.NotEmpty(t, created.ID)
	assert.Nil(t, created.ZoneID)

	rr := do(t, srv, http.MethodGet, "/api/v1/creatures/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Fluffy", decodeBody[creatureResponse](t, rr).Creature.Name)

	rr = do(t, srv, http.MethodPut, "/api/v1/creatures/"+created.ID, domain.CreatureUpdate{
		Name: "Fluffy II", Species: "Dragon", DangerLevel: 8, HealthStatus: domain.HealthRecovering,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decodeBody[creatureResponse](t, rr).Creature
	assert.Equal(t, "Fluffy II", updated.Name)
	assert.Equal(t, 8, updated.DangerLevel)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	rr = do(t, srv, http.MethodGet, "/api/v1/creatures", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeBody[map[string][]domain.Creature](t, rr)
	assert.Len(t, list["creatures"], 1)

	rr = do(t, srv, http.MethodDelete, "/api/v1/creatures/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/v1/creatures/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, srv, http.MethodDelete, "/api/v1/creatures/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEmptyListsRenderArrays(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.JSONEq(t, `{"creatures":[]}`, do(t, srv, http.MethodGet, "/api/v1/creatures", nil).Body.String())
	assert.JSONEq(t, `{"zones":[]}`, do(t, srv, http.MethodGet, "/api/v1/zones", nil).Body.String())
}

func TestCreatureValidationAndDecodeErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/v1/creatures", map[string]any{
		"name": " ", "species": "Dragon", "danger_level": 15,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := decodeBody[errorBody](t, rr)
	assert.Len(t, body.Violations, 2)
	assert.Contains(t, body.Error, "name")

	rr = do(t, srv, http.MethodPost, "/api/v1/creatures", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/v1/creatures", `{"name":"x","species":"y","wings":2}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeBody[errorBody](t, rr).Error, "wings")

	rr = do(t, srv, http.MethodPut, "/api/v1/creatures/missing", domain.CreatureUpdate{Name: "a", Species: "b"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCriticalCreatureCannotBeDeleted(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createCreature(t, srv, map[string]any{
		"name": "Smaug", "species": "Dragon", "danger_level": 10, "health_status": "critical",
	})

	rr := do(t, srv, http.MethodDelete, "/api/v1/creatures/"+created.ID, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, decodeBody[errorBody](t, rr).Error, "critical")

	rr = do(t, srv, http.MethodGet, "/api/v1/creatures/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestZoneLifecycleAndPlacement(t *testing.T) {
	srv, _ := newTestServer(t)
	zone := createZone(t, srv, "Aviary", 1)
	assert.Empty(t, zone.CreatureIDs)

	first := createCreature(t, srv, map[string]any{"name": "Hedwig", "species": "Owl", "health_status": "stable"})
	second := createCreature(t, srv, map[string]any{"name": "Errol", "species": "Owl", "health_status": "stable"})

	rr := do(t, srv, http.MethodPut, "/api/v1/creatures/"+first.ID+"/zone", assignRequest{ZoneID: zone.ID})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	placed := decodeBody[creatureResponse](t, rr).Creature
	require.NotNil(t, placed.ZoneID)
	assert.Equal(t, zone.ID, *placed.ZoneID)

	rr = do(t, srv, http.MethodPut, "/api/v1/creatures/"+second.ID+"/zone", assignRequest{ZoneID: zone.ID})
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.NotEmpty(t, decodeBody[errorBody](t, rr).Violations)

	rr = do(t, srv, http.MethodPut, "/api/v1/creatures/"+second.ID+"/zone", assignRequest{ZoneID: "missing"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, srv, http.MethodPut, "/api/v1/creatures/"+second.ID+"/zone", assignRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/v1/zones/"+zone.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{first.ID}, decodeBody[zoneResponse](t, rr).Zone.CreatureIDs)

	desc := "Birds of prey"
	rr = do(t, srv, http.MethodPut, "/api/v1/zones/"+zone.ID, domain.ZoneUpdate{Name: "Raptor Aviary", Capacity: 0, Description: &desc})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	shrunk := decodeBody[zoneResponse](t, rr)
	assert.Equal(t, "Birds of prey", shrunk.Zone.Description)
	assert.NotEmpty(t, shrunk.Violations, "over-capacity edit warns")

	rr = do(t, srv, http.MethodDelete, "/api/v1/creatures/"+first.ID+"/zone", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decodeBody[creatureResponse](t, rr).Creature.ZoneID)

	rr = do(t, srv, http.MethodPut, "/api/v1/zones/"+zone.ID, domain.ZoneUpdate{Name: "", Capacity: -1})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/v1/zones", nil)
	assert.Len(t, decodeBody[map[string][]domain.Zone](t, rr)["zones"], 1)

	rr = do(t, srv, http.MethodDelete, "/api/v1/zones/"+zone.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, srv, http.MethodGet, "/api/v1/zones/"+zone.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateCreatureInZone(t *testing.T) {
	srv, _ := newTestServer(t)
	zone := createZone(t, srv, "Pond", 1)
	created := createCreature(t, srv, map[string]any{"name": "Nessie", "species": "Plesiosaur", "zone_id": zone.ID})
	require.NotNil(t, created.ZoneID)

	rr := do(t, srv, http.MethodPost, "/api/v1/creatures", map[string]any{"name": "Nessie II", "species": "Plesiosaur", "zone_id": zone.ID})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/v1/creatures", map[string]any{"name": "Lost", "species": "Eel", "zone_id": "missing"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRosterExport(t *testing.T) {
	store := blob.NewMemory()
	srv, _ := newTestServer(t, WithBlobStore(store))
	createZone(t, srv, "Savanna", 3)

	rr := do(t, srv, http.MethodPost, "/api/v1/rosters", nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	info := decodeBody[map[string]blob.Info](t, rr)["roster"]
	assert.True(t, strings.HasPrefix(info.Key, core.RosterPrefix))
	assert.Equal(t, "application/json", info.ContentType)

	rr = do(t, srv, http.MethodGet, "/api/v1/rosters", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[map[string][]blob.Info](t, rr)["rosters"], 1)
}

func TestMetricsHandlerMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("zoocore_up 1\n"))
	})
	srv, _ := newTestServer(t, WithMetricsHandler(metrics))
	rr := do(t, srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "zoocore_up 1\n", rr.Body.String())
}

type captureLogger struct {
	mu       sync.Mutex
	messages []string
}

func (c *captureLogger) record(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

func (c *captureLogger) Debug(msg string, _ ...any) { c.record(msg) }
func (c *captureLogger) Info(msg string, _ ...any)  { c.record(msg) }
func (c *captureLogger) Warn(msg string, _ ...any)  { c.record(msg) }
func (c *captureLogger) Error(msg string, _ ...any) { c.record(msg) }

func TestRequestLoggingAndTracing(t *testing.T) {
	logger := &captureLogger{}
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	srv, _ := newTestServer(t, WithLogger(logger), WithLogger(nil), WithTracerProvider(tp))

	rr := do(t, srv, http.MethodGet, "/api/v1/zones/abc", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	assert.Contains(t, logger.messages, "http request")
	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/v1/zones/{id}", spans[0].Name())
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
