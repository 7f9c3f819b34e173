package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	livemem "github.com/soundprediction/go-livemem"
	"github.com/soundprediction/go-livemem/pkg/cache"
	"github.com/soundprediction/go-livemem/pkg/config"
	"github.com/soundprediction/go-livemem/pkg/driver"
	"github.com/soundprediction/go-livemem/pkg/server"
	"github.com/soundprediction/go-livemem/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, store *driver.MemoryDriver) http.Handler {
	t.Helper()

	c, err := cache.NewBadgerCache("")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	engine := livemem.NewEngine(store, nil)
	srv := server.New(config.ServerConfig{Host: "localhost", Port: 0, Mode: "test"},
		engine, nil, c, time.Minute, nil)
	return srv.Handler()
}

func seedStore() *driver.MemoryDriver {
	store := driver.NewMemoryDriver()
	now := time.Now()
	store.AddNode(&types.MemoryNode{
		ID: "a", Name: "a", Content: "a", CreatedAt: now, RelevanceScore: 0.5,
	})
	store.AddNode(&types.MemoryNode{
		ID: "idle", Name: "idle", Content: "idle",
		CreatedAt: now.AddDate(0, 0, -60), RelevanceScore: 0.5,
	})
	return store
}

func TestHealthz(t *testing.T) {
	handler := newTestServer(t, seedStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthReportCached(t *testing.T) {
	handler := newTestServer(t, seedStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health-report", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var first types.HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, 2, first.TotalNodes)

	// A second request within the TTL is served from the cache and
	// carries the same generation time.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health-report", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var second types.HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.True(t, first.GeneratedAt.Equal(second.GeneratedAt))
}

func TestTriggerRun(t *testing.T) {
	store := seedStore()
	handler := newTestServer(t, store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/maintenance/runs",
		strings.NewReader(`{"dry_run": true}`))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Report *types.MaintenanceReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Report)
	assert.True(t, resp.Report.DryRun)
	assert.Equal(t, 0, resp.Report.TotalActions())

	// Empty body runs with defaults.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/maintenance/runs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordAccessEndpoint(t *testing.T) {
	store := seedStore()
	handler := newTestServer(t, store)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/nodes/a/access", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/nodes/ghost/access", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTriggerDecay(t *testing.T) {
	handler := newTestServer(t, seedStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/maintenance/decay", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		NodesDecayed int `json:"nodes_decayed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.NodesDecayed)
}

func TestListRunsWithoutHistory(t *testing.T) {
	handler := newTestServer(t, seedStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/maintenance/runs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
