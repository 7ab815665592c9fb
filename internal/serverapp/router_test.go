package serverapp

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"document-hydrator/internal/config"
	"document-hydrator/internal/naming"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPingMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func routerTestConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{QueryTimeout: time.Second},
		Server: config.ServerConfig{
			MaxBodyBytes:       1 << 16,
			MaxDocuments:       10,
			HealthCheckTimeout: time.Second,
		},
		Naming: naming.Config{
			Backend:         naming.BackendInflect,
			PluralOverrides: map[string]string{"person": "folks"},
		},
		Sources: map[string]config.SourceConfig{
			"people": {Table: "shop.people", Columns: []string{"name"}},
		},
	}
}

func buildTestRouter(t *testing.T, cfg *config.Config, db *sql.DB) http.Handler {
	t.Helper()
	logger := testLogger()
	engine := buildEngine(cfg, logger, nil)
	sources, err := buildSources(cfg, logger, buildQueryExecutor(cfg, db), nil)
	require.NoError(t, err)
	return wrapHTTPHandler(cfg, logger, buildRouter(cfg, logger, db, engine, sources, nil))
}

func TestRouter_HydrateUsesConfiguredSourceAndNaming(t *testing.T) {
	cfg := routerTestConfig()
	db, mock := newPingMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT `name`, `id`, `id` AS __hydrate_id FROM `shop`.`people` WHERE `id` IN (?,?)")).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"name", "id", "__hydrate_id"}).
			AddRow("ada", int64(1), int64(1)).
			AddRow("grace", int64(2), int64(2)))

	handler := buildTestRouter(t, cfg, db)
	req := httptest.NewRequest(http.MethodPost, "/hydrate", strings.NewReader(
		`{"source": "people", "paths": ["person_ids"], "document": {"person_ids": [1, 2]}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"document": {"folks": [{"id": 1, "name": "ada"}, {"id": 2, "name": "grace"}]}}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_HydrateBodyLimit(t *testing.T) {
	cfg := routerTestConfig()
	cfg.Server.MaxBodyBytes = 16
	db, _ := newPingMockDB(t)

	handler := buildTestRouter(t, cfg, db)
	req := httptest.NewRequest(http.MethodPost, "/hydrate", strings.NewReader(
		`{"source": "people", "paths": ["person_id"], "document": {"person_id": 1}}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRouter_Sources(t *testing.T) {
	db, _ := newPingMockDB(t)
	handler := buildTestRouter(t, routerTestConfig(), db)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sources", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sources": ["people"]}`, rec.Body.String())
}

func TestRouter_MetricsDisabled(t *testing.T) {
	db, _ := newPingMockDB(t)
	handler := buildTestRouter(t, routerTestConfig(), db)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	db, mock := newPingMockDB(t)
	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	handler := healthHandler(db, time.Second)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","database":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildSources_RejectsInvalidSource(t *testing.T) {
	cfg := routerTestConfig()
	cfg.Sources["broken"] = config.SourceConfig{}

	_, err := buildSources(cfg, testLogger(), nil, nil)
	assert.Error(t, err)
}

func TestWaitForDatabase_RetriesUntilReachable(t *testing.T) {
	db, mock := newPingMockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("not yet"))
	mock.ExpectPing()

	cfg := &config.Config{Database: config.DatabaseConfig{
		ConnectionTimeout:       time.Second,
		ConnectionRetryInterval: time.Millisecond,
	}}
	require.NoError(t, waitForDatabase(t.Context(), cfg, testLogger(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitForDatabase_SinglePingWithoutTimeout(t *testing.T) {
	db, mock := newPingMockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("down"))

	cfg := &config.Config{}
	assert.Error(t, waitForDatabase(t.Context(), cfg, testLogger(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildServer_PlainAndTLSErrors(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{ReadTimeout: time.Second}}
	srv, err := buildServer(cfg, testLogger(), http.NewServeMux(), ":0")
	require.NoError(t, err)
	assert.Nil(t, srv.TLSConfig)
	assert.Equal(t, time.Second, srv.ReadTimeout)

	cfg.Server.TLSCertFile = "/nonexistent/server.crt"
	cfg.Server.TLSKeyFile = "/nonexistent/server.key"
	_, err = buildServer(cfg, testLogger(), http.NewServeMux(), ":0")
	assert.Error(t, err)
}
