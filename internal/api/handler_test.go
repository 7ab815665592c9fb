package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"document-hydrator/internal/dbexec"
	"document-hydrator/internal/hydrator"
	"document-hydrator/internal/sqlresolver"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, resolvers map[string]hydrator.Resolver, cfg HandlerConfig) *Handler {
	t.Helper()
	registry := NewRegistry()
	for name, resolver := range resolvers {
		require.NoError(t, registry.Register(name, resolver))
	}
	return NewHandler(hydrator.New(), registry, cfg)
}

func serve(h http.Handler, method, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/hydrate", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func echoResolver() hydrator.Resolver {
	return hydrator.ResolverFunc(func(_ context.Context, ids []any) ([]any, error) {
		values := make([]any, len(ids))
		for i, id := range ids {
			values[i] = hydrator.Document{"id": id}
		}
		return values, nil
	})
}

func TestHandler_HydratesDocumentsFromSQLSource(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	users, err := sqlresolver.New(dbexec.NewStandardExecutor(db), sqlresolver.Source{
		Name:     "users",
		Table:    "users",
		IDColumn: "id",
		Columns:  []string{"id", "name"},
	}, nil)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id`, `name`, `id` AS __hydrate_id FROM `users` WHERE `id` IN (?,?)")).
		WithArgs(99, 7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "__hydrate_id"}).
			AddRow(int64(7), []byte("grace"), int64(7)).
			AddRow(int64(99), []byte("ada"), int64(99)))

	h := newTestHandler(t, map[string]hydrator.Resolver{"users": users}, HandlerConfig{})
	rr := serve(h, http.MethodPost, "application/json", `{
		"source": "users",
		"paths": ["author_id", "reviewer_ids"],
		"documents": [{"id": 1, "author_id": 99, "reviewer_ids": [7, 99]}]
	}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"documents": [{
		"id": 1,
		"author": {"id": 99, "name": "ada"},
		"reviewers": [{"id": 7, "name": "grace"}, {"id": 99, "name": "ada"}]
	}]}`, rr.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_SingleDocument(t *testing.T) {
	h := newTestHandler(t, map[string]hydrator.Resolver{"users": echoResolver()}, HandlerConfig{})

	rr := serve(h, http.MethodPost, "application/json", `{"source": "users", "paths": ["owner_id"], "document": {"owner_id": 5}}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"document": {"owner": {"id": 5}}}`, rr.Body.String())
}

func TestHandler_EmptyDocumentsSkipResolver(t *testing.T) {
	called := false
	resolver := hydrator.ResolverFunc(func(context.Context, []any) ([]any, error) {
		called = true
		return nil, nil
	})
	h := newTestHandler(t, map[string]hydrator.Resolver{"users": resolver}, HandlerConfig{})

	rr := serve(h, http.MethodPost, "application/json", `{"source": "users", "paths": ["user_id"], "documents": []}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"documents": []}`, rr.Body.String())
	assert.False(t, called)
}

func TestHandler_YAMLBody(t *testing.T) {
	var seen []any
	resolver := hydrator.ResolverFunc(func(_ context.Context, ids []any) ([]any, error) {
		seen = ids
		return []any{hydrator.Document{"name": "ada"}}, nil
	})
	h := newTestHandler(t, map[string]hydrator.Resolver{"users": resolver}, HandlerConfig{})

	body := "source: users\npaths:\n  - owner_id\ndocument:\n  owner_id: 5\n"
	rr := serve(h, http.MethodPost, "application/x-yaml; charset=utf-8", body)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/yaml", rr.Header().Get("Content-Type"))
	assert.Equal(t, []any{int64(5)}, seen)
	assert.Contains(t, rr.Body.String(), "owner:")
	assert.Contains(t, rr.Body.String(), "name: ada")
	assert.NotContains(t, rr.Body.String(), "owner_id")
}

func TestHandler_BadRequests(t *testing.T) {
	h := newTestHandler(t, map[string]hydrator.Resolver{"users": echoResolver()}, HandlerConfig{MaxDocuments: 2})

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed json", body: `{"source":`, want: "invalid request"},
		{name: "unknown field", body: `{"source": "users", "paths": ["a_id"], "documents": [], "extra": true}`, want: "unknown field"},
		{name: "missing source", body: `{"paths": ["a_id"], "documents": []}`, want: "source is required"},
		{name: "missing paths", body: `{"source": "users", "documents": []}`, want: "at least one path"},
		{name: "empty path", body: `{"source": "users", "paths": [""], "documents": []}`, want: "paths[0] is empty"},
		{name: "no documents", body: `{"source": "users", "paths": ["a_id"]}`, want: "document or documents is required"},
		{name: "both shapes", body: `{"source": "users", "paths": ["a_id"], "document": {}, "documents": []}`, want: "not both"},
		{name: "too many documents", body: `{"source": "users", "paths": ["a_id"], "documents": [{}, {}, {}]}`, want: "too many documents"},
		{name: "trailing data", body: `{"source": "users", "paths": ["a_id"], "documents": []} {}`, want: "trailing data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(h, http.MethodPost, "application/json", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.want)
		})
	}
}

func TestHandler_UnknownSource(t *testing.T) {
	h := newTestHandler(t, map[string]hydrator.Resolver{"users": echoResolver()}, HandlerConfig{})

	rr := serve(h, http.MethodPost, "application/json", `{"source": "orders", "paths": ["a_id"], "documents": []}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown source")
}

func TestHandler_ContractViolationsAreUnprocessable(t *testing.T) {
	short := hydrator.ResolverFunc(func(context.Context, []any) ([]any, error) {
		return []any{}, nil
	})
	h := newTestHandler(t, map[string]hydrator.Resolver{"short": short, "users": echoResolver()}, HandlerConfig{})

	rr := serve(h, http.MethodPost, "application/json", `{"source": "short", "paths": ["user_id"], "document": {"user_id": 1}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "incomplete resolution")

	rr = serve(h, http.MethodPost, "application/json", `{"source": "users", "paths": ["user_id"], "document": {"user_id": {"nested": 1}}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid identifier")
}

func TestHandler_ResolverFailureHidesDetails(t *testing.T) {
	failing := hydrator.ResolverFunc(func(context.Context, []any) ([]any, error) {
		return nil, errors.New("dial tcp 10.0.0.5:4000: connection refused")
	})
	h := newTestHandler(t, map[string]hydrator.Resolver{"users": failing}, HandlerConfig{})

	rr := serve(h, http.MethodPost, "application/json", `{"source": "users", "paths": ["user_id"], "document": {"user_id": 1}}`)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.JSONEq(t, `{"error": "source lookup failed"}`, rr.Body.String())
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, nil, HandlerConfig{})

	rr := serve(h, http.MethodGet, "", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
}

func TestHandler_BodyTooLarge(t *testing.T) {
	h := newTestHandler(t, map[string]hydrator.Resolver{"users": echoResolver()}, HandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/hydrate", strings.NewReader(`{"source": "users", "paths": ["a_id"], "documents": []}`))
	rr := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rr, req.Body, 8)
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestSourcesHandler(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("users", echoResolver()))
	require.NoError(t, registry.Register("teams", echoResolver()))

	rr := httptest.NewRecorder()
	SourcesHandler(registry).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sources", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"sources": ["teams", "users"]}`, rr.Body.String())
}
