// Package serverapp wires configuration, storage, the hydration engine and the
// HTTP surface together and owns their lifecycle.
package serverapp

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"document-hydrator/internal/api"
	"document-hydrator/internal/config"
	"document-hydrator/internal/dbexec"
	"document-hydrator/internal/hydrator"
	"document-hydrator/internal/logging"
	"document-hydrator/internal/observability"
)

// App owns runtime resources for the document-hydrator server lifecycle.
type App struct {
	cfg    *config.Config
	logger *logging.Logger

	loggerProvider *observability.LoggerProvider
	dsnPresent     bool

	meterProvider    *observability.MeterProvider
	hydrationMetrics *observability.HydrationMetrics
	tracerProvider   *observability.TracerProvider

	db         *sql.DB
	dbStatsReg interface{ Unregister() error }

	queryExecutor dbexec.QueryExecutor
	engine        *hydrator.Engine
	sources       *api.Registry

	mux     *http.ServeMux
	handler http.Handler

	serverAddr string
	srv        *http.Server

	cleanup cleanupStack

	stateMu      sync.Mutex
	initialized  bool
	started      bool
	serverErrors chan error
	startedAt    time.Time

	shutdownOnce sync.Once
}

// New creates an App lifecycle wrapper.
func New(cfg *config.Config, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		dsnPresent: strings.TrimSpace(cfg.Database.ConnectionString) != "",
	}, nil
}

// AttachLoggerProvider registers an optional logger provider for shutdown cleanup.
func (a *App) AttachLoggerProvider(provider *observability.LoggerProvider) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.loggerProvider = provider
}

// Handler returns the fully wrapped HTTP handler. It is nil before Init.
func (a *App) Handler() http.Handler {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return a.handler
}
