package serverapp

import (
	"database/sql"
	"log/slog"
	"sort"

	"document-hydrator/internal/api"
	"document-hydrator/internal/config"
	"document-hydrator/internal/dbexec"
	"document-hydrator/internal/hydrator"
	"document-hydrator/internal/logging"
	"document-hydrator/internal/naming"
	"document-hydrator/internal/observability"
	"document-hydrator/internal/sqlresolver"
)

func buildQueryExecutor(cfg *config.Config, db *sql.DB) dbexec.QueryExecutor {
	return dbexec.NewTimeoutExecutor(dbexec.NewStandardExecutor(db), cfg.Database.QueryTimeout)
}

func buildEngine(cfg *config.Config, logger *logging.Logger, metrics *observability.HydrationMetrics) *hydrator.Engine {
	namer := naming.New(cfg.Naming, logger.Logger)
	logger.Info("pluralizer configured",
		slog.String("backend", namer.Backend()),
		slog.Int("plural_overrides", len(cfg.Naming.PluralOverrides)),
	)
	return hydrator.New(
		hydrator.WithPluralizer(namer),
		hydrator.WithLogger(logger.Logger),
		hydrator.WithMetrics(metrics),
	)
}

// buildSources registers one SQL resolver per configured source, in name order.
func buildSources(cfg *config.Config, logger *logging.Logger, executor dbexec.QueryExecutor, metrics *observability.HydrationMetrics) (*api.Registry, error) {
	names := make([]string, 0, len(cfg.Sources))
	for name := range cfg.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	registry := api.NewRegistry()
	for _, name := range names {
		sc := cfg.Sources[name]
		resolver, err := sqlresolver.New(executor, sqlresolver.Source{
			Name:         name,
			Table:        sc.Table,
			IDColumn:     sc.EffectiveIDColumn(),
			Columns:      sc.Columns,
			ExcludeID:    sc.ExcludeID,
			MaxBatchSize: sc.MaxBatchSize,
			UUIDColumns:  sc.UUIDColumns,
		}, metrics)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(name, resolver); err != nil {
			return nil, err
		}
		logger.Info("source registered",
			slog.String("source", name),
			slog.String("table", sc.Table),
			slog.String("id_column", sc.EffectiveIDColumn()),
			slog.Int("columns", len(sc.Columns)),
			slog.Bool("exclude_id", sc.ExcludeID),
		)
	}

	if len(names) == 0 {
		logger.Warn("no sources configured; every hydrate request will return 404")
	}
	return registry, nil
}
