package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Hydration outcomes used as the "outcome" metric attribute.
const (
	OutcomeSuccess           = "success"
	OutcomeNoIdentifiers     = "no_identifiers"
	OutcomeResolverError     = "resolver_error"
	OutcomeIncomplete        = "incomplete_resolution"
	OutcomeInvalidIdentifier = "invalid_identifier"
)

// HydrationMetrics holds custom metrics for hydration calls and the
// storage fetches behind them. A nil *HydrationMetrics records nothing.
type HydrationMetrics struct {
	callCounter     metric.Int64Counter
	callDuration    metric.Float64Histogram
	resolveDuration metric.Float64Histogram
	identifiers     metric.Int64Histogram
	references      metric.Int64Histogram
	lookupsSaved    metric.Int64Counter
	fetchQueries    metric.Int64Counter
	fetchRows       metric.Int64Histogram
	fetchMisses     metric.Int64Counter
}

// HydrationStats describes one top-level hydrate call.
type HydrationStats struct {
	Documents       int
	Paths           int
	Identifiers     int // distinct identifiers sent to the resolver
	References      int // non-null identifier occurrences across all sites
	Duration        time.Duration
	ResolveDuration time.Duration
}

// InitHydrationMetrics initializes hydration metrics against the global meter provider.
func InitHydrationMetrics() (*HydrationMetrics, error) {
	meter := otel.Meter("document-hydrator")

	callCounter, err := meter.Int64Counter(
		"hydrator.calls.total",
		metric.WithDescription("Total number of top-level hydrate calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create hydrate call counter: %w", err)
	}

	callDuration, err := meter.Float64Histogram(
		"hydrator.call.duration",
		metric.WithDescription("Duration of hydrate calls in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create hydrate call duration histogram: %w", err)
	}

	resolveDuration, err := meter.Float64Histogram(
		"hydrator.resolve.duration",
		metric.WithDescription("Duration of the batch resolver invocation in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolve duration histogram: %w", err)
	}

	identifiers, err := meter.Int64Histogram(
		"hydrator.batch.identifiers",
		metric.WithDescription("Number of distinct identifiers sent to the resolver"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch identifiers histogram: %w", err)
	}

	references, err := meter.Int64Histogram(
		"hydrator.batch.references",
		metric.WithDescription("Number of identifier references collected across documents and paths"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch references histogram: %w", err)
	}

	lookupsSaved, err := meter.Int64Counter(
		"hydrator.batch.lookups_saved",
		metric.WithDescription("Number of per-reference lookups avoided by batching"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lookups saved counter: %w", err)
	}

	fetchQueries, err := meter.Int64Counter(
		"hydrator.fetch.queries",
		metric.WithDescription("Number of storage queries issued by source resolvers"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch query counter: %w", err)
	}

	fetchRows, err := meter.Int64Histogram(
		"hydrator.fetch.rows",
		metric.WithDescription("Number of rows returned for one resolver invocation"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch rows histogram: %w", err)
	}

	fetchMisses, err := meter.Int64Counter(
		"hydrator.fetch.misses",
		metric.WithDescription("Number of requested identifiers with no matching row"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch misses counter: %w", err)
	}

	return &HydrationMetrics{
		callCounter:     callCounter,
		callDuration:    callDuration,
		resolveDuration: resolveDuration,
		identifiers:     identifiers,
		references:      references,
		lookupsSaved:    lookupsSaved,
		fetchQueries:    fetchQueries,
		fetchRows:       fetchRows,
		fetchMisses:     fetchMisses,
	}, nil
}

// InitMetrics initializes all custom metrics and logs the result.
func InitMetrics(logger *slog.Logger) (*HydrationMetrics, error) {
	metrics, err := InitHydrationMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize hydration metrics: %w", err)
	}

	logger.Info("custom hydration metrics initialized")
	return metrics, nil
}

// RecordHydration records one hydrate call with its outcome.
func (m *HydrationMetrics) RecordHydration(ctx context.Context, stats HydrationStats, outcome string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))

	m.callCounter.Add(ctx, 1, attrs)
	m.callDuration.Record(ctx, float64(stats.Duration.Microseconds())/1000, attrs)

	if stats.Identifiers == 0 {
		return
	}
	m.resolveDuration.Record(ctx, float64(stats.ResolveDuration.Microseconds())/1000, attrs)
	m.identifiers.Record(ctx, int64(stats.Identifiers))
	m.references.Record(ctx, int64(stats.References))
	if saved := stats.References - 1; saved > 0 {
		m.lookupsSaved.Add(ctx, int64(saved))
	}
}

// RecordFetch records the storage work done by a source resolver for one invocation.
func (m *HydrationMetrics) RecordFetch(ctx context.Context, source string, queries, rows, misses int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source))

	m.fetchQueries.Add(ctx, int64(queries), attrs)
	m.fetchRows.Record(ctx, int64(rows), attrs)
	if misses > 0 {
		m.fetchMisses.Add(ctx, int64(misses), attrs)
	}
}
