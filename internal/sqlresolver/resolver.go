// Package sqlresolver resolves hydration identifiers against a SQL table.
//
// A Source names a table and the column identifiers are matched against. One
// Resolve call issues a single IN query (or one per chunk when MaxBatchSize is
// set) and returns the rows positionally aligned with the requested identifiers.
package sqlresolver

import (
	"context"
	"fmt"
	"slices"

	"document-hydrator/internal/dbexec"
	"document-hydrator/internal/hydrator"
	"document-hydrator/internal/observability"
	"document-hydrator/internal/planner"
	"document-hydrator/internal/uuidutil"
)

// Source describes the table behind a resolver.
type Source struct {
	Name         string
	Table        string
	IDColumn     string
	Columns      []string // projection; empty selects every column
	ExcludeID    bool     // drop IDColumn from hydrated documents
	MaxBatchSize int      // identifiers per IN query; 0 means unlimited
	UUIDColumns  []string // columns stored as BINARY(16) UUIDs, rendered as text
}

// Resolver is a hydrator.Resolver backed by a SQL table.
type Resolver struct {
	executor  dbexec.QueryExecutor
	source    Source
	metrics   *observability.HydrationMetrics
	uuidCols  map[string]bool
	uuidIDCol bool
}

var _ hydrator.Resolver = (*Resolver)(nil)

// New creates a resolver for source. metrics may be nil.
func New(executor dbexec.QueryExecutor, source Source, metrics *observability.HydrationMetrics) (*Resolver, error) {
	if executor == nil {
		return nil, fmt.Errorf("source %q: executor is required", source.Name)
	}
	if source.Table == "" {
		return nil, fmt.Errorf("source %q: table is required", source.Name)
	}
	if source.IDColumn == "" {
		return nil, fmt.Errorf("source %q: id column is required", source.Name)
	}
	if source.Name == "" {
		source.Name = source.Table
	}
	r := &Resolver{executor: executor, source: source, metrics: metrics}
	if len(source.UUIDColumns) > 0 {
		r.uuidCols = make(map[string]bool, len(source.UUIDColumns)+1)
		for _, col := range source.UUIDColumns {
			r.uuidCols[col] = true
		}
		if r.uuidCols[source.IDColumn] {
			r.uuidIDCol = true
			r.uuidCols[planner.HydrateIDAlias] = true
		}
	}
	return r, nil
}

// Source returns the resolver's source definition.
func (r *Resolver) Source() Source {
	return r.source
}

// Resolve fetches the rows for ids. Identifiers with no row resolve to nil.
// Rows are matched to identifiers by their printed form, so a json.Number "27"
// matches an integer 27 returned by the driver. When the id column holds binary
// UUIDs, identifiers are matched by canonical UUID text and identifiers that are
// not UUIDs resolve to nil without being queried.
func (r *Resolver) Resolve(ctx context.Context, ids []any) ([]any, error) {
	values := make([]any, len(ids))
	if len(ids) == 0 {
		return values, nil
	}

	keys := make([]string, len(ids))
	bound := make([]bool, len(ids))
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		key, arg, ok := r.bindID(id)
		if !ok {
			continue
		}
		keys[i], bound[i] = key, true
		args = append(args, arg)
	}

	ctx, span := startFetchSpan(ctx, r.source, len(ids))
	defer span.End()

	spec := planner.FetchSpec{
		Table:    r.source.Table,
		IDColumn: r.source.IDColumn,
		Columns:  r.projection(),
	}

	byID := make(map[string]hydrator.Document, len(ids))
	queries, rowCount := 0, 0
	for _, chunk := range planner.ChunkIDs(args, r.source.MaxBatchSize) {
		plan, err := planner.PlanFetchByIDs(spec, chunk)
		if err != nil {
			finishFetchSpan(span, err, rowCount)
			return nil, err
		}
		queries++

		rows, err := r.fetch(ctx, plan)
		if err != nil {
			finishFetchSpan(span, err, rowCount)
			return nil, fmt.Errorf("fetch %s: %w", r.source.Name, err)
		}
		rowCount += len(rows)

		for _, row := range rows {
			key := fmt.Sprint(row[planner.HydrateIDAlias])
			delete(row, planner.HydrateIDAlias)
			if r.source.ExcludeID {
				delete(row, r.source.IDColumn)
			}
			if _, seen := byID[key]; !seen {
				byID[key] = row
			}
		}
	}

	misses := 0
	for i, key := range keys {
		if row, ok := byID[key]; ok && bound[i] {
			values[i] = row
			continue
		}
		misses++
	}

	finishFetchSpan(span, nil, rowCount)
	r.metrics.RecordFetch(ctx, r.source.Name, queries, rowCount, misses)
	return values, nil
}

// bindID returns the lookup key and query argument for id, or ok=false when id
// can never match a row.
func (r *Resolver) bindID(id any) (key string, arg any, ok bool) {
	if !r.uuidIDCol {
		return fmt.Sprint(id), id, true
	}
	raw, canonical, ok := uuidutil.ToColumn(id)
	if !ok {
		return "", nil, false
	}
	return canonical, raw, true
}

// projection returns the selected columns. Unless the id is excluded it is
// always part of an explicit projection.
func (r *Resolver) projection() []string {
	cols := r.source.Columns
	if len(cols) == 0 || r.source.ExcludeID || slices.Contains(cols, r.source.IDColumn) {
		return cols
	}
	return append(slices.Clone(cols), r.source.IDColumn)
}

func (r *Resolver) fetch(ctx context.Context, plan planner.SQLQuery) ([]hydrator.Document, error) {
	rows, err := r.executor.QueryContext(ctx, plan.SQL, plan.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows, r.uuidCols)
}

func scanRows(rows dbexec.Rows, uuidCols map[string]bool) ([]hydrator.Document, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []hydrator.Document
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(hydrator.Document, len(columns))
		for i, col := range columns {
			row[col] = convertValue(values[i], uuidCols[col])
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

func convertValue(val any, isUUID bool) any {
	b, ok := val.([]byte)
	if !ok {
		return val
	}
	if isUUID {
		if text, ok := uuidutil.FromColumn(b); ok {
			return text
		}
	}
	return string(b)
}
