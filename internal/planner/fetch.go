package planner

import (
	"fmt"

	"document-hydrator/internal/sqlutil"

	sq "github.com/Masterminds/squirrel"
)

// FetchSpec describes a lookup of rows by identifier.
type FetchSpec struct {
	Table    string   // optionally schema-qualified, e.g. "shop.users"
	IDColumn string   // column matched against the identifiers
	Columns  []string // selected columns; empty selects every column
}

// PlanFetchByIDs builds the SQL for a batched lookup of rows whose id column is
// one of ids. Every row also carries its id column under HydrateIDAlias.
// An empty ids slice yields an empty query.
func PlanFetchByIDs(spec FetchSpec, ids []interface{}) (SQLQuery, error) {
	if len(ids) == 0 {
		return SQLQuery{}, nil
	}
	if spec.Table == "" {
		return SQLQuery{}, fmt.Errorf("fetch requires a table")
	}
	if spec.IDColumn == "" {
		return SQLQuery{}, fmt.Errorf("fetch from %s requires an id column", spec.Table)
	}

	idColumn := sqlutil.QuoteIdentifier(spec.IDColumn)
	builder := sq.Select(selectList(spec.Columns)...).
		Column(fmt.Sprintf("%s AS %s", idColumn, HydrateIDAlias)).
		From(sqlutil.QuoteQualified(spec.Table)).
		Where(sq.Eq{idColumn: ids})

	query, args, err := builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: query, Args: args}, nil
}

func selectList(columns []string) []string {
	if len(columns) == 0 {
		return []string{"*"}
	}
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = sqlutil.QuoteIdentifier(col)
	}
	return quoted
}

// ChunkIDs splits ids into consecutive chunks of at most size elements.
// A non-positive size returns ids as a single chunk.
func ChunkIDs(ids []interface{}, size int) [][]interface{} {
	if len(ids) == 0 {
		return nil
	}
	if size <= 0 || len(ids) <= size {
		return [][]interface{}{ids}
	}
	chunks := make([][]interface{}, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
