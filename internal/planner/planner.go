// Package planner builds the SQL statements issued by source resolvers.
package planner

// HydrateIDAlias is the column alias used to return the lookup key of each row.
// Rows are matched back to identifiers through this column, so the source's own
// id column can be left out of the hydrated document.
const HydrateIDAlias = "__hydrate_id"

// SQLQuery is a planned statement with its positional arguments.
type SQLQuery struct {
	SQL  string
	Args []interface{}
}
