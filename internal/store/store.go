// Package store holds the SQL queries behind orders, menu items, status
// history, settings and station locks. Lookups of missing rows return
// nil, nil.
package store

import (
	"context"
	"database/sql"
)

// querier is the subset of *sql.DB and *sql.Tx used by shared helpers.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
