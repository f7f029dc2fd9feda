package store

import (
	"context"
	"database/sql"
)

// DBTX is an interface that abstracts the database access layer.
// It is implemented by both *sql.DB and *sql.Tx, allowing stores
// to run against either a pooled connection or a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Stores bundles the stores bound to one database handle. Inside a
// transaction every store shares the same *sql.Tx.
type Stores struct {
	Tasks  TaskStore
	Shares ShareStore
	Users  UserStore
}

// Transactor runs fn inside a single transaction. fn receives stores bound to
// that transaction; the transaction commits when fn returns nil and rolls
// back otherwise. Row locks taken through the stores are held until fn returns.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Stores) error) error
}
