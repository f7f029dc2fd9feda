package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/taskshare/internal/store"
)

// NewStores binds every store to db, which may be a *sql.DB or a *sql.Tx.
func NewStores(db store.DBTX, logger *slog.Logger) store.Stores {
	return store.Stores{
		Tasks:  NewPostgresTaskStore(db, logger),
		Shares: NewPostgresShareStore(db, logger),
		Users:  NewPostgresUserStore(db, logger),
	}
}

// Transactor implements store.Transactor on a *sql.DB.
type Transactor struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTransactor creates a Transactor for db.
func NewTransactor(db *sql.DB, logger *slog.Logger) *Transactor {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transactor{db: db, logger: logger}
}

// Ensure Transactor implements store.Transactor interface
var _ store.Transactor = (*Transactor)(nil)

// InTx implements store.Transactor.
func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Stores) error) error {
	return store.RunInTransaction(ctx, t.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, NewStores(tx, t.logger))
	})
}
