// Package sqldb implements the group repositories over database/sql through
// sqlx. Queries are written with `?` placeholders and rebound for the
// connection's driver, so the same repositories serve SQLite and Postgres.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/zjrosen/admingroup/internal/groups/domain"
	"github.com/zjrosen/admingroup/internal/log"
)

// Store implements domain.Store over a sqlx connection pool.
type Store struct {
	db      *sqlx.DB
	txOpts  *sql.TxOptions
	onClose func() error
}

// Option configures a Store.
type Option func(*Store)

// WithTxOptions sets the options every RunInTx transaction begins with.
func WithTxOptions(opts *sql.TxOptions) Option {
	return func(s *Store) { s.txOpts = opts }
}

// WithCloseHook runs fn after the pool is closed.
func WithCloseHook(fn func() error) Option {
	return func(s *Store) { s.onClose = fn }
}

// NewStore wraps an open connection pool.
func NewStore(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ domain.Store = (*Store)(nil)

// Repositories returns repositories bound to the pool.
func (s *Store) Repositories() domain.Repositories {
	return bind(s.db)
}

// RunInTx runs fn inside one transaction and commits when fn returns nil.
//
// Cancelling ctx before the transaction begins aborts the call. Once it has
// begun, the transaction runs to commit or rollback regardless of ctx.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	txCtx := context.WithoutCancel(ctx)

	tx, err := s.db.BeginTxx(txCtx, s.txOpts)
	if err != nil {
		return storeError("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txCtx, bind(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.ErrorErr(log.CatDB, "Rollback failed", rbErr, "cause", err)
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		log.Debug(log.CatDB, "Transaction rolled back", "cause", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError("commit transaction", err)
	}
	return nil
}

// Connection exposes the pool for migrations and diagnostics.
func (s *Store) Connection() *sqlx.DB {
	return s.db
}

// DriverName is the database/sql driver the pool was opened with.
func (s *Store) DriverName() string {
	return s.db.DriverName()
}

// Close closes the pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	if s.onClose != nil {
		return s.onClose()
	}
	return nil
}

func bind(ext sqlx.ExtContext) domain.Repositories {
	return domain.Repositories{
		Groups: newGroupRepository(ext),
		Codes:  newGroupCodeRepository(ext),
	}
}
