// Package postgres opens the group registry on PostgreSQL. Connections come
// from a pgx pool exposed through database/sql, so the shared sqldb
// repositories run unchanged. Write transactions use SERIALIZABLE isolation.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/zjrosen/admingroup/internal/infrastructure/sqldb"
	"github.com/zjrosen/admingroup/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DriverName is the sqlx bind name for pgx connections.
const DriverName = "pgx"

// DB is a migrated Postgres store.
type DB struct {
	*sqldb.Store
	pool *pgxpool.Pool
}

// NewDB connects to dsn and applies pending migrations.
func NewDB(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	conn := stdlib.OpenDBFromPool(pool)
	if err := runMigrations(conn); err != nil {
		_ = conn.Close()
		pool.Close()
		return nil, err
	}

	log.Debug(log.CatDB, "Opened postgres store", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	store := sqldb.NewStore(sqlx.NewDb(conn, DriverName),
		sqldb.WithTxOptions(&sql.TxOptions{Isolation: sql.LevelSerializable}),
		sqldb.WithCloseHook(func() error {
			pool.Close()
			return nil
		}),
	)
	return &DB{Store: store, pool: pool}, nil
}

// Pool returns the underlying pgx pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

func runMigrations(conn *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	defer func() { _ = src.Close() }()

	driver, err := migratepgx.WithInstance(conn, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	version, dirty, _ := m.Version()
	log.Debug(log.CatDB, "Migrations applied", "version", version, "dirty", dirty)
	return nil
}
