// Package repository is solace's persistence layer: raw pgx, no ORM, split
// per resource the way the teacher's repository.go groups one struct per
// table but adapted so every repo can run against either the pool or a
// transaction (spec.md §4.9).
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"solace/pkg/config"
)

// pgxIface is the minimal surface every repository needs, satisfied by
// both *pgxpool.Pool (plain CRUD handlers) and pgx.Tx (the ingestion
// coordinator's single transaction per webhook call).
type pgxIface interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Database owns the pool and constructs per-resource repositories bound to
// it. BeginTx hands back a TxDatabase so the same constructors can be
// reused transactionally.
type Database struct {
	Pool *pgxpool.Pool
}

// NewDatabase opens the pool from Settings.DatabaseURL (spec.md §9 —
// configuration flows through pkg/config, never a package-level viper
// lookup inside the repository layer).
func NewDatabase(ctx context.Context, settings *config.Settings) (*Database, error) {
	cfg, err := pgxpool.ParseConfig(settings.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	if settings.PoolMaxConns > 0 {
		cfg.MaxConns = settings.PoolMaxConns
	}
	if settings.PoolMinConns > 0 {
		cfg.MinConns = settings.PoolMinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Database{Pool: pool}, nil
}

func (d *Database) Close() {
	d.Pool.Close()
}

// BeginTx starts a transaction and wraps it in a Tx, which every
// per-resource repository constructor accepts in place of *Database.
func (d *Database) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := d.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &Tx{pgx: tx}, nil
}

// Tx wraps a pgx.Tx so repository constructors can accept either a
// *Database or a *Tx through the Conn() pgxIface.
type Tx struct {
	pgx pgx.Tx
}

func (t *Tx) Conn() pgxIface { return t.pgx }

func (t *Tx) Commit(ctx context.Context) error   { return t.pgx.Commit(ctx) }
func (t *Tx) Rollback(ctx context.Context) error { return t.pgx.Rollback(ctx) }

// Conn returns the pool as a pgxIface, for symmetry with Tx.Conn.
func (d *Database) Conn() pgxIface { return d.Pool }
