// Package postgres stores users and reimbursements in PostgreSQL through a
// pgx connection pool. Approval history lives in its own append-only table.
package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Store bundles the repositories that share one pool.
type Store struct {
	Pool           *pgxpool.Pool
	Users          *UserRepository
	Reimbursements *ReimbursementRepository
}

// NewPool constructs a pgx connection pool using the provided connection string.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	if connString == "" {
		return nil, fmt.Errorf("postgres: empty connection string")
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	return pgxpool.NewWithConfig(ctx, cfg)
}

// Open connects, applies the schema and builds the repositories.
func Open(ctx context.Context, connString string) (*Store, error) {
	pool, err := NewPool(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{
		Pool:           pool,
		Users:          NewUserRepository(pool),
		Reimbursements: NewReimbursementRepository(pool),
	}, nil
}

// Migrate applies the idempotent schema as one multi-statement batch.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("postgres: acquire conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Conn().PgConn().Exec(ctx, schemaSQL).ReadAll(); err != nil {
		return fmt.Errorf("postgres: apply schema: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close(context.Context) error {
	s.Pool.Close()
	return nil
}
