// Package postgres provides a PostgreSQL implementation of datagroup.Store.
// It uses pgx/v5 for connection pooling.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwessel/relais/pkg/datagroup"
)

// Store is a PostgreSQL-backed datagroup.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements datagroup.Store at compile time.
var _ datagroup.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Put upserts the entry, replacing value and owning group on conflict.
func (s *Store) Put(ctx context.Context, key, value, group string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO datagroup_entries (key, value, group_name, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, group_name = EXCLUDED.group_name, updated_at = now()
	`, key, value, group)
	if err != nil {
		return fmt.Errorf("storing entry %q: %w", key, err)
	}
	return nil
}

// Get returns the value for key when group matches the owning group. The
// group comparison happens here rather than in SQL so a present key with a
// wrong group is distinguishable from an absent key.
func (s *Store) Get(ctx context.Context, key, group string) (string, error) {
	var value, owner string
	err := s.pool.QueryRow(ctx,
		`SELECT value, group_name FROM datagroup_entries WHERE key = $1`,
		key,
	).Scan(&value, &owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", datagroup.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading entry %q: %w", key, err)
	}
	if owner != group {
		return "", datagroup.ErrAccessDenied
	}
	return value, nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
