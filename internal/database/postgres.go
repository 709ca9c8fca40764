package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL is an implementation of the Catalog interface using PostgreSQL
type PostgreSQL struct {
	pool *pgxpool.Pool
}

// NewPostgreSQL creates a new instance of the PostgreSQL catalog
func NewPostgreSQL(ctx context.Context, connectionURI string) (*PostgreSQL, error) {
	config, err := pgxpool.ParseConfig(connectionURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL config: %w", err)
	}

	// Configure pool for stability-focused defaults
	config.MaxConns = 30
	config.MinConns = 5
	config.MaxConnIdleTime = 30 * time.Minute
	config.MaxConnLifetime = 2 * time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL pool: %w", err)
	}

	// Test the connection
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PostgreSQL{
		pool: pool,
	}, nil
}

// ApplyScript runs a generated script as one multi-statement batch. The
// script manages its own session state (replication role), so it must run on
// a single connection via the simple protocol.
func (db *PostgreSQL) ApplyScript(ctx context.Context, script string) error {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, script, pgx.QueryExecModeSimpleProtocol); err != nil {
		return fmt.Errorf("%w: failed to apply script: %w", ErrDatabase, err)
	}
	return nil
}

func (db *PostgreSQL) ListPublishedServers(ctx context.Context) ([]PublishedServer, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT slug, stars, COALESCE(last_updated::text, '')
		FROM mcp_servers
		ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list servers: %w", ErrDatabase, err)
	}
	defer rows.Close()

	var servers []PublishedServer
	for rows.Next() {
		var s PublishedServer
		if err := rows.Scan(&s.Slug, &s.Stars, &s.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan server row: %w", err)
		}
		servers = append(servers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	return servers, nil
}

func (db *PostgreSQL) ListCategories(ctx context.Context) ([]PublishedCategory, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id, server_count
		FROM categories
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list categories: %w", ErrDatabase, err)
	}
	defer rows.Close()

	var categories []PublishedCategory
	for rows.Next() {
		var c PublishedCategory
		if err := rows.Scan(&c.ID, &c.ServerCount); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	return categories, nil
}

func (db *PostgreSQL) ListTags(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT name
		FROM tags
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list tags: %w", ErrDatabase, err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		tags = append(tags, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	return tags, nil
}

// Close closes the underlying connection pool.
func (db *PostgreSQL) Close() error {
	db.pool.Close()
	return nil
}
