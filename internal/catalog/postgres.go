package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads the hosted registry table.
//
// The table is owned by the marketplace application; this store only reads
// from it:
//
//	mcp_servers(id text primary key, name text, category text, description text)
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the registry database and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// FindEntry returns the entry with the given identifier.
func (s *PostgresStore) FindEntry(ctx context.Context, id string) (Entry, error) {
	var e Entry
	err := s.pool.QueryRow(ctx, `
		SELECT id, COALESCE(name, ''), COALESCE(category, ''), COALESCE(description, '')
		FROM mcp_servers
		WHERE id = $1`, id,
	).Scan(&e.ID, &e.DisplayName, &e.Category, &e.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to query entry %s: %w", id, err)
	}
	return e, nil
}

// List returns all entries ordered by name.
func (s *PostgresStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, COALESCE(name, ''), COALESCE(category, ''), COALESCE(description, '')
		FROM mcp_servers
		ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.DisplayName, &e.Category, &e.Description); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
