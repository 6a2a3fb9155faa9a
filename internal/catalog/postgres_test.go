package catalog

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPostgresStore needs a disposable database in MCPCHAIN_TEST_DATABASE_URL.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("MCPCHAIN_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("MCPCHAIN_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS mcp_servers (
		id text PRIMARY KEY, name text, category text, description text)`)
	require.NoError(t, err)
	_, err = store.pool.Exec(ctx, `
		INSERT INTO mcp_servers (id, name, category, description) VALUES ($1, $2, $3, NULL)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, category = EXCLUDED.category, description = NULL`,
		"mcpchain-test", "Test Server", "dev")
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = store.pool.Exec(context.Background(), `DELETE FROM mcp_servers WHERE id = $1`, "mcpchain-test")
	})

	e, err := store.FindEntry(ctx, "mcpchain-test")
	require.NoError(t, err)
	assert.Equal(t, Entry{ID: "mcpchain-test", DisplayName: "Test Server", Category: "dev"}, e)

	_, err = store.FindEntry(ctx, "mcpchain-ghost")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids(list), "mcpchain-test")
}
