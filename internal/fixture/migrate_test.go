package fixture

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/huangsam/tribal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_NoneBackend(t *testing.T) {
	_, err := Migrate(schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "migrations are not supported for NoneBackend")
}

func TestMigrate_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	result, err := Migrate(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, uint(0), result.From)
	assert.Equal(t, uint(2), result.To)

	result, err = Migrate(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.False(t, result.Changed, "second run is a no-op")

	result, err = Migrate(schema.SQLiteBackend, dbPath, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), result.To)

	result, err = Migrate(schema.SQLiteBackend, dbPath, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(0), result.To)

	result, err = Migrate(schema.SQLiteBackend, dbPath, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(2), result.To)
}

func TestMigrate_StoreSeesSchemaVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fixture.db")
	_, err := Migrate(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)

	store, err := NewStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint(2), status.SchemaVersion)
	assert.False(t, status.Dirty)
}

func TestMigrate_AfterStoreCreatedTables(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fixture.db")
	store, err := NewStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	result, err := Migrate(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.Equal(t, uint(2), result.To)
}
