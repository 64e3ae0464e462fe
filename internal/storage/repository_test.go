package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteRepositoryPutGet(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "surveystock.db")

	repo, err := NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()

	_, ok, err := repo.Get(ctx, "inventoryData")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Put(ctx, "inventoryData", `{"lastSync":1}`))
	require.NoError(t, repo.Put(ctx, "inventoryData", `{"lastSync":2}`))

	v, ok, err := repo.Get(ctx, "inventoryData")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"lastSync":2}`, v)
}

func TestSQLiteRepositoryReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "surveystock.db")

	repo, err := NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	require.NoError(t, repo.Put(ctx, "k", "persisted"))
	require.NoError(t, repo.Close())

	// Migrations must be a no-op on an existing schema.
	repo, err = NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()

	v, ok, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "persisted", v)
}
