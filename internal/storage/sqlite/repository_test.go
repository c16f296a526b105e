package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikinews-agent/internal/models"
	"github.com/wikinews-agent/internal/storage/sqlite"
)

func newRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.New(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	require.NoError(t, repo.Migrate())
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestGetAbsent(t *testing.T) {
	repo := newRepo(t)
	var l models.Ledger
	found, err := repo.Get(context.Background(), "processed_items", &l)
	require.NoError(t, err)
	require.False(t, found)
}

func TestSetOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.Set(ctx, "processed_items", models.Ledger{"a": {ItemID: "a"}}))
	require.NoError(t, repo.Set(ctx, "processed_items", models.Ledger{"b": {ItemID: "b"}}))

	var l models.Ledger
	found, err := repo.Get(ctx, "processed_items", &l)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, l, 1)
	require.Contains(t, l, "b")
}
