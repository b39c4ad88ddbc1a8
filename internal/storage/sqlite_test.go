package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/kwtag/internal/common"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func TestNewSQLiteStorage_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "history.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	require.ErrorIs(t, err, ErrEmptyString)
}

func TestNewSQLiteStorage_Memory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Migrate(context.Background()))
	runs, err := store.ListRuns(context.Background(), RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRetryOnBusy(t *testing.T) {
	busy := fmt.Errorf("failed to save run: %w", sqlite3.Error{Code: sqlite3.ErrBusy})
	locked := sqlite3.Error{Code: sqlite3.ErrLocked}
	constraint := sqlite3.Error{Code: sqlite3.ErrConstraint}

	assert.NoError(t, retryOnBusy(nil))
	assert.Equal(t, busy, retryOnBusy(busy))
	assert.Equal(t, locked, retryOnBusy(locked))

	var retryable *common.RetryableError
	require.ErrorAs(t, retryOnBusy(constraint), &retryable)
	assert.False(t, retryable.Retryable)
}
