// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Lelcaren/mwangaza-rentals/internal/database"
	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"github.com/stretchr/testify/require"
)

// New returns a migrated sqlite database under t.TempDir, closed when the test ends.
func New(t testing.TB) *database.Database {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(context.Background()))
	return db
}
