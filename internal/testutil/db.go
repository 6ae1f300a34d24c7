// Package testutil provides a migrated SQLite store and a builder for
// seeding groups and composite keys in tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/admingroup/internal/infrastructure/sqlite"
)

// NewTestStore opens a migrated SQLite store in a temp directory. It is
// closed when the test completes.
func NewTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "admingroup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
