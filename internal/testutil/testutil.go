package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vytor/learnprogress/internal/db"
	"github.com/vytor/learnprogress/internal/logger"
)

// NewTestDB opens a SQLite database in a per-test temp directory with all
// migrations applied. A file is used rather than :memory: so every pooled
// connection sees the same data.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()
	logger.SetDefault(logger.Discard())

	database, err := db.Open("file:" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return database
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
