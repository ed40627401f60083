// Package storetest opens migrated throwaway databases for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"campuslog/internal/store"
)

// Open returns a migrated SQLite database living in t.TempDir.
func Open(t *testing.T) *store.DB {
	t.Helper()
	ctx := context.Background()
	db, err := store.NewDB(ctx, store.DriverSQLite, filepath.Join(t.TempDir(), "campus.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(ctx, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
