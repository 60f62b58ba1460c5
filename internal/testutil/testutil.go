// Package testutil provides shared test helpers for setting up site directories and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestSite creates a temporary site directory with a storage.Provider.
func TestSite(t *testing.T) (string, storage.Provider) {
	t.Helper()
	siteDir := t.TempDir()
	store, err := storage.NewFS(siteDir)
	if err != nil {
		t.Fatal(err)
	}
	return siteDir, store
}
