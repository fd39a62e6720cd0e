package storage

import (
	"context"
	"path/filepath"
	"testing"
)

// TestRunMigrationsMissingDir verifies a bad migrations path fails before any
// database is contacted.
func TestRunMigrationsMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	if _, err := RunMigrations("postgres://u:p@127.0.0.1:1/liftcalc?sslmode=disable", dir); err == nil {
		t.Fatal("expected error for missing migrations directory")
	}
}

// TestGetOrCreateUserEmptyLogin verifies an empty tailnet login is rejected
// without a query.
func TestGetOrCreateUserEmptyLogin(t *testing.T) {
	db := &DB{}
	if _, err := db.GetOrCreateUser(context.Background(), "", "Nobody"); err == nil {
		t.Fatal("expected error for empty login")
	}
}
