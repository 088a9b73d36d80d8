// Package testdb opens a migrated in-memory SQLite store for tests.
package testdb

import (
	"testing"

	"github.com/Irvanev/hvala-dvisor-sub000/configs"

	"gorm.io/gorm"
)

// Open returns a fresh store. The pool is pinned to a single connection so
// the in-memory database lives exactly as long as the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := configs.ConnectionDB(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := configs.SetupDatabase(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
