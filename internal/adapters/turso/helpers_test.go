package turso_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/emiliopalmerini/framescope/internal/database"
	"github.com/emiliopalmerini/framescope/internal/migrate"
)

// testDB opens a migrated ledger in a per-test libsql file. Foreign keys are
// on so turn_tools cascades can be exercised.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open("file:"+filepath.Join(t.TempDir(), "ledger.db"), "")
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := migrate.RunAll(context.Background(), db); err != nil {
		t.Fatalf("migrate ledger: %v", err)
	}
	return db
}
