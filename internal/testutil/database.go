package testutil

import (
	"testing"

	"gar-go/internal/database"
	"gar-go/internal/gar"
)

// NewTestDatabase creates a new in-memory SQLite database with the schema
// applied. The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.NewSQLite(":memory:", gar.NewNopLogger())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
