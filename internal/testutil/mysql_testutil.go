package testutil

import (
	"os"
	"testing"

	"github.com/chapterly/webnovel-go-server/internal/db"
)

// SetupMySQLTestDB initializes a MySQL-backed DB for integration tests.
// It skips tests when MYSQL_TEST_DSN is not set.
func SetupMySQLTestDB(t *testing.T) *db.DB {
	t.Helper()

	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set; skipping MySQL integration tests")
	}

	database, err := db.New(dsn)
	if err != nil {
		t.Fatalf("failed to init mysql test db: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close()
	})

	resetMySQLTables(t, database)
	return database
}

func resetMySQLTables(t *testing.T, database *db.DB) {
	t.Helper()

	stmts := []string{
		"SET FOREIGN_KEY_CHECKS=0",
		"TRUNCATE TABLE author_credit_queue",
		"TRUNCATE TABLE coin_transactions",
		"TRUNCATE TABLE purchases",
		"TRUNCATE TABLE reading_history",
		"TRUNCATE TABLE novel_ratings",
		"TRUNCATE TABLE bookmarks",
		"TRUNCATE TABLE featured_novels",
		"TRUNCATE TABLE novel_genres",
		"TRUNCATE TABLE novel_tags",
		"TRUNCATE TABLE genres",
		"TRUNCATE TABLE tags",
		"TRUNCATE TABLE chapters",
		"TRUNCATE TABLE novels",
		"TRUNCATE TABLE coin_packages",
		"TRUNCATE TABLE pages",
		"TRUNCATE TABLE menu_items",
		"TRUNCATE TABLE payment_settings",
		"TRUNCATE TABLE site_settings",
		"TRUNCATE TABLE profiles",
		"SET FOREIGN_KEY_CHECKS=1",
	}

	for _, stmt := range stmts {
		if _, err := database.Exec(stmt); err != nil {
			t.Fatalf("mysql reset failed on %q: %v", stmt, err)
		}
	}
}
