// Package tests contains test cases for models, repositories, and flows to avoid circular imports
package tests

import (
	"net"
	"strconv"
	"testing"

	testingutil "github.com/gigshare/sharelinks/testing"
)

// runWithDB runs fn against a fresh migrated database, skipping when no
// PostgreSQL server is reachable so the rest of the suite still runs.
func runWithDB(t *testing.T, fn func(t *testing.T, testDB *testingutil.TestDB)) {
	t.Helper()

	cfg := testingutil.GetTestDBConfig()
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Skipf("PostgreSQL not reachable at %s: %v", addr, err)
	}
	conn.Close()

	testDB, err := testingutil.SetupTestDB()
	if err != nil {
		t.Fatalf("failed to setup test database: %v", err)
	}
	t.Cleanup(func() {
		if err := testDB.TeardownTestDB(); err != nil {
			t.Logf("warning: failed to cleanup test database: %v", err)
		}
	})

	fn(t, testDB)
}
