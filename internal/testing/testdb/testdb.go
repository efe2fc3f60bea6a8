// Package testdb provides test database utilities for e2e testing.
//
// Each TestDB owns its own connection manager pointed at a unique namespace,
// so tests run real queries against a real SurrealDB without sharing data.
// Tests are skipped when no SurrealDB is reachable.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    defer tdb.Close()
//
//	    results := tdb.MustQuery("SELECT * FROM product", nil)
//	}
package testdb

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/forgo/storefront/api/internal/database"
)

// TestDB provides an isolated database environment for testing.
type TestDB struct {
	Manager   *database.Manager[*surrealdb.DB]
	DB        *database.SurrealStore
	Namespace string
	Database  string
	t         *testing.T
}

var (
	// counterMu protects the namespace counter
	counterMu sync.Mutex
	counter   int64
)

// Config returns the connection settings from the environment or defaults.
// The namespace and database are left for the caller to fill.
func Config() database.Config {
	return database.Config{
		Endpoint:       getEnv("TEST_DB_URL", "ws://localhost:8000/rpc"),
		User:           getEnv("TEST_DB_USER", "root"),
		Password:       getEnv("TEST_DB_PASSWORD", "root"),
		ConnectTimeout: 5 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// uniqueNamespace generates a unique namespace for test isolation
func uniqueNamespace() string {
	counterMu.Lock()
	defer counterMu.Unlock()
	counter++
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter)
}

// NewManager returns a disconnected manager for a fresh namespace.
func NewManager(t *testing.T) *database.Manager[*surrealdb.DB] {
	t.Helper()

	cfg := Config()
	cfg.Namespace = uniqueNamespace()
	cfg.Database = "test"

	return database.NewManager(database.ManagerConfig[*surrealdb.DB]{
		Config: cfg,
		Dial:   database.DialSurreal,
	})
}

// New connects to an isolated test namespace. The test is skipped when the
// database cannot be reached. Call Close when done.
func New(t *testing.T) *TestDB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := Config()
	cfg.Namespace = uniqueNamespace()
	cfg.Database = "test"

	manager := database.NewManager(database.ManagerConfig[*surrealdb.DB]{
		Config: cfg,
		Dial:   database.DialSurreal,
	})
	if err := manager.Connect(ctx); err != nil {
		t.Skipf("testdb: SurrealDB unavailable at %s: %v", cfg.RedactedEndpoint(), err)
	}

	return &TestDB{
		Manager:   manager,
		DB:        database.NewSurrealStore(manager),
		Namespace: cfg.Namespace,
		Database:  cfg.Database,
		t:         t,
	}
}

// Close removes the test namespace and closes the connection.
func (tdb *TestDB) Close() {
	if tdb.Manager == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := fmt.Sprintf("REMOVE NAMESPACE %s", tdb.Namespace)
	_ = tdb.DB.Execute(ctx, query, nil) // Ignore errors on cleanup

	_ = tdb.Manager.Close(ctx)
}

// Ctx returns a context with a reasonable timeout for test operations.
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}

// MustExec executes a query and fails the test on error.
func (tdb *TestDB) MustExec(query string, vars map[string]interface{}) {
	tdb.t.Helper()
	if err := tdb.DB.Execute(tdb.Ctx(), query, vars); err != nil {
		tdb.t.Fatalf("testdb: exec failed: %v\nQuery: %s", err, query)
	}
}

// MustQuery executes a query and returns results, failing the test on error.
func (tdb *TestDB) MustQuery(query string, vars map[string]interface{}) []interface{} {
	tdb.t.Helper()
	results, err := tdb.DB.Query(tdb.Ctx(), query, vars)
	if err != nil {
		tdb.t.Fatalf("testdb: query failed: %v\nQuery: %s", err, query)
	}
	return results
}

// Reset deletes every product so subtests start empty.
func (tdb *TestDB) Reset(t *testing.T) {
	t.Helper()
	if err := tdb.DB.Execute(tdb.Ctx(), "DELETE product", nil); err != nil {
		t.Fatalf("testdb: reset failed: %v", err)
	}
}
