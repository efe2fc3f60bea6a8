// Package testdb provides test database utilities for the storefront API.
//
// # Test Database Setup
//
// Create a test database for each test:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    defer tdb.Close()
//
//	    // Use tdb.DB for queries and tdb.Manager for connection state
//	}
//
// # Environment
//
//	TEST_DB_URL      - SurrealDB endpoint (default: ws://localhost:8000/rpc)
//	TEST_DB_USER     - SurrealDB username (default: root)
//	TEST_DB_PASSWORD - SurrealDB password (default: root)
//
// # Isolation
//
// Each TestDB gets its own namespace, removed again by Close.
package testdb
