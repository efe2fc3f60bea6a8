// Package repository implements the data access layer for the storefront API.
//
// Repositories run SurrealQL through the database.Database interface and map
// the raw records onto model structs.
//
// # Query Patterns
//
//   - Parameterized queries with $variable syntax
//   - type::thing() for record IDs built from a table and key
//   - time::now() for automatic timestamps
//
// IDs leave this package as bare keys ("6f1c..."), never as "product:6f1c...".
package repository
