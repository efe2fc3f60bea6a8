// Package fixtures provides test data factories for the storefront API.
//
// # Factory Pattern
//
// Create a factory with a database connection:
//
//	f := fixtures.New(tdb.DB)
//
// # Creating Test Data
//
//	product := f.CreateProduct(t)
//	product := f.CreateProduct(t, fixtures.WithTitle("Lamp"), fixtures.WithPrice(12.5))
//	products := f.CreateProducts(t, 3)
//
// # Cleanup
//
// Test data is removed when the test database is closed.
package fixtures
