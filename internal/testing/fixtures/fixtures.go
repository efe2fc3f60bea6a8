// Package fixtures provides test data factories for e2e testing.
//
// Each factory method creates entities with sensible defaults while allowing
// customization via option functions. Factories insert through the real
// repositories and return fully populated models.
//
// Usage:
//
//	f := fixtures.New(tdb.DB)
//	product := f.CreateProduct(t)
package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/forgo/storefront/api/internal/database"
	"github.com/forgo/storefront/api/internal/model"
	"github.com/forgo/storefront/api/internal/repository"
)

// Factory creates test entities in the database
type Factory struct {
	products *repository.ProductRepository
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{products: repository.NewProductRepository(db)}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ============================================================================
// Product Fixtures
// ============================================================================

// ProductOpts customizes product creation
type ProductOpts struct {
	Title        string
	Price        float64
	ProductImage string
}

// WithTitle sets the product title
func WithTitle(title string) func(*ProductOpts) {
	return func(o *ProductOpts) { o.Title = title }
}

// WithPrice sets the product price
func WithPrice(price float64) func(*ProductOpts) {
	return func(o *ProductOpts) { o.Price = price }
}

// CreateProduct creates a product with optional customizations
func (f *Factory) CreateProduct(t *testing.T, opts ...func(*ProductOpts)) *model.Product {
	t.Helper()

	id := randomID()
	o := &ProductOpts{
		Title:        fmt.Sprintf("Product %s", id),
		Price:        9.99,
		ProductImage: fmt.Sprintf("https://img.test.local/%s.png", id),
	}
	for _, fn := range opts {
		fn(o)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	product := &model.Product{
		Title:        o.Title,
		Price:        o.Price,
		ProductImage: o.ProductImage,
	}
	if err := f.products.Create(ctx, product); err != nil {
		t.Fatalf("fixtures: failed to create product: %v", err)
	}
	return product
}

// CreateProducts creates n products with default values
func (f *Factory) CreateProducts(t *testing.T, n int) []*model.Product {
	t.Helper()

	products := make([]*model.Product, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, f.CreateProduct(t))
	}
	return products
}
