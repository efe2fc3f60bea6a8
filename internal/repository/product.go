package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/forgo/storefront/api/internal/database"
	"github.com/forgo/storefront/api/internal/model"
)

const productTable = "product"

// ProductRepository handles product data access
type ProductRepository struct {
	db database.Database
}

// NewProductRepository creates a new product repository
func NewProductRepository(db database.Database) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create stores a new product and fills in its ID and CreatedAt.
func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	query := `
		CREATE type::thing($tb, $key) CONTENT {
			title: $title,
			price: $price,
			product_image: $product_image,
			created_at: time::now()
		}
	`
	vars := map[string]interface{}{
		"tb":            productTable,
		"key":           uuid.NewString(),
		"title":         product.Title,
		"price":         product.Price,
		"product_image": product.ProductImage,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := parseProduct(result)
	if err != nil {
		return err
	}
	product.ID = created.ID
	product.CreatedAt = created.CreatedAt
	return nil
}

// GetByID retrieves a product by its key
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT * FROM type::thing($tb, $key)`
	vars := map[string]interface{}{
		"tb":  productTable,
		"key": recordKey(productTable, id),
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parseProduct(result)
}

// List returns up to limit products, newest first.
func (r *ProductRepository) List(ctx context.Context, limit int) ([]*model.Product, error) {
	query := `SELECT * FROM type::table($tb) ORDER BY created_at DESC LIMIT $limit`
	vars := map[string]interface{}{
		"tb":    productTable,
		"limit": limit,
	}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	records := database.Records(results)
	products := make([]*model.Product, 0, len(records))
	for _, rec := range records {
		p, err := parseProduct(rec)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func parseProduct(result interface{}) (*model.Product, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}
	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: unexpected product record %T", database.ErrQuery, result)
	}

	return &model.Product{
		ID:           recordKey(productTable, data["id"]),
		Title:        getString(data, "title"),
		Price:        getFloat(data, "price"),
		ProductImage: getString(data, "product_image"),
		CreatedAt:    parseTime(data["created_at"]),
	}, nil
}
