package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forgo/storefront/api/internal/database"
	"github.com/forgo/storefront/api/internal/model"
)

// Product listing bounds.
const (
	DefaultProductLimit = 50
	MaxProductLimit     = 100
)

// ProductRepository defines the interface for product storage
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, limit int) ([]*model.Product, error)
}

// ProductServiceConfig holds configuration for the product service
type ProductServiceConfig struct {
	ProductRepo ProductRepository
}

// ProductService handles the product catalog
type ProductService struct {
	productRepo ProductRepository
}

// NewProductService creates a new product service
func NewProductService(cfg ProductServiceConfig) *ProductService {
	return &ProductService{
		productRepo: cfg.ProductRepo,
	}
}

// List returns the newest products first. limit is clamped to
// [1, MaxProductLimit]; zero or negative selects the default.
func (s *ProductService) List(ctx context.Context, limit int) ([]*model.Product, error) {
	if limit <= 0 {
		limit = DefaultProductLimit
	}
	if limit > MaxProductLimit {
		limit = MaxProductLimit
	}

	products, err := s.productRepo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*model.Product{}
	}
	return products, nil
}

// Get returns a single product by ID
func (s *ProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create validates the request and stores a new product.
// Validation failures are returned as *model.APIError.
func (s *ProductService) Create(ctx context.Context, req model.CreateProductRequest) (*model.Product, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.ProductImage = strings.TrimSpace(req.ProductImage)

	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	product := &model.Product{
		Title:        req.Title,
		Price:        *req.Price,
		ProductImage: req.ProductImage,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}
