package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/forgo/storefront/api/internal/logger"
	"github.com/forgo/storefront/api/internal/model"
)

// ProductService defines the product operations used by the handler
type ProductService interface {
	List(ctx context.Context, limit int) ([]*model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, req model.CreateProductRequest) (*model.Product, error)
}

// ProductHandler handles product endpoints
type ProductHandler struct {
	products ProductService
	log      logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(products ProductService, log logger.Logger) *ProductHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductHandler{products: products, log: log}
}

// List handles GET /products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			WriteError(w, model.NewBadRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	products, err := h.products.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, products)
}

// Get handles GET /products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, product)
}

// Create handles POST /products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProductRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	product, err := h.products.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteData(w, http.StatusCreated, product)
}

func (h *ProductHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := MapServiceError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		h.log.Errorw("product request failed", "error", err, "method", r.Method, "path", r.URL.Path)
	}
	WriteError(w, apiErr)
}
