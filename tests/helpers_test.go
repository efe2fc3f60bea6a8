package tests

import (
	"net/http"
	"testing"

	"github.com/forgo/storefront/api/internal/repository"
	"github.com/forgo/storefront/api/internal/server"
	"github.com/forgo/storefront/api/internal/service"
	"github.com/forgo/storefront/api/internal/testing/testdb"
)

// newTestRouter serves the full API against tdb.
func newTestRouter(t *testing.T, tdb *testdb.TestDB, tokens *service.TokenService) http.Handler {
	t.Helper()

	products := service.NewProductService(service.ProductServiceConfig{
		ProductRepo: repository.NewProductRepository(tdb.DB),
	})

	return server.NewRouter(server.Deps{
		AllowedOrigins: []string{"http://localhost:3000"},
		DB:             tdb.Manager,
		Tokens:         tokens,
		Products:       products,
	})
}
