package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/forgo/storefront/api/internal/database"
	"github.com/forgo/storefront/api/internal/logger"
	"github.com/forgo/storefront/api/internal/model"
)

// Connector establishes the shared database connection.
// *database.Manager implements it.
type Connector interface {
	Connect(ctx context.Context) error
}

// EnsureConnected calls Connect before every request. Connected managers
// return at once; otherwise the request waits for the shared attempt.
func EnsureConnected(conn Connector, log logger.Logger) Middleware {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := conn.Connect(r.Context())
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			log.Warnw("database unavailable",
				"error", err,
				"request_id", GetRequestID(r.Context()),
			)
			if errors.Is(err, database.ErrConfiguration) {
				model.NewConfigurationError("Database Not Configured!").WriteJSON(w)
				return
			}
			model.NewServiceUnavailableError("Database Unavailable!").WriteJSON(w)
		})
	}
}
