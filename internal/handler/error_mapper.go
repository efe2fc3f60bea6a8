package handler

import (
	"errors"

	"github.com/forgo/storefront/api/internal/database"
	"github.com/forgo/storefront/api/internal/model"
	"github.com/forgo/storefront/api/internal/service"
	"github.com/forgo/storefront/api/pkg/jwt"
)

// Messages shown to clients for failures whose details stay server side.
const (
	MsgTokenSecretMissing  = "Token Secret Not Configured!"
	MsgTokenAlgorithm      = "Token Algorithm Not Supported!"
	MsgTokenKeyInvalid     = "Token Signing Key Is Invalid!"
	MsgDatabaseNotConfig   = "Database Not Configured!"
	MsgDatabaseUnavailable = "Database Unavailable!"
)

// MapServiceError converts a service error to an APIError.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.APIError {
	if err == nil {
		return nil
	}

	// Services may already return a fully formed API error (validation).
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	// ===== Token Errors =====
	case errors.Is(err, service.ErrTokenConfiguration):
		if errors.Is(err, jwt.ErrUnsupportedAlgorithm) {
			return model.NewConfigurationError(MsgTokenAlgorithm)
		}
		return model.NewConfigurationError(MsgTokenSecretMissing)
	case errors.Is(err, service.ErrInvalidPayload):
		return model.NewInvalidPayloadError(err.Error())
	case errors.Is(err, service.ErrSigning):
		// An unusable key is our fault; anything else the payload caused.
		if errors.Is(err, jwt.ErrInvalidKey) {
			return model.NewSigningError(MsgTokenKeyInvalid, true)
		}
		return model.NewSigningError(err.Error(), false)
	case errors.Is(err, service.ErrInvalidToken):
		return model.NewUnauthorizedError("invalid token")

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrProductNotFound):
		return model.NewNotFoundError("Product")
	case errors.Is(err, database.ErrNotFound):
		return model.NewNotFoundError("Record")

	// ===== Storage Errors =====
	case errors.Is(err, database.ErrConfiguration):
		return model.NewConfigurationError(MsgDatabaseNotConfig)
	case errors.Is(err, database.ErrConnectivity),
		errors.Is(err, database.ErrNotConnected):
		return model.NewServiceUnavailableError(MsgDatabaseUnavailable)
	}

	return model.NewInternalError("")
}
