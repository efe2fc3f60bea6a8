package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Token Errors =====
var (
	// ErrTokenConfiguration means the signing secret or algorithm is unusable.
	// Not retryable without an operator fixing the environment.
	ErrTokenConfiguration = errors.New("token secret not configured")
	ErrInvalidPayload     = errors.New("invalid token payload")
	ErrSigning            = errors.New("token signing failed")
	ErrInvalidToken       = errors.New("invalid token")
)

// ===== Product Errors =====
var (
	ErrProductNotFound = errors.New("product not found")
)
