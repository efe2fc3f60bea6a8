// Package service implements the business logic layer for the storefront API.
//
// # Service Pattern
//
// All services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts a config struct with its dependencies
//   - Methods implement business operations with proper validation
//   - Errors are returned as sentinel errors or wrapped errors for context
//
// # Token Service
//
// TokenService signs caller-supplied claims with the configured secret. It
// keeps no state between calls. Failures are classified so handlers can pick
// a status without inspecting messages:
//
//   - ErrTokenConfiguration: secret missing or algorithm unsupported
//   - ErrInvalidPayload: claims are not a usable mapping
//   - ErrSigning: the signer itself failed
//
// # Example Usage
//
//	tokens := NewTokenService(TokenServiceConfig{
//	    Secret:    cfg.Token.Secret,
//	    Algorithm: cfg.Token.Algorithm,
//	})
//	token, err := tokens.Issue(Claims{"email": "a@b.com"})
package service
