// Package handler implements the HTTP handlers of the storefront API.
//
// Handlers decode requests, call a service, and write either a success body
// or a model.APIError. Service errors are translated in one place,
// MapServiceError, so every endpoint reports the same failure the same way.
//
// # Endpoints
//
//	GET  /               liveness message
//	GET  /healthz        database connection state
//	POST /auth           issue a signed token for the posted claims
//	GET  /products       newest products
//	GET  /products/{id}  one product
//	POST /products       create a product (bearer token required)
package handler
