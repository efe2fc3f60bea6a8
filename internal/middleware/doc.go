// Package middleware provides HTTP middleware for the storefront API.
//
// # Available Middleware
//
//   - RequestID: assigns or propagates X-Request-ID
//   - Logger: structured request log plus request metrics
//   - Recovery: turns panics into the generic 500 body
//   - CORS: origin allow-list and preflight handling
//   - Compress: gzip responses when the client accepts it
//   - Auth: requires a bearer token signed by the token service
//   - RateLimit: per client IP, in memory or in redis
//   - EnsureConnected: connects the shared database before the handler runs
//
// # Context Values
//
//   - GetRequestID(ctx): unique request identifier
//   - GetClaims(ctx): verified token claims
//   - GetUserEmail(ctx): email claim of the verified token
package middleware
