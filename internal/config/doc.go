// Package config manages application configuration for the storefront API.
//
// Configuration is read once at startup from the process environment, after
// an optional .env file has been merged in with godotenv. Variables already
// set in the environment win over the file.
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... } // fatal
//	for _, w := range cfg.Warnings() { log.Warn(w) }
//
// # Environment Variables
//
//	PORT                         HTTP port (default: 4242)
//	SERVER_ENV                   development, production or test
//	CORS_ALLOWED_ORIGINS         comma separated origins
//	DB_CONNECTION_STRING         SurrealDB endpoint, e.g. ws://localhost:8000/rpc
//	DB_NAMESPACE, DB_DATABASE    namespace and database to select
//	DB_USER, DB_PASSWORD         optional root credentials
//	DB_CONNECT_TIMEOUT           bound on one connection attempt (default: 10s)
//	DB_REQUIRE_ON_START          exit when the startup connection fails
//	TOKEN_SECRET                 signing secret; "base64:" prefix for binary keys
//	TOKEN_ALGORITHM              HS256 (default), HS384 or HS512
//	TOKEN_ISSUER, TOKEN_TTL      optional iss claim and lifetime
//	RATE_LIMIT_REQUESTS          POST /auth requests per window per client
//	RATE_LIMIT_WINDOW            window length (default: 1m)
//	REDIS_URL                    share rate limits through redis when set
//	LOG_LEVEL                    debug, info, warn or error
//	OTEL_EXPORTER_OTLP_ENDPOINT  enable tracing export when set
//
// Missing DB_CONNECTION_STRING or TOKEN_SECRET do not fail validation outside
// production; the components report them on use and Warnings lists them.
package config
