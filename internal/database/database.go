// Package database owns connectivity to the SurrealDB document store.
//
// # Connection Manager
//
// Manager holds the single process-wide connection and its state machine:
//
//	Disconnected -> Connecting -> Connected
//	                          \-> Failed -> Connecting -> ...
//
// Connect is idempotent and single-flight. Concurrent callers that arrive while
// an attempt is in flight share that attempt and observe its outcome; callers
// that arrive after Connected return immediately without touching the network.
// A Failed manager retries on the next Connect call. The manager never retries
// on its own.
//
// # Error Handling
//
// Connection failures are classified so callers can decide on policy:
//   - ErrConfiguration: the endpoint (or namespace/database) is missing or malformed
//   - ErrConnectivity: dial, sign-in or namespace selection failed, or timed out
//
// Use errors.Is() to check error types:
//
//	if errors.Is(err, database.ErrConnectivity) {
//	    // Retry later
//	}
//
// # Usage Example
//
//	mgr := database.NewManager(database.ManagerConfig[*surrealdb.DB]{
//	    Config: cfg,
//	    Dial:   database.DialSurreal,
//	    Logger: log,
//	})
//	if err := mgr.Connect(ctx); err != nil { ... }
//	defer mgr.Close(ctx)
//
//	store := database.NewSurrealStore(mgr)
//	result, err := store.QueryOne(ctx, "SELECT * FROM product WHERE id = $id", vars)
package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Standard errors for database operations.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConfiguration indicates the connection settings are missing or malformed.
	// It is not retryable without operator intervention.
	ErrConfiguration = errors.New("database configuration error")

	// ErrConnectivity indicates the store could not be reached, rejected the
	// credentials, or timed out. Retry by calling Connect again.
	ErrConnectivity = errors.New("database connection error")

	// ErrNotConnected is returned by queries issued before Connect succeeded.
	ErrNotConnected = errors.New("database not connected")

	// ErrQuery indicates a query execution failure (syntax error, invalid reference, etc.).
	ErrQuery = errors.New("query error")
)

// DefaultConnectTimeout bounds a single connection attempt.
const DefaultConnectTimeout = 10 * time.Second

// Database defines the query surface used by repositories.
type Database interface {
	// Query executes a query and returns results
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a query and returns a single result
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config holds database connection settings.
type Config struct {
	// Endpoint is the connection string, e.g. ws://localhost:8000/rpc.
	Endpoint       string
	Namespace      string
	Database       string
	User           string
	Password       string
	ConnectTimeout time.Duration
}

var endpointSchemes = map[string]bool{
	"ws":    true,
	"wss":   true,
	"http":  true,
	"https": true,
}

// ParseEndpoint validates the endpoint string. Every failure wraps ErrConfiguration.
func (c Config) ParseEndpoint() (*url.URL, error) {
	raw := strings.TrimSpace(c.Endpoint)
	if raw == "" {
		return nil, fmt.Errorf("%w: connection endpoint is not set", ErrConfiguration)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed connection endpoint", ErrConfiguration)
	}
	if !endpointSchemes[strings.ToLower(u.Scheme)] {
		return nil, fmt.Errorf("%w: unsupported endpoint scheme %q", ErrConfiguration, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: connection endpoint has no host", ErrConfiguration)
	}
	return u, nil
}

// Validate checks everything needed before a dial is attempted.
func (c Config) Validate() error {
	if _, err := c.ParseEndpoint(); err != nil {
		return err
	}
	if c.Namespace == "" {
		return fmt.Errorf("%w: namespace is not set", ErrConfiguration)
	}
	if c.Database == "" {
		return fmt.Errorf("%w: database name is not set", ErrConfiguration)
	}
	return nil
}

// RedactedEndpoint returns the endpoint with any userinfo removed, for logging.
func (c Config) RedactedEndpoint() string {
	u, err := url.Parse(strings.TrimSpace(c.Endpoint))
	if err != nil {
		return "<malformed>"
	}
	u.User = nil
	return u.String()
}

func (c Config) connectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return DefaultConnectTimeout
	}
	return c.ConnectTimeout
}
