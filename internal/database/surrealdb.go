package database

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
)

// DialSurreal opens a SurrealDB connection, signs in when credentials are
// configured, and selects the namespace and database.
func DialSurreal(ctx context.Context, cfg Config) (*surrealdb.DB, error) {
	endpoint, err := cfg.ParseEndpoint()
	if err != nil {
		return nil, err
	}

	db, err := surrealdb.FromEndpointURLString(ctx, endpoint.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	if cfg.User != "" {
		_, err = db.SignIn(ctx, &surrealdb.Auth{
			Username: cfg.User,
			Password: cfg.Password,
		})
		if err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("%w: signin failed: %v", ErrConnectivity, err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("%w: use failed: %v", ErrConnectivity, err)
	}

	return db, nil
}

// ConnSource hands out the current connection. *Manager[*surrealdb.DB] implements it.
type ConnSource interface {
	Conn() (*surrealdb.DB, error)
}

// SurrealStore implements Database on top of the manager's shared connection.
type SurrealStore struct {
	source ConnSource
}

// NewSurrealStore creates a store that queries through source.
func NewSurrealStore(source ConnSource) *SurrealStore {
	return &SurrealStore{source: source}
}

// Ping checks the database connection
func (s *SurrealStore) Ping(ctx context.Context) error {
	db, err := s.source.Conn()
	if err != nil {
		return err
	}
	if _, err := db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return nil
}

// Query executes a query and returns one {status, result} entry per statement.
func (s *SurrealStore) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	db, err := s.source.Conn()
	if err != nil {
		return nil, err
	}

	results, err := surrealdb.Query[interface{}](ctx, db, query, vars)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if results == nil {
		return nil, nil
	}

	output := make([]interface{}, 0, len(*results))
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return nil, fmt.Errorf("%w: %s", ErrQuery, r.Error.Message)
			}
			return nil, ErrQuery
		}
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}

	return output, nil
}

// QueryOne executes a query and returns the first record of the first statement.
func (s *SurrealStore) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return FirstRecord(results)
}

// Execute runs a query without returning results
func (s *SurrealStore) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// FirstRecord unwraps the first statement result and returns its first record.
// Scalar results are returned as-is.
func FirstRecord(results []interface{}) (interface{}, error) {
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	first := results[0]
	resp, ok := first.(map[string]interface{})
	if !ok {
		return first, nil
	}
	if status, ok := resp["status"].(string); !ok || status != "OK" {
		return first, nil
	}

	records, ok := resp["result"].([]interface{})
	if !ok {
		return resp["result"], nil
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// Records unwraps the record list of the first statement result.
func Records(results []interface{}) []interface{} {
	if len(results) == 0 {
		return nil
	}
	resp, ok := results[0].(map[string]interface{})
	if !ok {
		return nil
	}
	switch r := resp["result"].(type) {
	case []interface{}:
		return r
	case nil:
		return nil
	default:
		return []interface{}{r}
	}
}
