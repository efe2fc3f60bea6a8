package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// recordKey extracts the key part of a SurrealDB record ID for table.
// "product:abc", "product:⟨abc⟩" and models.RecordID{Table: "product", ID: "abc"}
// all yield "abc".
func recordKey(table string, id interface{}) string {
	var raw string
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		raw = v
	case models.RecordID:
		raw = fmt.Sprintf("%v", v.ID)
	case *models.RecordID:
		if v == nil {
			return ""
		}
		raw = fmt.Sprintf("%v", v.ID)
	case map[string]interface{}:
		if inner, ok := v["id"]; ok {
			return recordKey(table, inner)
		}
		return ""
	default:
		raw = fmt.Sprintf("%v", v)
	}

	raw = strings.TrimPrefix(raw, table+":")
	raw = strings.TrimPrefix(raw, "⟨")
	raw = strings.TrimSuffix(raw, "⟩")
	return raw
}

// parseTime parses time from various formats
func parseTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t != nil {
			return t.Time
		}
	}
	return time.Time{}
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getFloat extracts a numeric value from a map. CBOR decoding yields integer
// types for whole numbers.
func getFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}
