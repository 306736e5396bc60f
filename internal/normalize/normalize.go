// Package normalize is the boundary where heterogeneous upstream values
// (JSON-encoded strings, comma-joined strings, stringly-typed numbers) are
// coerced into the shapes a UnifiedProperty promises. Every place a property
// record crosses a source boundary goes through these helpers.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"khumo/server/internal/models"
)

// Price coerces a possibly-string, possibly-malformed price into a finite
// number >= 0. Garbage ("", "not-a-number", NaN, negative) comes out as 0,
// never NaN and never an error.
func Price(v interface{}) float64 {
	f, ok := asFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// Float returns a pointer to the value when it parses as a finite number,
// nil otherwise. Used for optional numerics like bedrooms and bathrooms.
func Float(v interface{}) *float64 {
	f, ok := asFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Int is Float truncated to an integer.
func Int(v interface{}) *int {
	f := Float(v)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

// String returns the value as a string, or empty when it is not one.
func String(v interface{}) string {
	s, _ := v.(string)
	return s
}

// StringList materializes a value into a real string slice regardless of how
// the source stored it. Precedence: native array passthrough, then JSON-parse
// attempt, then comma-split, then single-element wrap. Always returns a
// non-nil slice.
func StringList(v interface{}) []string {
	switch val := v.(type) {
	case nil:
		return []string{}
	case []string:
		if val == nil {
			return []string{}
		}
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []byte:
		return StringList(string(val))
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return []string{}
		}
		if strings.HasPrefix(trimmed, "[") {
			var parsed []string
			if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
				return parsed
			}
		}
		if strings.Contains(trimmed, ",") {
			parts := strings.Split(trimmed, ",")
			out := make([]string, 0, len(parts))
			for _, part := range parts {
				if p := strings.TrimSpace(part); p != "" {
					out = append(out, p)
				}
			}
			return out
		}
		return []string{trimmed}
	default:
		return []string{}
	}
}

// Coordinates returns a lat/lng pair only when both components parse as
// finite numbers, nil otherwise.
func Coordinates(lat, lng interface{}) *models.Coordinates {
	latF := Float(lat)
	lngF := Float(lng)
	if latF == nil || lngF == nil {
		return nil
	}
	return &models.Coordinates{Lat: *latF, Lng: *lngF}
}

func asFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case []byte:
		return asFloat(string(val))
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
