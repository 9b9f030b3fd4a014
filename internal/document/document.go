// Package document provides the flat wire representation exchanged with the
// remote store and the per-entity mappers between documents and domain
// values.
//
// Documents are schemaless maps. All field access goes through the typed
// helpers here so optional-field lookups, legacy field names and malformed
// values are handled once, at the boundary, instead of scattered through
// business logic. Malformed fields yield zero values; the only hard failure
// a mapper can produce is a nil result when a genuinely required field (the
// name equivalent) is absent, in which case the caller drops the document.
package document

import (
	"time"
)

// Document is a flat field-name-to-value map as serialized on the wire.
// Values are restricted to JSON-representable types: string, float64, bool,
// []any and nil.
type Document map[string]any

// deleteMarker is the type of the Delete sentinel.
type deleteMarker struct{}

// Delete marks a field for removal in a merge write. Setting a document
// field to Delete removes that field from the remote document instead of
// writing a value.
var Delete = deleteMarker{}

// IsDelete reports whether v is the field-delete sentinel.
func IsDelete(v any) bool {
	_, ok := v.(deleteMarker)
	return ok
}

// Str returns the first present string value among the given keys.
// Later keys act as legacy-name fallbacks for older documents.
func (d Document) Str(keys ...string) string {
	for _, k := range keys {
		if s, ok := d[k].(string); ok {
			return s
		}
	}
	return ""
}

// Bool returns the first present bool value among the given keys.
func (d Document) Bool(keys ...string) bool {
	for _, k := range keys {
		if b, ok := d[k].(bool); ok {
			return b
		}
	}
	return false
}

// Int returns the first present numeric value among the given keys,
// truncated to int. JSON decoding yields float64 for all numbers, so both
// forms are accepted.
func (d Document) Int(keys ...string) int {
	for _, k := range keys {
		switch n := d[k].(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return 0
}

// Float returns the first present numeric value among the given keys.
func (d Document) Float(keys ...string) float64 {
	for _, k := range keys {
		switch n := d[k].(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return 0
}

// Time parses the first present RFC 3339 value among the given keys.
// Unparseable values yield the zero time.
func (d Document) Time(keys ...string) time.Time {
	for _, k := range keys {
		s, ok := d[k].(string)
		if !ok {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Strings returns the first present string-array value among the given
// keys. Non-string elements are skipped.
func (d Document) Strings(keys ...string) []string {
	for _, k := range keys {
		arr, ok := d[k].([]any)
		if !ok {
			if ss, ok := d[k].([]string); ok {
				return ss
			}
			continue
		}
		out := make([]string, 0, len(arr))
		for _, v := range arr {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Ints returns the first present numeric-array value among the given keys.
func (d Document) Ints(keys ...string) []int {
	for _, k := range keys {
		arr, ok := d[k].([]any)
		if !ok {
			if is, ok := d[k].([]int); ok {
				return is
			}
			continue
		}
		out := make([]int, 0, len(arr))
		for _, v := range arr {
			if n, ok := v.(float64); ok {
				out = append(out, int(n))
			}
		}
		return out
	}
	return nil
}
