// Package utils holds small JSON helpers shared by the API and the CLI.
package utils

import (
	"encoding/json"
	"io"
	"reflect"

	"github.com/cockroachdb/errors"
)

// DecodeStrict decodes a single JSON value from r into a new T. Unknown
// object fields and trailing data are rejected.
//
// Example:
//
//	q, err := DecodeStrict[query.StructuredQuery](r.Body)
func DecodeStrict[T any](r io.Reader) (T, error) {
	var zero T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var out T
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return zero, errors.New("empty JSON body")
		}
		return zero, errors.Wrap(err, "invalid JSON")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return zero, errors.New("invalid JSON: unexpected data after the first value")
	}
	return out, nil
}

// MapToStruct converts a map[string]any into a new T by a JSON round trip.
// T must be a struct or a pointer to a struct. Fields of the map that T
// does not declare are ignored.
//
// Example:
//
//	q, err := MapToStruct[query.StructuredQuery](map[string]any{"aggregation": "count"})
func MapToStruct[T any](input map[string]any) (T, error) {
	var zero T
	if input == nil {
		return zero, errors.New("MapToStruct: input map cannot be nil")
	}

	typ := reflect.TypeOf(zero)
	if typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return zero, errors.Newf("MapToStruct: generic type T must be a struct type (or pointer to struct), got %v", typ)
	}

	data, err := json.Marshal(input)
	if err != nil {
		return zero, errors.Wrap(err, "MapToStruct: failed to marshal input map to JSON")
	}
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return zero, errors.Wrap(err, "MapToStruct: failed to unmarshal JSON to target struct")
	}
	return result, nil
}
