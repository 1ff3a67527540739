// internal/jsonutil/json.go
package jsonutil

import (
	"encoding/json"
	"io"
)

// Encode writes v as compact JSON to w, newline terminated.
func Encode(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// Decode reads one JSON value from r into v. Trailing data is ignored,
// matching how HTTP bodies are consumed.
func Decode(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
