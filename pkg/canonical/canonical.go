// Package canonical serializes attribute and property bags in a key-order
// independent form and fingerprints them.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/minio/highwayhash"
)

var key = []byte("mergeassist-canonical-v1-key-32b")

// Normalize converts decoded YAML/JSON values into a form encoding/json can
// serialize deterministically: maps with non-string keys become string-keyed.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	default:
		return v
	}
}

// Marshal returns the canonical compact JSON encoding of v.
// Map keys are emitted in sorted order, so two bags that differ only in key
// ordering serialize identically.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Normalize(v)); err != nil {
		return nil, fmt.Errorf("canonical encoding: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalIndent is Marshal with two-space indentation, one value per line.
func MarshalIndent(v any) ([]byte, error) {
	compact, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("canonical indent: %w", err)
	}
	return buf.Bytes(), nil
}

// String renders v for display: strings verbatim, everything else canonically.
func String(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	data, err := Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// Fingerprint hashes the canonical encoding of v with HighwayHash-64.
func Fingerprint(v any) (uint64, error) {
	data, err := Marshal(v)
	if err != nil {
		return 0, err
	}
	hash, err := highwayhash.New64(key)
	if err != nil {
		return 0, err
	}
	if _, err := hash.Write(data); err != nil {
		return 0, err
	}
	return hash.Sum64(), nil
}

// Equal reports whether a and b have the same canonical encoding.
func Equal(a, b any) (bool, error) {
	da, err := Marshal(a)
	if err != nil {
		return false, err
	}
	db, err := Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
