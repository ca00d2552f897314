// Package keys derives structural cache keys from plain values.
//
// A key is the SHA-256 of the deterministic JSON encoding of a value, so two
// values that compare equal field by field produce the same key regardless of
// map iteration order or pointer identity.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/go-json-experiment/json"
)

// Of returns the structural key of v. It panics if v cannot be encoded,
// which only happens for values holding funcs or channels.
func Of(v any) string {
	k, err := Try(v)
	if err != nil {
		panic(err)
	}
	return k
}

// Try is Of with the encoding error returned instead of panicking.
func Try(v any) (string, error) {
	b, err := json.Marshal(v, json.Deterministic(true))
	if err != nil {
		return "", fmt.Errorf("encode key: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
