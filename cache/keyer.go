package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Keyer derives cache keys for health reports.
//
// Implementations must be safe for concurrent use and deterministic: the
// same scope and input give the same key regardless of map iteration order.
type Keyer interface {
	Key(scope string, input any) (string, error)
}

// DefaultKeyer hashes a canonical JSON form of the input with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key returns "lifeops:<scope>:<hash>" where hash is the first 16 hex
// characters of the digest. Maps are encoded with sorted keys and name
// lists ([]string) are treated as sets.
func (k *DefaultKeyer) Key(scope string, input any) (string, error) {
	var buf bytes.Buffer
	if err := canonicalize(&buf, input); err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize input: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return "lifeops:" + scope + ":" + hex.EncodeToString(sum[:8]), nil
}

func canonicalize(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case map[string]any:
		buf.WriteByte('{')
		for i, key := range slices.Sorted(maps.Keys(val)) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := canonicalize(buf, val[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := canonicalize(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case []string:
		return writeJSON(buf, slices.Sorted(slices.Values(val)))
	default:
		return writeJSON(buf, v)
	}
	return nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

var _ Keyer = (*DefaultKeyer)(nil)
