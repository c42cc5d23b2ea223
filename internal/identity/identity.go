// Package identity computes stable field identities from scope, required
// metadata, and field path. The identity is the primary key of a statistics
// record and must survive process restarts, so every input is normalized
// before hashing: keys and values are lowercased and metadata pairs are
// sorted by key.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Pair is one metadata key/value association.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Metadata is an explicit ordered key/value association. Construct it with
// FromMap or a literal; call Normalize before deriving an identity.
type Metadata []Pair

// FromMap builds Metadata from a plain map. Ordering is taken from the
// sorted keys so the result is deterministic.
func FromMap(m map[string]string) Metadata {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	md := make(Metadata, 0, len(m))
	for _, k := range keys {
		md = append(md, Pair{Key: k, Value: m[k]})
	}
	return md
}

// Normalize returns a copy with lowercased keys and values, sorted by key.
// Identities must only ever be derived from normalized metadata.
func (md Metadata) Normalize() Metadata {
	out := make(Metadata, len(md))
	for i, p := range md {
		out[i] = Pair{
			Key:   strings.ToLower(p.Key),
			Value: strings.ToLower(p.Value),
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Map converts back to a plain map.
func (md Metadata) Map() map[string]string {
	m := make(map[string]string, len(md))
	for _, p := range md {
		m[p.Key] = p.Value
	}
	return m
}

// Canonical renders normalized metadata as a single NUL-joined string for
// hashing and for store index keys.
func (md Metadata) Canonical() string {
	parts := make([]string, 0, len(md))
	for _, p := range md {
		parts = append(parts, p.Key+"="+p.Value)
	}
	return strings.Join(parts, "\x00")
}

// NormalizePath lowercases a field path for identity computation. The
// literal, pre-normalization spelling is tracked separately in the record's
// casing counts.
func NormalizePath(path string) string {
	return strings.ToLower(path)
}

// FieldID derives the deterministic identity for one (scope, required
// metadata, field path) triple. Inputs may arrive in any casing and any map
// order; the result is always the same 32-character hex string.
func FieldID(scopeID string, requiredMeta Metadata, fieldPath string) string {
	data := strings.ToLower(scopeID) +
		"\x00\x00" + requiredMeta.Normalize().Canonical() +
		"\x00\x00" + NormalizePath(fieldPath)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:32]
}
