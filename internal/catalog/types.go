// Package catalog maintains per-field statistics records and the merge
// engine that builds them from observation batches.
package catalog

import (
	"sort"
	"time"

	"github.com/rawneddy/fieldcatalog/internal/identity"
)

// Scope is a named domain of observation. The required metadata key set is
// fixed at creation time and defines field identity; optional keys are an
// open set accumulated as batches arrive.
type Scope struct {
	ID           string    `json:"id"`
	RequiredKeys []string  `json:"required_keys"`
	OptionalKeys []string  `json:"optional_keys,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// FieldStats is the persisted aggregate for one field identity. It is
// mutated only by the merge engine and by canonical casing selection.
type FieldStats struct {
	FieldID      string              `json:"field_id"`
	ScopeID      string              `json:"scope_id"`
	RequiredMeta identity.Metadata   `json:"required_meta"`           // normalized, identity-bearing
	OptionalMeta map[string][]string `json:"optional_meta,omitempty"` // distinct values seen per key

	// Path is the normalized (lowercased) field path. The literal spellings
	// actually observed live in CasingCounts.
	Path            string           `json:"path"`
	CasingCounts    map[string]int64 `json:"casing_counts"`
	CanonicalCasing string           `json:"canonical_casing,omitempty"` // must be a key of CasingCounts

	MinOccurs   int  `json:"min_occurs"`
	MaxOccurs   int  `json:"max_occurs"`
	AllowsNull  bool `json:"allows_null"`
	AllowsEmpty bool `json:"allows_empty"`

	// Version is the optimistic concurrency token owned by the store.
	Version uint64 `json:"version"`
}

// DominantCasing returns the most frequently submitted literal spelling.
// Ties break lexicographically so exports stay deterministic.
func (r *FieldStats) DominantCasing() string {
	var best string
	var bestCount int64 = -1
	keys := make([]string, 0, len(r.CasingCounts))
	for k := range r.CasingCounts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if r.CasingCounts[k] > bestCount {
			best = k
			bestCount = r.CasingCounts[k]
		}
	}
	return best
}

// DisplayPath returns the canonical casing when one is selected, falling
// back to the dominant observed casing.
func (r *FieldStats) DisplayPath() string {
	if r.CanonicalCasing != "" {
		return r.CanonicalCasing
	}
	return r.DominantCasing()
}

// clone returns a deep copy so store snapshots stay immutable.
func (r *FieldStats) clone() *FieldStats {
	out := *r
	out.RequiredMeta = append(identity.Metadata(nil), r.RequiredMeta...)
	out.CasingCounts = make(map[string]int64, len(r.CasingCounts))
	for k, v := range r.CasingCounts {
		out.CasingCounts[k] = v
	}
	if r.OptionalMeta != nil {
		out.OptionalMeta = make(map[string][]string, len(r.OptionalMeta))
		for k, v := range r.OptionalMeta {
			out.OptionalMeta[k] = append([]string(nil), v...)
		}
	}
	return &out
}
