// Package types provides shared types for the field catalog.
// These types cross package boundaries and are designed for external consumption.
package types

// Observation is one field sighting reported by the legacy pipeline while it
// processes a single document. Observations are ephemeral: they are consumed
// by the merge engine and never persisted directly.
type Observation struct {
	FieldPath string `json:"field_path"`
	Count     int    `json:"count"`
	HasNull   bool   `json:"has_null"`
	HasEmpty  bool   `json:"has_empty"`
}

// ObservationBatch groups observations that share one scope and one exact
// metadata map. Batches are best-effort telemetry: partial or duplicate
// delivery must not corrupt occurrence bounds.
type ObservationBatch struct {
	ScopeID      string            `json:"scope_id"`
	Metadata     map[string]string `json:"metadata"`
	Observations []Observation     `json:"observations"`
}

// MergeResult summarizes one batch merge.
type MergeResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`          // malformed observations dropped
	Absent  int      `json:"absent"`           // records forced optional by absence inference
	Errors  []string `json:"errors,omitempty"` // per-observation skip reasons
}

// CasingSelection sets or clears the preferred literal spelling of a field.
// An empty CanonicalCasing clears the selection.
type CasingSelection struct {
	FieldID         string `json:"field_id"`
	CanonicalCasing string `json:"canonical_casing,omitempty"`
}
