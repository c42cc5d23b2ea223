package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/rawneddy/fieldcatalog/internal/identity"
)

// Store is the persistence boundary for statistics records. The engine is
// written against per-record compare-and-swap semantics: PutRecord must
// reject a write whose Version does not match the stored record, so two
// concurrent batches can never silently overwrite each other's bounds.
type Store interface {
	// GetRecords looks up records by identity set. Missing ids are simply
	// absent from the result map.
	GetRecords(ctx context.Context, ids []string) (map[string]*FieldStats, error)

	// ScanScope returns every record of a scope whose required metadata
	// contains all the given pairs. Records are sorted by normalized path.
	ScanScope(ctx context.Context, scopeID string, meta identity.Metadata) ([]*FieldStats, error)

	// PutRecord inserts (Version == 0) or updates a record. Updates are
	// conditional on Version; ErrVersionConflict reports a lost race. The
	// stored Version is incremented on every successful write.
	PutRecord(ctx context.Context, rec *FieldStats) error

	// SetCanonicalCasing sets or clears (empty value) the preferred
	// spelling for one record. The value must be an observed variant.
	SetCanonicalCasing(ctx context.Context, fieldID, casing string) error
}

// MemoryStore is the reference Store backed by roaring-bitmap inverted
// indexes: one posting bitmap per scope and one per metadata key=value
// pair, intersected for filtered scans.
type MemoryStore struct {
	mu sync.RWMutex

	idToRow map[string]uint32
	rows    []*FieldStats
	nextRow uint32

	idxScope map[string]*roaring.Bitmap
	idxMeta  map[string]*roaring.Bitmap // key format: "meta-key=meta-value"
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		idToRow:  make(map[string]uint32),
		rows:     make([]*FieldStats, 0, 256),
		idxScope: make(map[string]*roaring.Bitmap),
		idxMeta:  make(map[string]*roaring.Bitmap),
	}
}

// GetRecords implements Store.
func (s *MemoryStore) GetRecords(ctx context.Context, ids []string) (map[string]*FieldStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*FieldStats, len(ids))
	for _, id := range ids {
		if row, ok := s.idToRow[id]; ok {
			out[id] = s.rows[row].clone()
		}
	}
	return out, nil
}

// ScanScope implements Store.
func (s *MemoryStore) ScanScope(ctx context.Context, scopeID string, meta identity.Metadata) ([]*FieldStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scopeBits, ok := s.idxScope[scopeID]
	if !ok {
		return nil, nil
	}

	result := scopeBits.Clone()
	for _, p := range meta.Normalize() {
		pairBits, ok := s.idxMeta[p.Key+"="+p.Value]
		if !ok {
			return nil, nil
		}
		result.And(pairBits)
		if result.IsEmpty() {
			return nil, nil
		}
	}

	out := make([]*FieldStats, 0, result.GetCardinality())
	it := result.Iterator()
	for it.HasNext() {
		out = append(out, s.rows[it.Next()].clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// PutRecord implements Store.
func (s *MemoryStore) PutRecord(ctx context.Context, rec *FieldStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, exists := s.idToRow[rec.FieldID]
	if exists {
		stored := s.rows[row]
		if stored.Version != rec.Version {
			return ErrVersionConflict
		}
		updated := rec.clone()
		updated.Version = stored.Version + 1
		s.rows[row] = updated
		return nil
	}

	if rec.Version != 0 {
		return ErrVersionConflict
	}

	row = s.nextRow
	s.nextRow++

	stored := rec.clone()
	stored.Version = 1
	s.idToRow[rec.FieldID] = row
	s.rows = append(s.rows, stored)

	s.addToBitmap(s.idxScope, stored.ScopeID, row)
	for _, p := range stored.RequiredMeta {
		s.addToBitmap(s.idxMeta, p.Key+"="+p.Value, row)
	}
	return nil
}

// SetCanonicalCasing implements Store.
func (s *MemoryStore) SetCanonicalCasing(ctx context.Context, fieldID, casing string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.idToRow[fieldID]
	if !ok {
		return ErrNotFound("field", fieldID)
	}

	rec := s.rows[row]
	if casing == "" {
		rec.CanonicalCasing = ""
		rec.Version++
		return nil
	}
	if _, observed := rec.CasingCounts[casing]; !observed {
		return &CodedError{
			Code:    ErrCodeUnknownCasing,
			Message: "casing was never observed for this field: " + casing,
		}
	}
	rec.CanonicalCasing = casing
	rec.Version++
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func (s *MemoryStore) addToBitmap(idx map[string]*roaring.Bitmap, key string, row uint32) {
	bm, ok := idx[key]
	if !ok {
		bm = roaring.New()
		idx[key] = bm
	}
	bm.Add(row)
}
