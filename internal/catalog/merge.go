package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/rawneddy/fieldcatalog/internal/identity"
	"github.com/rawneddy/fieldcatalog/internal/schema"
	"github.com/rawneddy/fieldcatalog/pkg/types"
)

// casRetries bounds how often a conditional write is retried after losing a
// race before the batch gives up on that record.
const casRetries = 3

// MergeEngine folds observation batches into statistics records. Each batch
// covers exactly one (scope, metadata) combination; after merging, any field
// previously known for that combination but missing from the batch is forced
// optional (absence inference).
type MergeEngine struct {
	store    Store
	scopes   *Scopes
	maxBatch int
}

// NewMergeEngine creates a merge engine.
func NewMergeEngine(store Store, scopes *Scopes, maxBatch int) *MergeEngine {
	return &MergeEngine{store: store, scopes: scopes, maxBatch: maxBatch}
}

// recDelta is the batch-local accumulation for one field identity. Deltas
// are computed once and re-applied verbatim when a conditional write loses a
// race, so bound updates stay monotone across retries.
type recDelta struct {
	literal   string // first pre-normalization path spelling in the batch
	minCount  int
	maxCount  int
	hasNull   bool
	hasEmpty  bool
	casing    map[string]int64
}

// MergeBatch merges every observation of a batch. A malformed observation is
// skipped and reported in the result; it never aborts the rest of the batch.
func (e *MergeEngine) MergeBatch(ctx context.Context, batch types.ObservationBatch) (*types.MergeResult, error) {
	scope, err := e.scopes.Get(batch.ScopeID)
	if err != nil {
		return nil, err
	}
	if !scope.Active {
		return nil, &CodedError{
			Code:    ErrCodeScopeInactive,
			Message: "scope no longer accepts observations: " + scope.ID,
		}
	}
	if e.maxBatch > 0 && len(batch.Observations) > e.maxBatch {
		return nil, ErrInvalidInput(fmt.Sprintf("batch exceeds %d observations", e.maxBatch))
	}

	requiredMeta, optionalMeta, err := splitMetadata(scope, batch.Metadata)
	if err != nil {
		return nil, err
	}
	e.scopes.RecordOptionalKeys(scope.ID, keysOf(optionalMeta))

	result := &types.MergeResult{}

	// Accumulate deltas per identity; a path seen twice in one batch merges
	// into the delta the first occurrence started.
	deltas := make(map[string]*recDelta)
	order := make([]string, 0, len(batch.Observations))
	for _, obs := range batch.Observations {
		if issues := schema.ValidatePath(obs.FieldPath); len(issues) > 0 {
			result.Skipped++
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: %s: %s", obs.FieldPath, issues[0].Code, issues[0].Message))
			continue
		}
		if obs.Count < 0 {
			result.Skipped++
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: %s: negative occurrence count", obs.FieldPath, schema.CodeInvalidBounds))
			continue
		}

		id := identity.FieldID(scope.ID, requiredMeta, obs.FieldPath)
		d, ok := deltas[id]
		if !ok {
			d = &recDelta{
				literal:  obs.FieldPath,
				minCount: obs.Count,
				maxCount: obs.Count,
				casing:   make(map[string]int64),
			}
			deltas[id] = d
			order = append(order, id)
		} else {
			if obs.Count < d.minCount {
				d.minCount = obs.Count
			}
			if obs.Count > d.maxCount {
				d.maxCount = obs.Count
			}
		}
		d.hasNull = d.hasNull || obs.HasNull
		d.hasEmpty = d.hasEmpty || obs.HasEmpty
		// One increment per submitted observation record: dominant casing
		// reflects how often a spelling is reported, not within-document
		// fan-out.
		d.casing[obs.FieldPath]++
	}

	existing, err := e.store.GetRecords(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("fetching records: %w", err)
	}

	for _, id := range order {
		created, err := e.writeDelta(ctx, id, scope.ID, requiredMeta, optionalMeta, deltas[id], existing[id])
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", deltas[id].literal, err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	absent, err := e.inferAbsent(ctx, scope.ID, requiredMeta, deltas)
	if err != nil {
		return nil, err
	}
	result.Absent = absent

	slog.Debug("merged observation batch",
		slog.String("scope", scope.ID),
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped),
		slog.Int("absent", result.Absent),
	)
	return result, nil
}

// writeDelta applies one delta with a bounded compare-and-swap retry loop.
func (e *MergeEngine) writeDelta(ctx context.Context, id, scopeID string, requiredMeta identity.Metadata, optionalMeta map[string]string, d *recDelta, rec *FieldStats) (created bool, err error) {
	for attempt := 0; attempt <= casRetries; attempt++ {
		target := rec
		if target == nil {
			created = true
			target = &FieldStats{
				FieldID:      id,
				ScopeID:      scopeID,
				RequiredMeta: requiredMeta,
				Path:         identity.NormalizePath(d.literal),
				CasingCounts: make(map[string]int64),
				MinOccurs:    d.minCount,
				MaxOccurs:    d.maxCount,
			}
		} else {
			created = false
			if d.minCount < target.MinOccurs {
				target.MinOccurs = d.minCount
			}
			if d.maxCount > target.MaxOccurs {
				target.MaxOccurs = d.maxCount
			}
		}
		target.AllowsNull = target.AllowsNull || d.hasNull
		target.AllowsEmpty = target.AllowsEmpty || d.hasEmpty
		for literal, count := range d.casing {
			target.CasingCounts[literal] += count
		}
		mergeOptionalMeta(target, optionalMeta)

		err = e.store.PutRecord(ctx, target)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return false, err
		}

		// Lost the race: refetch and re-apply the delta.
		refetched, getErr := e.store.GetRecords(ctx, []string{id})
		if getErr != nil {
			return false, getErr
		}
		rec = refetched[id]
	}
	return false, fmt.Errorf("record contended beyond %d retries: %w", casRetries, err)
}

// inferAbsent forces MinOccurs to zero on every record of the exact
// (scope, metadata) combination that the current batch did not mention.
// Records under other metadata combinations are untouched.
func (e *MergeEngine) inferAbsent(ctx context.Context, scopeID string, requiredMeta identity.Metadata, deltas map[string]*recDelta) (int, error) {
	known, err := e.store.ScanScope(ctx, scopeID, requiredMeta)
	if err != nil {
		return 0, fmt.Errorf("scanning scope: %w", err)
	}

	absent := 0
	for _, rec := range known {
		if _, inBatch := deltas[rec.FieldID]; inBatch || rec.MinOccurs == 0 {
			continue
		}
		for attempt := 0; ; attempt++ {
			rec.MinOccurs = 0
			err := e.store.PutRecord(ctx, rec)
			if err == nil {
				absent++
				break
			}
			if !errors.Is(err, ErrVersionConflict) || attempt >= casRetries {
				slog.Warn("absence inference write failed",
					slog.String("field", rec.FieldID),
					slog.Any("error", err),
				)
				break
			}
			refetched, getErr := e.store.GetRecords(ctx, []string{rec.FieldID})
			if getErr != nil || refetched[rec.FieldID] == nil {
				break
			}
			rec = refetched[rec.FieldID]
		}
	}
	return absent, nil
}

// SelectCasing sets or clears the canonical casing of one record. The value
// must be a spelling actually observed for that field.
func (e *MergeEngine) SelectCasing(ctx context.Context, sel types.CasingSelection) error {
	return e.store.SetCanonicalCasing(ctx, sel.FieldID, sel.CanonicalCasing)
}

// splitMetadata normalizes a batch metadata map and partitions it into the
// identity-bearing required pairs and the stored-only optional pairs. Every
// required key of the scope must be present.
func splitMetadata(scope *Scope, meta map[string]string) (identity.Metadata, map[string]string, error) {
	normalized := identity.FromMap(meta).Normalize()
	byKey := normalized.Map()

	required := make(identity.Metadata, 0, len(scope.RequiredKeys))
	for _, key := range scope.RequiredKeys {
		v, ok := byKey[key]
		if !ok {
			return nil, nil, ErrInvalidInput("missing required metadata key: " + key)
		}
		required = append(required, identity.Pair{Key: key, Value: v})
		delete(byKey, key)
	}
	return required, byKey, nil
}

func mergeOptionalMeta(rec *FieldStats, optional map[string]string) {
	if len(optional) == 0 {
		return
	}
	if rec.OptionalMeta == nil {
		rec.OptionalMeta = make(map[string][]string, len(optional))
	}
	for k, v := range optional {
		values := rec.OptionalMeta[k]
		found := false
		for _, existing := range values {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			values = append(values, v)
			sort.Strings(values)
			rec.OptionalMeta[k] = values
		}
	}
}

func keysOf(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
