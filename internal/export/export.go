// Package export orchestrates the schema export pipeline: snapshot fetch,
// validation, tree building, cardinality policy application, generation,
// and the generator self-check. The computation is pure over an immutable
// record snapshot; results are cached and concurrent identical requests are
// collapsed into one computation.
package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/rawneddy/fieldcatalog/internal/catalog"
	"github.com/rawneddy/fieldcatalog/internal/identity"
	"github.com/rawneddy/fieldcatalog/internal/schema"
	"github.com/rawneddy/fieldcatalog/pkg/types"
)

// Exporter generates schema documents from record snapshots.
type Exporter struct {
	store  catalog.Store
	scopes *catalog.Scopes

	cache *lru.Cache[string, *types.ExportResult]
	group singleflight.Group

	pageLimit          int
	allOptionalWarnMin int
}

// New creates an exporter. pageLimit caps the snapshot size per export;
// cacheItems sizes the result cache.
func New(store catalog.Store, scopes *catalog.Scopes, pageLimit, cacheItems, allOptionalWarnMin int) (*Exporter, error) {
	cache, err := lru.New[string, *types.ExportResult](cacheItems)
	if err != nil {
		return nil, fmt.Errorf("creating export cache: %w", err)
	}
	return &Exporter{
		store:              store,
		scopes:             scopes,
		cache:              cache,
		pageLimit:          pageLimit,
		allOptionalWarnMin: allOptionalWarnMin,
	}, nil
}

// Export runs the full pipeline for one request. Any blocking validation
// error aborts the export; the result then carries the complete accumulated
// issue list so a caller can fix everything in one pass.
func (e *Exporter) Export(ctx context.Context, req types.ExportRequest) (*types.ExportResult, error) {
	if !req.Format.Valid() {
		return nil, catalog.ErrInvalidInput(fmt.Sprintf("unknown schema format: %s", req.Format))
	}
	policy := req.Policy
	if policy == "" {
		policy = types.PolicyPermissive
	}
	if !policy.Valid() {
		return nil, catalog.ErrInvalidInput(fmt.Sprintf("unknown cardinality policy: %s", req.Policy))
	}
	if _, err := e.scopes.Get(req.ScopeID); err != nil {
		return nil, err
	}

	meta := identity.FromMap(req.Metadata).Normalize()
	flightKey := strings.Join([]string{req.ScopeID, meta.Canonical(), string(req.Format), string(policy)}, "\x1f")

	v, err, _ := e.group.Do(flightKey, func() (any, error) {
		return e.export(ctx, req.ScopeID, meta, req.Format, policy, flightKey)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.ExportResult), nil
}

func (e *Exporter) export(ctx context.Context, scopeID string, meta identity.Metadata, format types.SchemaFormat, policy types.CardinalityPolicy, flightKey string) (*types.ExportResult, error) {
	records, err := e.store.ScanScope(ctx, scopeID, meta)
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot: %w", err)
	}
	if len(records) == 0 {
		return nil, catalog.ErrNotFound("records for scope", scopeID)
	}
	if e.pageLimit > 0 && len(records) > e.pageLimit {
		records = records[:e.pageLimit]
	}

	cacheKey := flightKey + "\x1f" + snapshotFingerprint(records)
	if cached, ok := e.cache.Get(cacheKey); ok {
		hit := *cached
		hit.FromCache = true
		return &hit, nil
	}

	entries := make([]schema.FieldEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, schema.FieldEntry{
			Path:        rec.Path,
			Display:     rec.DisplayPath(),
			MinOccurs:   rec.MinOccurs,
			MaxOccurs:   rec.MaxOccurs,
			AllowsNull:  rec.AllowsNull,
			AllowsEmpty: rec.AllowsEmpty,
		})
	}

	result := &types.ExportResult{Format: format, RecordCount: len(records)}

	issues := schema.ValidateInput(entries)
	errs, warnings := schema.Split(issues)
	result.Warnings = warnings
	if len(errs) > 0 {
		result.Errors = errs
		return result, nil
	}

	tree := schema.BuildTree(entries)
	errs, warnings = schema.Split(schema.ValidateTree(tree, e.allOptionalWarnMin))
	result.Warnings = append(result.Warnings, warnings...)
	if len(errs) > 0 {
		result.Errors = errs
		return result, nil
	}

	schema.ApplyPolicy(tree, policy)
	if errs = boundsAfterPolicy(tree); len(errs) > 0 {
		result.Errors = errs
		return result, nil
	}

	var output string
	switch format {
	case types.FormatXSD:
		output = schema.GenerateXSD(tree, scopeID, meta)
	case types.FormatJSONSchema:
		output, err = schema.GenerateJSONSchema(tree, scopeID, meta)
		if err != nil {
			return nil, fmt.Errorf("generating JSON schema: %w", err)
		}
	}

	// Generator self-check. A failure here is a defect in the generator,
	// never bad input, and must not be returned silently as output.
	var selfCheck []types.Issue
	switch format {
	case types.FormatXSD:
		selfCheck = schema.ValidateXSDOutput(output)
	case types.FormatJSONSchema:
		selfCheck = schema.ValidateJSONSchemaOutput(output)
	}
	if len(selfCheck) > 0 {
		slog.Error("generated schema failed self-check",
			slog.String("scope", scopeID),
			slog.String("format", string(format)),
			slog.Int("issues", len(selfCheck)),
		)
		result.Errors = selfCheck
		return result, nil
	}

	result.Output = output
	e.cache.Add(cacheKey, result)
	return result, nil
}

// snapshotFingerprint hashes record identities and versions so cached
// results are reused only while the snapshot is unchanged.
func snapshotFingerprint(records []*catalog.FieldStats) string {
	h := sha256.New()
	for _, rec := range records {
		fmt.Fprintf(h, "%s:%d\x00", rec.FieldID, rec.Version)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// boundsAfterPolicy re-checks the cardinality invariant once policy bounds
// are assigned.
func boundsAfterPolicy(root *schema.Node) []types.Issue {
	var errs []types.Issue
	root.Walk(func(n *schema.Node) {
		if n.Path == "" {
			return
		}
		errs = append(errs, schema.ValidateBounds(n.MinOccurs, n.MaxOccurs, n.Path)...)
	})
	return errs
}
