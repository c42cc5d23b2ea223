package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawneddy/fieldcatalog/internal/config"
	"github.com/rawneddy/fieldcatalog/pkg/types"
)

func TestBuildParserRegistersCommands(t *testing.T) {
	parser, globals, cmds := buildParser("test")

	require.NotNil(t, globals)
	require.NotNil(t, cmds.Export)
	require.NotNil(t, cmds.Inspect)
	require.NotNil(t, cmds.Validate)

	names := make([]string, 0, 3)
	for _, cmd := range parser.Commands() {
		names = append(names, cmd.Name)
	}
	assert.ElementsMatch(t, []string{"export", "inspect", "validate"}, names)
}

func TestRunWithArgsVersion(t *testing.T) {
	assert.NoError(t, RunWithArgs("1.2.3", []string{"--version"}))
}

func TestReadBatches(t *testing.T) {
	input := strings.Join([]string{
		`{"scope_id":"billing","metadata":{"region":"emea"},"observations":[{"field_path":"/doc/name","count":1}]}`,
		``,
		`{"scope_id":"billing","observations":[]}`,
	}, "\n")

	batches, err := readBatches(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "billing", batches[0].ScopeID)
	assert.Equal(t, "/doc/name", batches[0].Observations[0].FieldPath)
}

func TestReadBatchesMalformedLine(t *testing.T) {
	_, err := readBatches(strings.NewReader("{\"scope_id\":\"a\"}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseMetaPairs(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{"empty", nil, map[string]string{}, false},
		{"single", []string{"region=emea"}, map[string]string{"region": "emea"}, false},
		{"value with equals", []string{"q=a=b"}, map[string]string{"q": "a=b"}, false},
		{"missing separator", []string{"region"}, nil, true},
		{"empty key", []string{"=v"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMetaPairs(tt.pairs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIngestAll(t *testing.T) {
	cfg := &config.Config{MaxBatchSize: 100}
	batches := []types.ObservationBatch{
		{
			ScopeID:      "billing",
			Metadata:     map[string]string{"region": "emea"},
			Observations: []types.Observation{{FieldPath: "/doc/name", Count: 1}},
		},
	}

	store, scopes, err := ingestAll(context.Background(), "billing", []string{"region"}, batches, cfg, false)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	scope, err := scopes.Get("billing")
	require.NoError(t, err)
	assert.Equal(t, []string{"region"}, scope.RequiredKeys)
}

func TestIngestAllRejectsForeignScope(t *testing.T) {
	cfg := &config.Config{MaxBatchSize: 100}
	batches := []types.ObservationBatch{{ScopeID: "other"}}

	_, _, err := ingestAll(context.Background(), "billing", nil, batches, cfg, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `targets scope "other"`)
}

func writeTempBatches(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batches.ndjson")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestValidateCommand(t *testing.T) {
	globals := &GlobalFlags{}

	t.Run("clean input", func(t *testing.T) {
		path := writeTempBatches(t,
			`{"scope_id":"billing","observations":[{"field_path":"/doc/name","count":1}]}`,
		)
		cmd := &ValidateCommand{Input: path, globals: globals}
		assert.NoError(t, cmd.Execute(nil))
	})

	t.Run("invalid path", func(t *testing.T) {
		path := writeTempBatches(t,
			`{"scope_id":"billing","observations":[{"field_path":"doc/name","count":1}]}`,
		)
		cmd := &ValidateCommand{Input: path, globals: globals}
		err := cmd.Execute(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 issue")
	})

	t.Run("negative count", func(t *testing.T) {
		path := writeTempBatches(t,
			`{"scope_id":"billing","observations":[{"field_path":"/doc/name","count":-1}]}`,
		)
		cmd := &ValidateCommand{Input: path, globals: globals}
		require.Error(t, cmd.Execute(nil))
	})
}

func TestExportCommandEndToEnd(t *testing.T) {
	input := writeTempBatches(t,
		`{"scope_id":"billing","metadata":{"region":"emea"},"observations":[{"field_path":"/Ceremony/Customer/Name","count":1},{"field_path":"/Ceremony/Amount","count":3,"has_null":true}]}`,
	)
	output := filepath.Join(t.TempDir(), "schema.xsd")

	cmd := &ExportCommand{
		Input:        input,
		Scope:        "billing",
		RequiredKeys: []string{"region"},
		Meta:         []string{"region=emea"},
		Format:       "xsd",
		Policy:       "permissive",
		Output:       output,
		globals:      &GlobalFlags{},
	}
	require.NoError(t, cmd.Execute(nil))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "xs:schema")
	assert.Contains(t, string(data), "Ceremony")
}

func TestExportCommandCanonicalCasing(t *testing.T) {
	input := writeTempBatches(t,
		`{"scope_id":"billing","observations":[{"field_path":"/doc/AMOUNT","count":1},{"field_path":"/Doc/Amount","count":1}]}`,
		`{"scope_id":"billing","observations":[{"field_path":"/Doc/Amount","count":1}]}`,
	)
	output := filepath.Join(t.TempDir(), "schema.xsd")

	cmd := &ExportCommand{
		Input:     input,
		Scope:     "billing",
		Format:    "xsd",
		Policy:    "permissive",
		Canonical: []string{"/doc/AMOUNT"},
		Output:    output,
		globals:   &GlobalFlags{},
	}
	require.NoError(t, cmd.Execute(nil))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	// The selected spelling overrides the dominant one.
	assert.Contains(t, string(data), "AMOUNT")

	t.Run("unobserved spelling rejected", func(t *testing.T) {
		cmd.Canonical = []string{"/doc/AmOuNt"}
		err := cmd.Execute(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UNKNOWN_CASING")
	})
}
