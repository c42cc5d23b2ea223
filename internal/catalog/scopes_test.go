package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopesCreate(t *testing.T) {
	scopes := NewScopes()

	scope, err := scopes.Create("billing", []string{"Region", "region", " Product "})
	require.NoError(t, err)
	assert.True(t, scope.Active)
	// Keys are lowercased, trimmed, deduplicated, sorted.
	assert.Equal(t, []string{"product", "region"}, scope.RequiredKeys)

	_, err = scopes.Create("billing", nil)
	assert.Error(t, err)

	_, err = scopes.Create("", nil)
	assert.Error(t, err)

	_, err = scopes.Create("bad", []string{""})
	assert.Error(t, err)
}

func TestScopesListAndDeactivate(t *testing.T) {
	scopes := NewScopes()
	_, err := scopes.Create("b-scope", nil)
	require.NoError(t, err)
	_, err = scopes.Create("a-scope", nil)
	require.NoError(t, err)

	list := scopes.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a-scope", list[0].ID)

	require.NoError(t, scopes.Deactivate("a-scope"))
	got, err := scopes.Get("a-scope")
	require.NoError(t, err)
	assert.False(t, got.Active)

	assert.Error(t, scopes.Deactivate("missing"))
}

func TestScopesReturnCopies(t *testing.T) {
	scopes := NewScopes()
	_, err := scopes.Create("billing", []string{"region"})
	require.NoError(t, err)

	got, err := scopes.Get("billing")
	require.NoError(t, err)
	got.RequiredKeys[0] = "mutated"
	got.Active = false

	again, err := scopes.Get("billing")
	require.NoError(t, err)
	assert.Equal(t, []string{"region"}, again.RequiredKeys)
	assert.True(t, again.Active)
}

func TestRecordOptionalKeys(t *testing.T) {
	scopes := NewScopes()
	_, err := scopes.Create("billing", []string{"region"})
	require.NoError(t, err)

	scopes.RecordOptionalKeys("billing", []string{"Source", "batch_id", "source"})
	scopes.RecordOptionalKeys("billing", []string{"region"}) // required, not duplicated

	scope, err := scopes.Get("billing")
	require.NoError(t, err)
	assert.Equal(t, []string{"batch_id", "source"}, scope.OptionalKeys)
}
