package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldIDDeterminism(t *testing.T) {
	metaA := Metadata{
		{Key: "Region", Value: "EMEA"},
		{Key: "product", Value: "Loans"},
	}
	// Same pairs, different order and casing.
	metaB := Metadata{
		{Key: "PRODUCT", Value: "loans"},
		{Key: "region", Value: "emea"},
	}

	idA := FieldID("billing", metaA, "/Ceremony/Customer/Name")
	idB := FieldID("BILLING", metaB, "/ceremony/customer/name")

	assert.Equal(t, idA, idB)
	assert.Len(t, idA, 32)
}

func TestFieldIDDistinguishesInputs(t *testing.T) {
	meta := Metadata{{Key: "region", Value: "emea"}}

	base := FieldID("billing", meta, "/ceremony/amount")

	assert.NotEqual(t, base, FieldID("claims", meta, "/ceremony/amount"))
	assert.NotEqual(t, base, FieldID("billing", meta, "/ceremony/total"))
	assert.NotEqual(t, base, FieldID("billing", Metadata{{Key: "region", Value: "apac"}}, "/ceremony/amount"))
}

func TestFromMapIsSorted(t *testing.T) {
	md := FromMap(map[string]string{"b": "2", "a": "1", "c": "3"})

	assert.Equal(t, Metadata{
		{Key: "a", Value: "1"},
		{Key: "b", Value: "2"},
		{Key: "c", Value: "3"},
	}, md)
}

func TestNormalize(t *testing.T) {
	md := Metadata{
		{Key: "Zeta", Value: "ONE"},
		{Key: "Alpha", Value: "Two"},
	}

	got := md.Normalize()

	assert.Equal(t, Metadata{
		{Key: "alpha", Value: "two"},
		{Key: "zeta", Value: "one"},
	}, got)
	// Input untouched.
	assert.Equal(t, "Zeta", md[0].Key)
}

func TestCanonical(t *testing.T) {
	md := Metadata{
		{Key: "a", Value: "1"},
		{Key: "b", Value: "2"},
	}
	assert.Equal(t, "a=1\x00b=2", md.Canonical())
	assert.Equal(t, "", Metadata{}.Canonical())
}
