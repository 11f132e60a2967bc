package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestDigestStable(t *testing.T) {
	deps := []Dependency{
		{Package: "requests"},
		{Package: "flask", Comparator: ComparatorGe, Version: "2.0"},
	}
	d1, err := ManifestDigest(deps)
	require.NoError(t, err)
	d2, err := ManifestDigest(deps)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)
}

func TestManifestDigestOrderSensitive(t *testing.T) {
	a := Dependency{Package: "requests"}
	b := Dependency{Package: "flask"}

	d1, err := ManifestDigest([]Dependency{a, b})
	require.NoError(t, err)
	d2, err := ManifestDigest([]Dependency{b, a})
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
}

func TestManifestDigestEmpty(t *testing.T) {
	d, err := ManifestDigest(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, d)
}
