package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func TestLoadSeedUnits_Defaults(t *testing.T) {
	units, err := LoadSeedUnits("")
	require.NoError(t, err)
	require.Len(t, units, 2)

	for _, u := range units {
		assert.Equal(t, SeedSource, u.Metadata.Source)
		assert.Equal(t, domain.DocTypeSystem, u.Metadata.DocType)
		assert.Nil(t, u.Metadata.Locator)
		assert.Empty(t, u.Metadata.DocumentID)
	}
	assert.Equal(t, "description", units[0].Metadata.Extra["type"])
	assert.Contains(t, units[1].Content, "Retrieval-Augmented Generation")
}

func TestLoadSeedUnits_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `
units:
  - content: "Our office is in Belgrade."
    type: fact
  - content: "   "
  - content: No category here.
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	units, err := LoadSeedUnits(path)
	require.NoError(t, err)
	require.Len(t, units, 2, "blank entries are skipped")
	assert.Equal(t, "Our office is in Belgrade.", units[0].Content)
	assert.Equal(t, map[string]string{"type": "fact"}, units[0].Metadata.Extra)
	assert.Nil(t, units[1].Metadata.Extra)
}

func TestLoadSeedUnits_Errors(t *testing.T) {
	_, err := LoadSeedUnits(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("units: [unclosed"), 0o644))
	_, err = LoadSeedUnits(path)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
