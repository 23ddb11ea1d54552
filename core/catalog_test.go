package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, 5, c.Len())
	assert.Equal(t, "1.0.0", c.Metadata().Version)

	var kinds []PIIType
	for _, p := range c.Patterns() {
		kinds = append(kinds, p.Kind)
	}
	assert.Equal(t, AllPIITypes, kinds)
}

func TestNewCatalogErrors(t *testing.T) {
	_, err := NewCatalog()
	assert.ErrorIs(t, err, ErrPatternEngine)

	_, err = NewCatalog(Pattern{Kind: "passport", Expr: `\d+`})
	assert.ErrorIs(t, err, ErrPatternEngine)

	_, err = NewCatalog(Pattern{Kind: PIIEmail})
	assert.ErrorIs(t, err, ErrPatternEngine)

	_, err = NewCatalog(Pattern{Kind: PIIEmail, Expr: `(unclosed`})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPatternEngine)
	assert.Equal(t, ErrorCategoryPatternEngine, CategoryOf(err))
}

func TestCatalogSaveAndLoad(t *testing.T) {
	built, err := NewCatalogBuilder().
		WithMetadata("2.1.0", "Email and phone only").
		AddDefault(PIIEmail, PIIPhone).
		AddPattern(PIIBirthDate, `\b\d{4}/\d{2}/\d{2}\b`).
		WithDescription("Slash separated dates").
		Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, SaveCatalog(built, path))

	loaded, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, built.Patterns(), loaded.Patterns())
	assert.Equal(t, "2.1.0", loaded.Metadata().Version)
	assert.Equal(t, "Email and phone only", loaded.Metadata().Description)
	assert.Len(t, loaded.Metadata().Hash, 64)

	d := NewDetector(loaded)
	anonymized, _, _ := d.Redact("born 1990/01/01")
	assert.Equal(t, "born [BIRTHDATE_001]", anonymized)
}

func TestParseCatalog(t *testing.T) {
	data := []byte(`metadata:
  version: "1.2.0"
  description: custom
patterns:
  - kind: email
    pattern: '[a-z]+@corp\.example'
  - kind: cardNumber
    pattern: '\b\d{16}\b'
`)

	c, err := ParseCatalog(data)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "1.2.0", c.Metadata().Version)

	anonymized, _, _ := NewDetector(c).Redact("bob@corp.example paid with 4111111111111111")
	assert.Equal(t, "[EMAIL_001] paid with [CARDNUMBER_001]", anonymized)
}

func TestParseCatalogRejectsBadInput(t *testing.T) {
	_, err := ParseCatalog([]byte("patterns: [unclosed"))
	assert.ErrorIs(t, err, ErrPatternEngine)

	_, err = ParseCatalog([]byte("patterns:\n  - kind: email\n    pattern: '(['\n"))
	assert.ErrorIs(t, err, ErrPatternEngine)
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
