package core

// CatalogBuilder provides a fluent interface for assembling a catalog,
// mostly used to substitute a reduced catalog in tests
type CatalogBuilder struct {
	metadata CatalogMetadata
	patterns []Pattern
}

// NewCatalogBuilder creates an empty catalog builder
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{}
}

// WithMetadata sets the catalog metadata
func (b *CatalogBuilder) WithMetadata(version, description string) *CatalogBuilder {
	b.metadata.Version = version
	b.metadata.Description = description
	return b
}

// AddPattern appends a pattern for the given kind
func (b *CatalogBuilder) AddPattern(kind PIIType, expr string) *CatalogBuilder {
	b.patterns = append(b.patterns, Pattern{Kind: kind, Expr: expr})
	return b
}

// AddDefault appends the built-in pattern for each given kind
func (b *CatalogBuilder) AddDefault(kinds ...PIIType) *CatalogBuilder {
	defaults := DefaultPatterns()
	for _, kind := range kinds {
		for _, p := range defaults {
			if p.Kind == kind {
				b.patterns = append(b.patterns, p)
			}
		}
	}
	return b
}

// WithDescription sets the description of the last added pattern
func (b *CatalogBuilder) WithDescription(description string) *CatalogBuilder {
	if len(b.patterns) > 0 {
		b.patterns[len(b.patterns)-1].Description = description
	}
	return b
}

// Build compiles the catalog
func (b *CatalogBuilder) Build() (*Catalog, error) {
	c, err := NewCatalog(b.patterns...)
	if err != nil {
		return nil, err
	}
	c.metadata = b.metadata
	return c, nil
}
