package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Pattern describes one detection rule of the catalog
type Pattern struct {
	// Kind of personal data this pattern detects
	Kind PIIType `yaml:"kind"`

	// Expr is the RE2 expression matched against the full input text
	Expr string `yaml:"pattern"`

	// Description of what the pattern is meant to catch
	Description string `yaml:"description,omitempty"`
}

// CatalogMetadata contains information about a catalog file
type CatalogMetadata struct {
	// Version of the catalog
	Version string `yaml:"version"`

	// Description of the catalog
	Description string `yaml:"description,omitempty"`

	// Hash of the catalog file content for integrity verification
	Hash string `yaml:"hash,omitempty"`
}

// catalogFile is the on-disk YAML shape of a catalog
type catalogFile struct {
	Metadata CatalogMetadata `yaml:"metadata"`
	Patterns []Pattern       `yaml:"patterns"`
}

type compiledPattern struct {
	Pattern
	re *regexp.Regexp
}

// Catalog is an immutable, compiled, ordered set of detection patterns.
// Pattern order fixes ordinal assignment but never affects correctness.
type Catalog struct {
	metadata CatalogMetadata
	patterns []compiledPattern
}

// Default pattern expressions
const (
	emailExpr       = `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`
	phoneExpr       = `(?:(?:\+82[-\s]?|0)?(?:10|11|16|17|18|19)[-\s]?\d{3,4}[-\s]?\d{4}|\d{4}[\s-]\d{4})`
	nationalIDExpr  = `\b\d{6}[-\s]?[1-4]\d{6}\b`
	cardNumberExpr  = `\b(?:\d{4}[-\s]?){3}\d{4}\b`
	birthDateExpr   = `\b(?:19|20)\d{2}(?:0[1-9]|1[0-2])(?:0[1-9]|[12]\d|3[01])\b`
	defaultCatalogV = "1.0.0"
)

// DefaultPatterns returns the built-in pattern set in default order
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Kind: PIIEmail, Expr: emailExpr, Description: "Email address with a 2+ letter TLD"},
		{Kind: PIIPhone, Expr: phoneExpr, Description: "Mobile number with optional +82 prefix, or generic NNNN-NNNN"},
		{Kind: PIINationalID, Expr: nationalIDExpr, Description: "Resident registration number (YYMMDD-GNNNNNN)"},
		{Kind: PIICardNumber, Expr: cardNumberExpr, Description: "Payment card number, four groups of four digits"},
		{Kind: PIIBirthDate, Expr: birthDateExpr, Description: "Birth date as YYYYMMDD in the 1900s or 2000s"},
	}
}

// DefaultCatalog compiles the built-in patterns. The expressions are static,
// so a failure here is a programming error and panics.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultPatterns()...)
	if err != nil {
		panic(err)
	}
	c.metadata = CatalogMetadata{Version: defaultCatalogV, Description: "Built-in PII catalog"}
	return c
}

// NewCatalog validates and compiles the given patterns once
func NewCatalog(patterns ...Pattern) (*Catalog, error) {
	if len(patterns) == 0 {
		return nil, PatternEngineError("compile catalog", fmt.Errorf("catalog has no patterns"))
	}

	compiled := make([]compiledPattern, 0, len(patterns))
	for i, p := range patterns {
		if !p.Kind.Valid() {
			return nil, PatternEngineError("compile catalog", fmt.Errorf("pattern %d has unknown kind %q", i, p.Kind))
		}
		if p.Expr == "" {
			return nil, PatternEngineError("compile catalog", fmt.Errorf("pattern %d (%s) has no expression", i, p.Kind))
		}

		re, err := regexp.Compile(p.Expr)
		if err != nil {
			return nil, PatternEngineError("compile catalog", fmt.Errorf("pattern %d (%s): %w", i, p.Kind, err))
		}
		compiled = append(compiled, compiledPattern{Pattern: p, re: re})
	}

	return &Catalog{patterns: compiled}, nil
}

// LoadCatalog reads a YAML catalog file and compiles it
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog compiles a catalog from YAML bytes
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, PatternEngineError("parse catalog", err)
	}

	c, err := NewCatalog(file.Patterns...)
	if err != nil {
		return nil, err
	}

	c.metadata = file.Metadata
	c.metadata.Hash = calculateCatalogHash(data)
	return c, nil
}

// SaveCatalog writes the catalog as YAML so it can be loaded with LoadCatalog
func SaveCatalog(c *Catalog, path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

// Encode renders the catalog in its YAML file format
func (c *Catalog) Encode() ([]byte, error) {
	file := catalogFile{
		Metadata: CatalogMetadata{Version: c.metadata.Version, Description: c.metadata.Description},
		Patterns: c.Patterns(),
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return data, nil
}

// Patterns returns a copy of the catalog's patterns in order
func (c *Catalog) Patterns() []Pattern {
	out := make([]Pattern, len(c.patterns))
	for i, p := range c.patterns {
		out[i] = p.Pattern
	}
	return out
}

// Metadata returns the catalog metadata
func (c *Catalog) Metadata() CatalogMetadata {
	return c.metadata
}

// Len returns the number of patterns
func (c *Catalog) Len() int {
	return len(c.patterns)
}

// calculateCatalogHash generates a hash of the catalog content for integrity checking
func calculateCatalogHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
