package core

import (
	"sort"
	"strings"
)

// Detector finds personal data in text and performs forward and reverse
// placeholder substitution. It holds no mutable state and is safe for
// concurrent use.
type Detector struct {
	catalog *Catalog
	overlap OverlapPolicy
}

// DetectorOption configures a Detector
type DetectorOption func(*Detector)

// WithOverlapPolicy selects how matches from different kinds that share
// bytes are handled. The default is OverlapKeepAll.
func WithOverlapPolicy(p OverlapPolicy) DetectorOption {
	return func(d *Detector) {
		d.overlap = p
	}
}

// NewDetector creates a detector over an already compiled catalog. A nil
// catalog selects DefaultCatalog.
func NewDetector(catalog *Catalog, opts ...DetectorOption) *Detector {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	d := &Detector{catalog: catalog, overlap: OverlapKeepAll}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Catalog returns the catalog the detector scans with
func (d *Detector) Catalog() *Catalog {
	return d.catalog
}

// hit is a raw pattern occurrence before placeholders are assigned
type hit struct {
	kind    PIIType
	span    Span
	pattern int
}

// Detect runs every catalog pattern independently over the whole text and
// returns the matches sorted by start offset, descending. Ordinals are
// counted per kind in textual order, starting at 1.
func (d *Detector) Detect(text string) []Match {
	if text == "" {
		return []Match{}
	}

	var hits []hit
	for i, p := range d.catalog.patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			hits = append(hits, hit{kind: p.Kind, span: Span{Start: loc[0], End: loc[1]}, pattern: i})
		}
	}

	hits = d.overlap.resolve(hits)

	// hits are still grouped by pattern and ascending within a pattern,
	// so counting in slice order yields textual ordinals per kind
	counter := make(map[PIIType]int, len(AllPIITypes))
	matches := make([]Match, 0, len(hits))
	for _, h := range hits {
		counter[h.kind]++
		matches = append(matches, Match{
			Kind:        h.kind,
			Original:    text[h.span.Start:h.span.End],
			Placeholder: h.kind.Placeholder(counter[h.kind]),
			Span:        h.span,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Span.Start > matches[j].Span.Start
	})

	return matches
}

// Anonymize replaces each match span with its placeholder, working strictly
// right to left so that every span still to be processed stays valid
// against the partially rewritten text. matches must be in the descending
// order Detect returns. Mappings are emitted in the same right-to-left order.
func (d *Detector) Anonymize(text string, matches []Match) (string, []Mapping) {
	anonymized := text
	mappings := make([]Mapping, 0, len(matches))

	for _, m := range matches {
		start, end := m.Span.Start, m.Span.End

		// Overlapping kinds can leave an earlier span reaching past text
		// already rewritten on its right; clamp instead of slicing out of range.
		if start > len(anonymized) {
			start = len(anonymized)
		}
		if end > len(anonymized) {
			end = len(anonymized)
		}
		if end < start {
			end = start
		}

		anonymized = anonymized[:start] + m.Placeholder + anonymized[end:]
		mappings = append(mappings, MappingFor(m))
	}

	return anonymized, mappings
}

// Restore replaces every literal occurrence of each mapping's placeholder
// with its original text. Placeholders absent from the text are ignored.
func (d *Detector) Restore(text string, mappings []Mapping) string {
	restored := text
	for _, m := range mappings {
		if m.Placeholder == "" {
			continue
		}
		restored = strings.ReplaceAll(restored, m.Placeholder, m.Original)
	}
	return restored
}

// Redact runs Detect and Anonymize in one step
func (d *Detector) Redact(text string) (string, []Match, []Mapping) {
	matches := d.Detect(text)
	anonymized, mappings := d.Anonymize(text, matches)
	return anonymized, matches, mappings
}
