package core

import (
	"fmt"
	"strings"
)

// PIIType identifies the kind of personal data a match represents
type PIIType string

const (
	// PIIEmail is an email address
	PIIEmail PIIType = "email"

	// PIIPhone is a phone number in national or generic NNNN-NNNN format
	PIIPhone PIIType = "phone"

	// PIINationalID is a national identity number (date-of-birth segment + serial)
	PIINationalID PIIType = "nationalId"

	// PIICardNumber is a 16 digit payment card number
	PIICardNumber PIIType = "cardNumber"

	// PIIBirthDate is an 8 digit YYYYMMDD birth date
	PIIBirthDate PIIType = "birthDate"
)

// AllPIITypes lists every supported kind in default catalog order
var AllPIITypes = []PIIType{
	PIIEmail,
	PIIPhone,
	PIINationalID,
	PIICardNumber,
	PIIBirthDate,
}

// Valid reports whether t is one of the supported kinds
func (t PIIType) Valid() bool {
	for _, known := range AllPIITypes {
		if t == known {
			return true
		}
	}
	return false
}

// Label is the upper-cased kind name used inside placeholders
func (t PIIType) Label() string {
	return strings.ToUpper(string(t))
}

// Placeholder formats the placeholder for the given 1-based ordinal
func (t PIIType) Placeholder(ordinal int) string {
	return fmt.Sprintf("[%s_%03d]", t.Label(), ordinal)
}

// Span is a half-open byte range [Start, End) in the original text
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the span
func (s Span) Len() int {
	return s.End - s.Start
}

// Overlaps reports whether two spans share at least one byte
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Match is one detected occurrence of personal data
type Match struct {
	Kind        PIIType `json:"type"`
	Original    string  `json:"original"`
	Placeholder string  `json:"placeholder"`
	Span        Span    `json:"position"`
}

// Mapping is the reversible placeholder record persisted per session
type Mapping struct {
	Placeholder string  `json:"placeholder"`
	Original    string  `json:"original"`
	Kind        PIIType `json:"type"`
}

// MappingFor derives the mapping that reverses a match
func MappingFor(m Match) Mapping {
	return Mapping{
		Placeholder: m.Placeholder,
		Original:    m.Original,
		Kind:        m.Kind,
	}
}

func cloneMappings(mappings []Mapping) []Mapping {
	if mappings == nil {
		return nil
	}
	out := make([]Mapping, len(mappings))
	copy(out, mappings)
	return out
}
