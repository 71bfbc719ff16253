package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTypeNameLength bounds type names. Neo4j caps identifiers at 65534
// characters; names this long are never intentional.
const MaxTypeNameLength = 256

// ValidateTypeName checks a node or edge type name. Type names become Neo4j
// labels and relationship types, so control characters are refused outright.
func ValidateTypeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("type", name, ErrInvalidName)
	}
	if name != strings.TrimSpace(name) {
		return NewValidationError("type", name, ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxTypeNameLength || !utf8.ValidString(name) {
		return NewValidationError("type", name, ErrInvalidName)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return NewValidationError("type", name, ErrInvalidName)
		}
	}
	return nil
}

// ValidateValueName checks a node value or edge label. Values are stored as
// parameters, so only emptiness and encoding matter.
func ValidateValueName(value string) error {
	if strings.TrimSpace(value) == "" || !utf8.ValidString(value) {
		return NewValidationError("value", value, ErrInvalidName)
	}
	return nil
}
