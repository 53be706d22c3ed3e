package normalization

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ParseInputString trims and lowercases free-form input such as config
// values and role names.
func ParseInputString(input string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(input))
}

func ParseInputStringPtr(input *string) *string {
	if input == nil {
		return nil
	}
	normalized := ParseInputString(*input)
	return &normalized
}

// Collapse trims s, lowercases it and folds every whitespace run into a
// single space. It is the normalization applied to identity signals.
func Collapse(s string) string {
	fields := strings.FieldsFunc(s, IsSpace)
	if len(fields) == 0 {
		return ""
	}
	return cases.Lower(language.Und).String(strings.Join(fields, " "))
}

// IsSpace reports whether r belongs to the ECMAScript whitespace and line
// terminator set, which is what stored fingerprints were normalized with.
func IsSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}
