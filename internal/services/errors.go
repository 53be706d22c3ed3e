package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownCanonicalField = errors.New("unknown canonical field")
	ErrInvalidMappingPayload = errors.New("invalid mapping payload")
)

// UnknownCanonicalFieldError lists every target name in a batch that has no
// canonical field, in first-appearance order.
type UnknownCanonicalFieldError struct {
	Names []string
}

func (e *UnknownCanonicalFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownCanonicalField, strings.Join(e.Names, ", "))
}

func (e *UnknownCanonicalFieldError) Unwrap() error     { return ErrUnknownCanonicalField }
func (e *UnknownCanonicalFieldError) Passthrough() bool { return true }

// PayloadProblem is one structural defect in an admin payload. Index is the
// offending list element, or -1 for top-level fields.
type PayloadProblem struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (p PayloadProblem) String() string {
	if p.Index < 0 {
		return fmt.Sprintf("%s %s", p.Field, p.Message)
	}
	return fmt.Sprintf("[%d].%s %s", p.Index, p.Field, p.Message)
}

type InvalidMappingPayloadError struct {
	Problems []PayloadProblem
}

func (e *InvalidMappingPayloadError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidMappingPayload, strings.Join(parts, "; "))
}

func (e *InvalidMappingPayloadError) Unwrap() error     { return ErrInvalidMappingPayload }
func (e *InvalidMappingPayloadError) Passthrough() bool { return true }
