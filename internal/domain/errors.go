package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for errors.Is() checking.
var (
	ErrValidation    = errors.New("validation error")
	ErrDuplicateName = errors.New("duplicate check name")
	ErrStartupFailed = errors.New("startup health check failed")
)

// ValidationError provides programmatic access to field-level validation
// failures for a single check's resolved options. Use
// errors.Is(err, ErrValidation) for simple checks, or errors.As(err, &verr)
// to access verr.Fields for per-field error details.
type ValidationError struct {
	Check  string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return fmt.Sprintf("check %q: %s: %s", e.Check, ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
