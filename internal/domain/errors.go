package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthenticated   = errors.New("no active session")
	ErrForbidden         = errors.New("forbidden for this role")
	ErrInvalidTransition = errors.New("invalid task transition")
	ErrVersionConflict   = errors.New("version conflict")
)

// ValidationError lists the rejected fields of an input, keyed by JSON
// field name, with the failed rule as value.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
