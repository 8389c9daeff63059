package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnauthorized indicates the caller has no valid principal.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the principal may not perform the action.
	ErrForbidden = errors.New("forbidden")
	// ErrPersistence marks a failed write that left state unchanged and can
	// be retried.
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError lists input problems by field. It is returned before any
// state changes.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
