package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrForbidden       = errors.New("permission denied")
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
	ErrInvalidToken    = errors.New("invalid token")
	ErrBadCredentials  = errors.New("unable to log in with provided credentials")
)

// ValidationError carries per-field messages. Field "" holds
// non-field errors.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	v := &ValidationError{}
	v.Add(field, format, args...)
	return v
}

func (v *ValidationError) Add(field, format string, args ...interface{}) {
	if v.Fields == nil {
		v.Fields = map[string][]string{}
	}
	v.Fields[field] = append(v.Fields[field], fmt.Sprintf(format, args...))
}

// OrNil returns v as an error only when something was added.
func (v *ValidationError) OrNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		msg := strings.Join(v.Fields[k], ", ")
		if k == "" {
			parts = append(parts, msg)
		} else {
			parts = append(parts, k+": "+msg)
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConflictError names which relation already exists.
type ConflictError struct {
	Relation string
	Message  string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
