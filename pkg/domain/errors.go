package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies command failures. Each kind is itself an error so that
// callers can match with errors.Is(err, domain.ErrNotFound).
type ErrorKind string

// Error kinds returned by store and workflow operations.
const (
	// ErrNotFound reports that the id a command targets does not exist.
	ErrNotFound ErrorKind = "not_found"
	// ErrInvalidTransition reports a state machine rule violation.
	ErrInvalidTransition ErrorKind = "invalid_transition"
	// ErrInvalidReference reports an id inside a record that points to a
	// missing or wrong entity.
	ErrInvalidReference ErrorKind = "invalid_reference"
	// ErrNegativeStock reports a stock change that would drop below zero.
	ErrNegativeStock ErrorKind = "negative_stock"
	// ErrInsufficientSource reports a source site without enough material.
	ErrInsufficientSource ErrorKind = "insufficient_source"
	// ErrStaleSiteReference reports that a subject is no longer at the site a
	// transfer expects.
	ErrStaleSiteReference ErrorKind = "stale_site_reference"
	// ErrValidation reports malformed input.
	ErrValidation ErrorKind = "validation_error"
)

func (k ErrorKind) Error() string { return string(k) }

// Error is a typed command failure.
type Error struct {
	Kind    ErrorKind
	Entity  EntityType
	ID      string
	Message string
}

// Errorf builds an Error with a formatted message.
func Errorf(kind ErrorKind, entity EntityType, id string, format string, args ...any) *Error {
	return &Error{Kind: kind, Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds the error returned when a targeted record is absent.
func NotFound(entity EntityType, id string) *Error {
	return &Error{Kind: ErrNotFound, Entity: entity, ID: id, Message: fmt.Sprintf("%s %q not found", entity, id)}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.ID != "" {
		return fmt.Sprintf("%s: %s %s", e.Kind, e.Entity, e.ID)
	}
	return string(e.Kind)
}

// Unwrap exposes the kind for errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

// KindOf extracts the error kind from err, or "" when err carries none.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var kind ErrorKind
	if errors.As(err, &kind) {
		return kind
	}
	return ""
}
