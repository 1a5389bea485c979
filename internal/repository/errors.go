// Package repository holds the registry's persistence logic: the embedded
// child protocol, uniqueness rules, lifecycle transitions and referential
// guards. Operations return a value and an error; the error's class is the
// outcome. Handlers distinguish outcomes with errors.Is against the sentinel
// values below and with errors.As for *DuplicateError.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicate matches *DuplicateError.
	ErrDuplicate = errors.New("duplicate")
	// ErrNotFound is returned when a parent or child does not exist, or the
	// parent is soft deleted.
	ErrNotFound = errors.New("not found")
	// ErrUnmodified is returned when the target matched but the write
	// changed nothing.
	ErrUnmodified = errors.New("not modified")
	// ErrConflict is returned when a delete or restore would leave a
	// dangling reference.
	ErrConflict = errors.New("conflict")
	// ErrInvalid is returned for input the repository cannot act on, such
	// as an unknown search field.
	ErrInvalid = errors.New("invalid input")
	// ErrStore is returned when the document store fails. The underlying
	// error is logged, never returned.
	ErrStore = errors.New("store failure")
)

// DuplicateError lists every field of a candidate that collides with an
// existing record in the same uniqueness scope.
type DuplicateError struct {
	Fields []string
	Scope  string // "lab", "zone", "category" or empty for global scope
}

func (e *DuplicateError) Error() string {
	msg := fmt.Sprintf("Duplicate values found: %s already exists", strings.Join(e.Fields, ", "))
	if e.Scope != "" {
		msg += " in this " + e.Scope
	}
	return msg
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// UnmodifiedError names the entity that matched without changing.
type UnmodifiedError struct {
	Entity string
}

func (e *UnmodifiedError) Error() string { return e.Entity + " was found but not modified" }

func (e *UnmodifiedError) Is(target error) bool { return target == ErrUnmodified }

// ReferenceError explains why a referential guard refused an operation.
type ReferenceError struct {
	Reason string
}

func (e *ReferenceError) Error() string { return e.Reason }

func (e *ReferenceError) Is(target error) bool { return target == ErrConflict }

// BlankError lists required fields that are empty once normalized.
type BlankError struct {
	Fields []string
}

func (e *BlankError) Error() string {
	return strings.Join(e.Fields, ", ") + " must not be blank"
}

func (e *BlankError) Is(target error) bool { return target == ErrInvalid }

func notFound(entity string) error   { return &NotFoundError{Entity: entity} }
func unmodified(entity string) error { return &UnmodifiedError{Entity: entity} }
