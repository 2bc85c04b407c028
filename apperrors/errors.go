// Package apperrors defines the error taxonomy shared by the valuation
// pipeline, its stores and its HTTP transport.
package apperrors

import (
	stderrors "errors"
	"fmt"
)

// Category groups errors by how callers should react to them.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryNotFound   Category = "not-found"
	CategoryConflict   Category = "conflict"
	CategoryStorage    Category = "storage"
	CategoryInternal   Category = "internal"
)

// Sentinels for errors.Is checks. Any *Error of the same category matches.
var (
	ErrValidation = &Error{Category: CategoryValidation, Msg: "validation failed"}
	ErrNotFound   = &Error{Category: CategoryNotFound, Msg: "not found"}
	ErrConflict   = &Error{Category: CategoryConflict, Msg: "conflict"}
	ErrStorage    = &Error{Category: CategoryStorage, Msg: "storage failure"}
)

// Error is a categorised error with the operation that produced it.
type Error struct {
	Category Category
	Op       string
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same category.
func (e *Error) Is(target error) bool {
	var t *Error
	if stderrors.As(target, &t) {
		return e.Category == t.Category
	}
	return false
}

// Validation builds a validation error for op.
func Validation(op, format string, args ...any) error {
	return &Error{Category: CategoryValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFound builds a not-found error for op.
func NotFound(op, format string, args ...any) error {
	return &Error{Category: CategoryNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Conflict builds a conflict error for op.
func Conflict(op, format string, args ...any) error {
	return &Error{Category: CategoryConflict, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence failure.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Category: CategoryStorage, Op: op, Err: err}
}

// CategoryOf returns the category of the first *Error in err's chain, or
// CategoryInternal.
func CategoryOf(err error) Category {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Category
	}
	return CategoryInternal
}

// Is and As re-export the standard helpers so callers need one import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
