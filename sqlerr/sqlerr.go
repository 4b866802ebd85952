// Package sqlerr defines the error taxonomy shared by every sqltable package.
//
// Each error carries a Kind. Use errors.Is with the exported sentinels to
// test for a kind:
//
//	if errors.Is(err, sqlerr.ErrMissingColumn) { ... }
package sqlerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind string

const (
	KindTypeMismatch         Kind = "type mismatch"
	KindNullabilityViolation Kind = "nullability violation"
	KindFormat               Kind = "format error"
	KindMissingColumn        Kind = "missing column"
	KindDuplicateWhere       Kind = "duplicate where"
	KindSchemaViolation      Kind = "schema violation"
	KindEngineExecution      Kind = "engine execution failed"
	KindInvalidStatement     Kind = "invalid statement"
	KindConnection           Kind = "connection error"
)

// Sentinels for errors.Is. They match any Error of the same kind.
var (
	ErrTypeMismatch         = &Error{kind: KindTypeMismatch}
	ErrNullabilityViolation = &Error{kind: KindNullabilityViolation}
	ErrFormat               = &Error{kind: KindFormat}
	ErrMissingColumn        = &Error{kind: KindMissingColumn}
	ErrDuplicateWhere       = &Error{kind: KindDuplicateWhere}
	ErrSchemaViolation      = &Error{kind: KindSchemaViolation}
	ErrEngineExecution      = &Error{kind: KindEngineExecution}
	ErrInvalidStatement     = &Error{kind: KindInvalidStatement}
	ErrConnection           = &Error{kind: KindConnection}
)

// Error implements the error interface with a kind and an optional cause.
type Error struct {
	kind       Kind
	message    string
	cause      error
	constraint bool
}

// Error returns the error message.
func (e *Error) Error() string {
	msg := string(e.kind)
	if e.message != "" {
		msg += ": " + e.message
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Kind returns the error's kind.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the error message without the kind or cause.
func (e *Error) Message() string { return e.message }

// Unwrap returns the underlying cause for errors.As/errors.Is support.
func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.kind == e.kind
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an underlying error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

// TypeMismatchf reports a value that cannot be coerced to a column's type.
func TypeMismatchf(format string, args ...any) *Error {
	return Newf(KindTypeMismatch, format, args...)
}

// NullabilityViolationf reports NULL written to a NOT NULL column.
func NullabilityViolationf(format string, args ...any) *Error {
	return Newf(KindNullabilityViolation, format, args...)
}

// Formatf reports a malformed date or time literal.
func Formatf(format string, args ...any) *Error {
	return Newf(KindFormat, format, args...)
}

// MissingColumnf reports an INSERT that omits a required column.
func MissingColumnf(format string, args ...any) *Error {
	return Newf(KindMissingColumn, format, args...)
}

// SchemaViolationf reports an invalid table declaration.
func SchemaViolationf(format string, args ...any) *Error {
	return Newf(KindSchemaViolation, format, args...)
}

// InvalidStatementf reports a statement that was composed or used incorrectly.
func InvalidStatementf(format string, args ...any) *Error {
	return Newf(KindInvalidStatement, format, args...)
}

// EngineExecution wraps an error returned by the storage engine.
// constraint marks integrity-constraint failures (foreign key, unique, not null).
func EngineExecution(statement string, cause error, constraint bool) *Error {
	return &Error{kind: KindEngineExecution, message: statement, cause: cause, constraint: constraint}
}

// KindOf returns the kind of the first Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return ""
}

// IsConstraintViolation reports whether err is an engine error caused by an
// integrity constraint.
func IsConstraintViolation(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == KindEngineExecution && e.constraint
	}
	return false
}
