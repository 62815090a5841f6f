// Package errs provides the unified error type used across metaschema.
//
// Corpus sources (database catalogs, object stores, Go packages, YAML files)
// wrap their native errors into *errs.Error, and the schema builder reports
// extraction failures with the same type. Callers use the Is* predicates to
// branch on a failure without importing driver-specific packages.
//
// Usage:
//
//	// In a corpus source:
//	return errs.Wrap(errs.ErrKindTimeout, "catalog query timed out", pgErr)
//
//	// In the builder:
//	return errs.New(errs.ErrKindUnresolvedType, "unknown scalar type Money").
//	    At("Order", "total")
//
//	// In a caller:
//	if errs.IsDanglingMappedBy(err) { ... }
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no rows, no object, no bucket
	ErrKindConnectionFailed         // cannot reach the backend
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // catalog or storage operation error
	ErrKindInvalidInput             // bad arguments or malformed corpus
	ErrKindPermissionDenied         // access denied / auth failure
	ErrKindUnresolvedType           // attribute or parameter type matched no rule
	ErrKindDanglingMappedBy         // explicit mapped-by names a missing attribute
	ErrKindDuplicateName            // entity or member name collides
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindUnresolvedType:
		return "unresolved_type"
	case ErrKindDanglingMappedBy:
		return "dangling_mapped_by"
	case ErrKindDuplicateName:
		return "duplicate_name"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by metaschema subsystems.
// Entity and Attribute locate extraction failures inside the corpus and are
// empty for transport errors.
type Error struct {
	Kind      ErrKind
	Message   string
	Entity    string
	Attribute string
	Cause     error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", e.Kind)
	if loc := e.location(); loc != "" {
		b.WriteString(loc)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) location() string {
	switch {
	case e.Entity != "" && e.Attribute != "":
		return e.Entity + "." + e.Attribute
	case e.Entity != "":
		return e.Entity
	default:
		return e.Attribute
	}
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// At records where in the corpus the error was raised and returns e.
// An empty argument leaves the existing value untouched.
func (e *Error) At(entity, attribute string) *Error {
	if entity != "" {
		e.Entity = entity
	}
	if attribute != "" {
		e.Attribute = attribute
	}
	return e
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a formatted message.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result
// (missing object, unknown table/bucket, …).
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a backend operation failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsUnresolvedType reports whether err is a type that no resolver rule accepted.
func IsUnresolvedType(err error) bool {
	return KindOf(err) == ErrKindUnresolvedType
}

// IsDanglingMappedBy reports whether err is an explicit mapped-by naming an
// attribute the target entity does not have.
func IsDanglingMappedBy(err error) bool {
	return KindOf(err) == ErrKindDanglingMappedBy
}

// IsDuplicateName reports whether err is a name collision.
func IsDuplicateName(err error) bool {
	return KindOf(err) == ErrKindDuplicateName
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
