package engine

import (
	"errors"
	"fmt"
)

// BumpError represents an error detected while applying overrides and
// bumps. Every BumpError is returned before any caller-visible state
// changes.
type BumpError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Section is the schema section addressed, if any.
	Section string

	// Index is the schema position addressed; -1 when not positional.
	Index int

	// Field names the var or precedence entry involved, if any.
	Field string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeInvalidBumpTarget indicates a bump addressed something that
	// cannot be bumped: a timestamp, a context field, or a field outside
	// the precedence order.
	ErrCodeInvalidBumpTarget ErrorCode = "INVALID_BUMP_TARGET"

	// ErrCodeIndexOutOfBounds indicates a schema position outside its section.
	ErrCodeIndexOutOfBounds ErrorCode = "INDEX_OUT_OF_BOUNDS"

	// ErrCodeConflictingOverride indicates contradictory directives.
	ErrCodeConflictingOverride ErrorCode = "CONFLICTING_OVERRIDE"

	// ErrCodeInvalidSpec indicates a malformed index=value directive or value.
	ErrCodeInvalidSpec ErrorCode = "INVALID_SPEC"

	// ErrCodeDuplicateIndex indicates the same position was addressed twice.
	ErrCodeDuplicateIndex ErrorCode = "DUPLICATE_INDEX"
)

// Error implements the error interface.
func (e *BumpError) Error() string {
	switch {
	case e.Section != "" && e.Index >= 0:
		return fmt.Sprintf("%s: %s (section=%s, index=%d)", e.Code, e.Message, e.Section, e.Index)
	case e.Section != "":
		return fmt.Sprintf("%s: %s (section=%s)", e.Code, e.Message, e.Section)
	case e.Field != "":
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code ErrorCode) bool {
	var be *BumpError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// IsInvalidBumpTarget returns true if the error is an invalid bump target error.
// Uses errors.As to handle wrapped errors.
func IsInvalidBumpTarget(err error) bool { return hasCode(err, ErrCodeInvalidBumpTarget) }

// IsIndexOutOfBounds returns true if the error is an index out of bounds error.
func IsIndexOutOfBounds(err error) bool { return hasCode(err, ErrCodeIndexOutOfBounds) }

// IsConflictingOverride returns true if the error is a conflicting override error.
func IsConflictingOverride(err error) bool { return hasCode(err, ErrCodeConflictingOverride) }

// IsInvalidSpec returns true if the error is an invalid spec error.
func IsInvalidSpec(err error) bool { return hasCode(err, ErrCodeInvalidSpec) }

// IsDuplicateIndex returns true if the error is a duplicate index error.
func IsDuplicateIndex(err error) bool { return hasCode(err, ErrCodeDuplicateIndex) }

// GetBumpError extracts a BumpError from an error chain.
// Returns nil if the error is not a BumpError.
func GetBumpError(err error) *BumpError {
	var be *BumpError
	if errors.As(err, &be) {
		return be
	}
	return nil
}

func fieldError(code ErrorCode, field, format string, args ...any) *BumpError {
	return &BumpError{Code: code, Field: field, Index: -1, Message: fmt.Sprintf(format, args...)}
}

func positionError(code ErrorCode, section string, index int, format string, args ...any) *BumpError {
	return &BumpError{Code: code, Section: section, Index: index, Message: fmt.Sprintf(format, args...)}
}
