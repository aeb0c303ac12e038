package zerv

import (
	"errors"
	"fmt"
)

// Schema rule codes (E100-E199).
const (
	ErrSchemaEmpty        = "E101" // all sections empty
	ErrSecondaryInCore    = "E102" // secondary field placed in core
	ErrPrimaryInExtraCore = "E103" // primary field placed in extra_core
	ErrFieldInBuild       = "E104" // primary or secondary field placed in build
	ErrPrimaryOrder       = "E105" // major, minor, patch out of order
	ErrDuplicatePrimary   = "E106" // primary field repeated
	ErrDuplicateSecondary = "E107" // secondary field repeated
	ErrInvalidTimestamp   = "E108" // unknown timestamp pattern
	ErrInvalidPrecedence  = "E109" // bad precedence order
	ErrUnknownSection     = "E110" // section name not core, extra_core, build
)

// SchemaError reports a violated schema rule. Index is -1 when the rule
// is not tied to a single component.
type SchemaError struct {
	Code      string `json:"code"`
	Section   string `json:"section,omitempty"`
	Index     int    `json:"index"`
	Component string `json:"component,omitempty"`
	Message   string `json:"message"`
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	switch {
	case e.Section != "" && e.Index >= 0:
		return fmt.Sprintf("[%s] %s[%d] %s: %s", e.Code, e.Section, e.Index, e.Component, e.Message)
	case e.Section != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Section, e.Message)
	default:
		return fmt.Sprintf("[%s] schema: %s", e.Code, e.Message)
	}
}

// IsSchemaError returns true if err is or wraps a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// UnsupportedError reports a conversion the codecs do not implement.
type UnsupportedError struct {
	Format string
	Reason string
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("UNSUPPORTED: %s: %s", e.Format, e.Reason)
}

// IsUnsupportedError returns true if err is or wraps an UnsupportedError.
func IsUnsupportedError(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}
