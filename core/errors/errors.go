// Package errors provides standardized error types and helpers for the Polyglot codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// MalformedReferenceError reports a location reference that no longer
// resolves against the document it is being reinjected into.
type MalformedReferenceError struct {
	Reference string // The reference as recorded at extraction time
	Reason    string // What failed while resolving it
	Err       error  // Underlying error, if any
}

func (e *MalformedReferenceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("malformed reference %q: %s", e.Reference, e.Reason)
	}
	return fmt.Sprintf("malformed reference %q", e.Reference)
}

func (e *MalformedReferenceError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// RequiredAttributeMissingError reports an identifying attribute that the
// dialect mandates but the input omits.
type RequiredAttributeMissingError struct {
	Element   string // Element name (e.g., "unit")
	Attribute string // Attribute name (e.g., "id")
	Line      int    // Source line, 0 when unknown
}

func (e *RequiredAttributeMissingError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("<%s> at line %d is missing required attribute %q", e.Element, e.Line, e.Attribute)
	}
	return fmt.Sprintf("<%s> is missing required attribute %q", e.Element, e.Attribute)
}

func (e *RequiredAttributeMissingError) Unwrap() error {
	return ErrInvalidInput
}

// UnsupportedFormatError reports input that is neither HTML, plain text nor
// a supported XLIFF version.
type UnsupportedFormatError struct {
	Format string // Detected or requested format, if any
	Reason string // Why it's not supported
	Err    error  // Underlying error, if any
}

func (e *UnsupportedFormatError) Error() string {
	switch {
	case e.Format != "" && e.Reason != "":
		return fmt.Sprintf("unsupported format %s: %s", e.Format, e.Reason)
	case e.Format != "":
		return fmt.Sprintf("unsupported format %s", e.Format)
	case e.Reason != "":
		return fmt.Sprintf("unsupported format: %s", e.Reason)
	}
	return "unsupported format"
}

func (e *UnsupportedFormatError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "XLIFF 2.1", "HTML")
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Helper functions for creating common errors

// NewMalformedReference creates a MalformedReferenceError
func NewMalformedReference(reference, reason string) *MalformedReferenceError {
	return &MalformedReferenceError{
		Reference: reference,
		Reason:    reason,
	}
}

// NewRequiredAttribute creates a RequiredAttributeMissingError
func NewRequiredAttribute(element, attribute string, line int) *RequiredAttributeMissingError {
	return &RequiredAttributeMissingError{
		Element:   element,
		Attribute: attribute,
		Line:      line,
	}
}

// NewUnsupportedFormat creates an UnsupportedFormatError
func NewUnsupportedFormat(format, reason string) *UnsupportedFormatError {
	return &UnsupportedFormatError{
		Format: format,
		Reason: reason,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError wrapping err
func NewParse(format, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		Message: message,
		Err:     err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
