// Package errors provides the error taxonomy shared by the extraction engine,
// the corpus, and the API layer.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a lookup found nothing
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrStructure indicates markup that no longer matches the extraction rules
	ErrStructure = errors.New("unexpected document structure")
	// ErrUnresolvedCitation indicates a citation marker without footnote text
	ErrUnresolvedCitation = errors.New("unresolved citation")
	// ErrCountMismatch indicates a parsed record count differing from the expected count
	ErrCountMismatch = errors.New("record count mismatch")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError represents a lookup that found nothing
type NotFoundError struct {
	Resource string // Type of resource (e.g., "paragraph", "prayer", "gleaning")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is matches ErrNotFound even when an underlying error is wrapped.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is matches ErrInvalidInput even when an underlying error is wrapped.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// StructureError reports a required element or attribute missing from a
// document. The snapshot changed or an extraction rule is wrong; it is never
// a runtime condition to recover from.
type StructureError struct {
	Work    string // Work being extracted (e.g., "prayers")
	Element string // Element or selector that was expected
	Context string // Where it was expected (e.g., a ref_id)
	Err     error  // Underlying error, if any
}

func (e *StructureError) Error() string {
	msg := fmt.Sprintf("%s: missing %s", e.Work, e.Element)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StructureError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrStructure
}

// CitationError reports a citation marker with no matching footnote.
type CitationError struct {
	RefID         string // ref_id of the paragraph holding the marker
	CitationRefID string // ref_id the marker links to
	Number        int    // printed marker number
}

func (e *CitationError) Error() string {
	return fmt.Sprintf("missing citation text for paragraph %s: citation %s (#%d)",
		e.RefID, e.CitationRefID, e.Number)
}

func (e *CitationError) Unwrap() error {
	return ErrUnresolvedCitation
}

// CountMismatchError reports a work whose record count differs from its
// expected count.
type CountMismatchError struct {
	Work     string
	Expected int
	Actual   int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("CODE UPDATE REQUIRED: %s produced %d records, expected %d",
		e.Work, e.Actual, e.Expected)
}

func (e *CountMismatchError) Unwrap() error {
	return ErrCountMismatch
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "fetch")
	Path      string // File path or URL involved
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

// ParseError represents a parsing error
type ParseError struct {
	Format  string // What was being parsed (e.g., "citation number", "reference")
	Input   string // Offending input, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("failed to parse %s %q: %s", e.Format, e.Input, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

// Is matches ErrInvalidInput even when an underlying error is wrapped.
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

// Is matches ErrUnsupported even when an underlying error is wrapped.
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewStructure creates a StructureError
func NewStructure(work, element, context string) *StructureError {
	return &StructureError{
		Work:    work,
		Element: element,
		Context: context,
	}
}

// NewCountMismatch creates a CountMismatchError
func NewCountMismatch(work string, expected, actual int) *CountMismatchError {
	return &CountMismatchError{
		Work:     work,
		Expected: expected,
		Actual:   actual,
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

// NewParse creates a ParseError
func NewParse(format, input, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Input:   input,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
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

// Join wraps errors.Join for convenience
func Join(errs ...error) error {
	return errors.Join(errs...)
}
