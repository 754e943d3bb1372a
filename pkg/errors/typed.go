package errors

import (
	"errors"
	"fmt"
	"time"
)

// NoPredictionsError is returned when a hyperparameter cannot be selected
// because no usable predictions exist.
type NoPredictionsError struct {
	Params  int    // Number of hyperparameter values seen
	Rows    int    // Number of prediction rows seen
	Message string // Human-readable message
}

// NewNoPredictionsError creates a new NoPredictionsError.
func NewNoPredictionsError(params, rows int, format string, args ...any) *NoPredictionsError {
	return &NoPredictionsError{
		Params:  params,
		Rows:    rows,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *NoPredictionsError) Error() string {
	return e.Message
}

// ErrorCode implements the coded interface.
func (e *NoPredictionsError) ErrorCode() ErrorCode {
	return ErrCodeNoPredictions
}

// IsNoPredictionsError checks if an error is a NoPredictionsError.
func IsNoPredictionsError(err error) bool {
	var target *NoPredictionsError

	return errors.As(err, &target)
}

// MalformedSectionHeaderError describes a filing section that starts like an
// item header but carries no usable item code. It never aborts a batch.
type MalformedSectionHeaderError struct {
	Document string // Filing the section came from, may be empty
	Index    int    // Position of the section within the document
	Header   string // First characters of the offending section
}

// NewMalformedSectionHeaderError creates a new MalformedSectionHeaderError.
func NewMalformedSectionHeaderError(document string, index int, header string) *MalformedSectionHeaderError {
	const maxHeader = 40
	if runes := []rune(header); len(runes) > maxHeader {
		header = string(runes[:maxHeader])
	}

	return &MalformedSectionHeaderError{
		Document: document,
		Index:    index,
		Header:   header,
	}
}

// Error implements the error interface.
func (e *MalformedSectionHeaderError) Error() string {
	if e.Document == "" {
		return fmt.Sprintf("malformed section header at section %d: %q", e.Index, e.Header)
	}

	return fmt.Sprintf("malformed section header in %s at section %d: %q", e.Document, e.Index, e.Header)
}

// ErrorCode implements the coded interface.
func (e *MalformedSectionHeaderError) ErrorCode() ErrorCode {
	return ErrCodeMalformedSectionHeader
}

// IsMalformedSectionHeaderError checks if an error is a MalformedSectionHeaderError.
func IsMalformedSectionHeaderError(err error) bool {
	var target *MalformedSectionHeaderError

	return errors.As(err, &target)
}

// EmptyCrossSectionError is returned for a rebalancing event without any
// scored instrument. It is not fatal: no instructions are emitted.
type EmptyCrossSectionError struct {
	Time time.Time
}

// NewEmptyCrossSectionError creates a new EmptyCrossSectionError.
func NewEmptyCrossSectionError(t time.Time) *EmptyCrossSectionError {
	return &EmptyCrossSectionError{Time: t}
}

// Error implements the error interface.
func (e *EmptyCrossSectionError) Error() string {
	return fmt.Sprintf("empty cross-section at %s", e.Time.Format(time.RFC3339))
}

// ErrorCode implements the coded interface.
func (e *EmptyCrossSectionError) ErrorCode() ErrorCode {
	return ErrCodeEmptyCrossSection
}

// IsEmptyCrossSectionError checks if an error is an EmptyCrossSectionError.
func IsEmptyCrossSectionError(err error) bool {
	var target *EmptyCrossSectionError

	return errors.As(err, &target)
}
