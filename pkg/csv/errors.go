package csv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shapestone/shape-csvstream/internal/rowparser"
)

// BadLineMode specifies how a rejected row is handled.
type BadLineMode int

const (
	// BadLineModeError stops the scan with a *ParseError.
	BadLineModeError BadLineMode = iota
	// BadLineModeWarn reports the row through WarningCallback and the logger, then skips it.
	BadLineModeWarn
	// BadLineModeSkip silently skips the row.
	BadLineModeSkip
)

// String returns the string representation of BadLineMode.
func (m BadLineMode) String() string {
	switch m {
	case BadLineModeError:
		return "error"
	case BadLineModeWarn:
		return "warn"
	case BadLineModeSkip:
		return "skip"
	default:
		return fmt.Sprintf("BadLineMode(%d)", m)
	}
}

// ParseBadLineMode parses the names produced by BadLineMode.String.
func ParseBadLineMode(s string) (BadLineMode, error) {
	switch strings.ToLower(s) {
	case "error":
		return BadLineModeError, nil
	case "warn":
		return BadLineModeWarn, nil
	case "skip":
		return BadLineModeSkip, nil
	}
	return 0, &OptionsError{Field: "OnBadLine", Message: fmt.Sprintf("unknown mode %q", s)}
}

// WarningHandler is a callback function for rejected rows.
type WarningHandler func(line int, message string)

var (
	// ErrFieldCount indicates a row whose cell count differs from the header.
	ErrFieldCount = rowparser.ErrFieldCount

	// ErrRowTooLarge indicates a row exceeded MaxRowSize. The scan cannot continue.
	ErrRowTooLarge = rowparser.ErrRowTooLarge

	// ErrInvalidMapping indicates a mapping that does not fit the header.
	ErrInvalidMapping = errors.New("invalid column mapping")

	// ErrNoHeader indicates an input without any row.
	ErrNoHeader = errors.New("input has no header row")

	// ErrRead wraps failures of the underlying reader.
	ErrRead = errors.New("read failed")
)

// ParseError represents a rejected row with its position.
type ParseError struct {
	// Line is the 1-based logical row number; the header is line 1.
	Line int
	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message with position information.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error on line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// MappingProblem describes one binding that cannot be satisfied.
type MappingProblem struct {
	Field   string
	Column  string
	Message string
}

func (p MappingProblem) String() string {
	if p.Column == "" {
		return fmt.Sprintf("field %q: %s", p.Field, p.Message)
	}
	return fmt.Sprintf("field %q (column %s): %s", p.Field, p.Column, p.Message)
}

// MappingError lists every problem found while binding a mapping to a header.
type MappingError struct {
	Problems []MappingProblem
}

func (e *MappingError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrInvalidMapping.Error())
	for i, p := range e.Problems {
		if i == 0 {
			sb.WriteString(": ")
		} else {
			sb.WriteString("; ")
		}
		sb.WriteString(p.String())
	}
	return sb.String()
}

// Unwrap lets errors.Is match ErrInvalidMapping.
func (e *MappingError) Unwrap() error {
	return ErrInvalidMapping
}

// TransformError reports a value transform that failed for one row.
type TransformError struct {
	Field  string
	Column int
	Value  string
	Err    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("field %q (column %d): cannot convert %q: %v", e.Field, e.Column, e.Value, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// ErrorCode is a stable, loggable classification of an error.
type ErrorCode string

const (
	ErrCodeFieldCount     ErrorCode = "FIELD_COUNT"
	ErrCodeRowTooLarge    ErrorCode = "ROW_TOO_LARGE"
	ErrCodeInvalidMapping ErrorCode = "INVALID_MAPPING"
	ErrCodeTransform      ErrorCode = "TRANSFORM"
	ErrCodeIO             ErrorCode = "IO"
	ErrCodeCanceled       ErrorCode = "CANCELED"
	ErrCodeParse          ErrorCode = "PARSE"
)

// Code returns the error code for err, or ErrCodeParse if unknown.
// It returns "" for nil and io.EOF.
func Code(err error) ErrorCode {
	if err == nil || err == io.EOF {
		return ""
	}

	var terr *TransformError
	switch {
	case errors.Is(err, ErrFieldCount):
		return ErrCodeFieldCount
	case errors.Is(err, ErrRowTooLarge):
		return ErrCodeRowTooLarge
	case errors.Is(err, ErrInvalidMapping), errors.Is(err, ErrNoHeader):
		return ErrCodeInvalidMapping
	case errors.As(err, &terr):
		return ErrCodeTransform
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeCanceled
	case errors.Is(err, ErrRead):
		return ErrCodeIO
	}
	return ErrCodeParse
}
