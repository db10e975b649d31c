// Package errors provides structured error types for transitnet.
//
// Every failure a build can hit falls into one of a few categories:
//   - INVALID_*, MISSING_COLUMN: an input table does not match its schema
//   - REFERENTIAL_INTEGRITY: a record points at something that does not exist
//   - SEARCH_EXHAUSTED: demand attachment reached its cutoff ceiling
//   - DUPLICATE_ID: merged output would reuse a node or arc ID
//   - INTERNAL_ERROR: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeReferentialIntegrity, "line %d: unknown stop %d", line, stop)
//	if errors.Is(err, errors.ErrCodeReferentialIntegrity) {
//	    // report and abort
//	}
//
//	// Input table problems carry their location
//	err := errors.Input(errors.ErrCodeInvalidNumber, "stops.csv", 12, "lat", cause)
package errors

import (
	"errors"
	"fmt"
	"strconv"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input-format errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeMissingColumn Code = "MISSING_COLUMN"
	ErrCodeInvalidNumber Code = "INVALID_NUMBER"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"

	// Data errors
	ErrCodeReferentialIntegrity Code = "REFERENTIAL_INTEGRITY"
	ErrCodeDuplicateID          Code = "DUPLICATE_ID"

	// Operational errors
	ErrCodeSearchExhausted Code = "SEARCH_EXHAUSTED"
	ErrCodeInternal        Code = "INTERNAL_ERROR"
)

// Location points into an input table. Row is 1-based with the header on
// row 1; zero means the whole file. An empty Column means the whole row.
type Location struct {
	File   string
	Row    int
	Column string
}

func (l Location) String() string {
	s := l.File
	if l.Row > 0 {
		s += ":" + strconv.Itoa(l.Row)
	}
	if l.Column != "" {
		s += fmt.Sprintf(" column %q", l.Column)
	}
	return s
}

// Error is a coded error with an optional input location and cause.
type Error struct {
	Code    Code
	Message string
	Loc     *Location
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Input returns an Error locating a problem inside an input table. The
// message is the location; a zero row or empty column is left out.
func Input(code Code, file string, row int, column string, cause error) *Error {
	loc := Location{File: file, Row: row, Column: column}
	return &Error{Code: code, Message: loc.String(), Loc: &loc, Cause: cause}
}

func as(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// Is reports whether the first *Error in err's chain has code.
func Is(err error, code Code) bool {
	e := as(err)
	return e != nil && e.Code == code
}

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	if e := as(err); e != nil {
		return e.Code
	}
	return ""
}

// LocationOf returns the input location carried by err, if any.
func LocationOf(err error) (Location, bool) {
	if e := as(err); e != nil && e.Loc != nil {
		return *e.Loc, true
	}
	return Location{}, false
}

// UserMessage returns err without its code prefix.
func UserMessage(err error) string {
	e := as(err)
	switch {
	case e == nil:
		return err.Error()
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	default:
		return e.Message
	}
}
