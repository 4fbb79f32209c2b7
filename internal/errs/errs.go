// Package errs defines the error taxonomy shared by the flaghunter
// components. Every per-item failure is reported as an *Error carrying a
// Code, so callers can branch with errors.Is against the sentinels below.
package errs

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure.
type Code string

const (
	// CodeConfigLoad indicates the configuration file was missing or invalid.
	CodeConfigLoad Code = "CONFIG_LOAD"

	// CodeInvalidPattern indicates a flag pattern is not valid regex syntax.
	CodeInvalidPattern Code = "INVALID_PATTERN"

	// CodeFetch indicates a network, DNS or timeout failure.
	CodeFetch Code = "FETCH"

	// CodeFileIO indicates a file could not be read or written.
	CodeFileIO Code = "FILE_IO"

	// CodeDirectoryNotFound indicates a directory scan target is missing.
	CodeDirectoryNotFound Code = "DIRECTORY_NOT_FOUND"

	// CodeInputFileNotFound indicates a URL list or other input file is missing.
	CodeInputFileNotFound Code = "INPUT_FILE_NOT_FOUND"
)

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrConfigLoad        = &Error{Code: CodeConfigLoad}
	ErrInvalidPattern    = &Error{Code: CodeInvalidPattern}
	ErrFetch             = &Error{Code: CodeFetch}
	ErrFileIO            = &Error{Code: CodeFileIO}
	ErrDirectoryNotFound = &Error{Code: CodeDirectoryNotFound}
	ErrInputFileNotFound = &Error{Code: CodeInputFileNotFound}
)

// Error is a coded error with the operation and subject that produced it.
type Error struct {
	Code Code
	Op   string
	Path string
	Err  error
}

// New builds an *Error.
func New(code Code, op, path string, err error) *Error {
	return &Error{Code: code, Op: op, Path: path, Err: err}
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Op != "" {
		msg = e.Op
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the Code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
