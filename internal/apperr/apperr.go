// Package apperr carries coded plugver failures across the CLI and HTTP surfaces.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure.
type Code string

const (
	// Input errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeInvalidVersion  Code = "INVALID_VERSION"

	// Manifest errors
	CodeManifestNotFound  Code = "MANIFEST_NOT_FOUND"
	CodeManifestMalformed Code = "MANIFEST_MALFORMED"
	CodeManifestWrite     Code = "MANIFEST_WRITE_FAILED"
	CodeVersionRegression Code = "VERSION_REGRESSION"

	// Oracle errors
	CodeOracleTransport   Code = "ORACLE_TRANSPORT"
	CodeOracleUnparseable Code = "ORACLE_UNPARSEABLE"

	// Everything else
	CodeInternal Code = "INTERNAL_ERROR"
)

// Error is a failure with a code and optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to err.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HTTPStatus maps err to the status code the API responds with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument, CodeInvalidVersion:
		return http.StatusBadRequest
	case CodeManifestNotFound:
		return http.StatusNotFound
	case CodeManifestMalformed, CodeVersionRegression:
		return http.StatusUnprocessableEntity
	case CodeOracleTransport, CodeOracleUnparseable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
