// Package errors defines the coded errors every storefront layer returns and
// how each code is presented over HTTP.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

// Generic codes.
const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeIdempotency  Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
)

// Checkout codes.
const (
	CodeEmptyOrder        Code = "EMPTY_ORDER"
	CodeProductNotFound   Code = "PRODUCT_NOT_FOUND"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeOrderNotFound     Code = "ORDER_NOT_FOUND"
)

// Metadata is the HTTP presentation of a code. PublicMessage replaces the
// error's own message for 5xx codes.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

const (
	withDetails = true
	noDetails   = false
)

func meta(status int, msg string, details bool) Metadata {
	return Metadata{
		HTTPStatus:     status,
		Retryable:      status >= http.StatusInternalServerError,
		PublicMessage:  msg,
		DetailsAllowed: details,
	}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:   meta(http.StatusBadRequest, "validation failed", withDetails),
	CodeUnauthorized: meta(http.StatusUnauthorized, "authentication required", noDetails),
	CodeForbidden:    meta(http.StatusForbidden, "access denied", noDetails),
	CodeNotFound:     meta(http.StatusNotFound, "resource not found", noDetails),
	CodeConflict:     meta(http.StatusConflict, "conflict detected", noDetails),
	CodeIdempotency:  meta(http.StatusConflict, "idempotency key reused", withDetails),
	CodeRateLimit:    meta(http.StatusTooManyRequests, "rate limit exceeded", noDetails),
	CodeInternal:     meta(http.StatusInternalServerError, "internal server error", noDetails),
	CodeDependency:   meta(http.StatusServiceUnavailable, "dependency unavailable", withDetails),

	CodeEmptyOrder:        meta(http.StatusBadRequest, "no order items", noDetails),
	CodeProductNotFound:   meta(http.StatusNotFound, "product not found", withDetails),
	CodeInsufficientStock: meta(http.StatusBadRequest, "insufficient stock", withDetails),
	CodeOrderNotFound:     meta(http.StatusNotFound, "order not found", noDetails),
}

// MetadataFor falls back to INTERNAL_ERROR for unknown codes.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error with an optional client-visible details payload.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap keeps err reachable through errors.Is and errors.As.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is reports whether the outermost coded error in err's chain has code.
func Is(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// StatusOf maps any error to the HTTP status it would be written with.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return MetadataFor(As(err).Code()).HTTPStatus
}
