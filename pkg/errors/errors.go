package errors

import (
	stdErrors "errors"
	"net/http"
)

// Code is the stable machine-readable identifier sent to clients.
type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeForbidden      Code = "FORBIDDEN"
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT"
	CodeStateConflict  Code = "STATE_CONFLICT"
	CodeIdempotency    Code = "IDEMPOTENCY_KEY_REUSED"
	CodeStockShortage  Code = "STOCK_SHORTFALL"
	CodeOrderNotPlaced Code = "ORDER_NOT_PLACED"
	CodeRateLimit      Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal       Code = "INTERNAL_ERROR"
	CodeDependency     Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is rendered on the wire.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

func meta(status int, public string, retryable, details bool) Metadata {
	return Metadata{HTTPStatus: status, Retryable: retryable, PublicMessage: public, DetailsAllowed: details}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:     meta(http.StatusBadRequest, "validation failed", false, true),
	CodeUnauthorized:   meta(http.StatusUnauthorized, "authentication required", false, false),
	CodeForbidden:      meta(http.StatusForbidden, "access denied", false, false),
	CodeNotFound:       meta(http.StatusNotFound, "resource not found", false, false),
	CodeConflict:       meta(http.StatusConflict, "conflict detected", false, false),
	CodeStateConflict:  meta(http.StatusUnprocessableEntity, "state transition disallowed", false, true),
	CodeIdempotency:    meta(http.StatusConflict, "idempotency key reused", false, true),
	CodeStockShortage:  meta(http.StatusConflict, "some items are no longer available in the requested quantity", false, true),
	CodeOrderNotPlaced: meta(http.StatusServiceUnavailable, "order could not be placed, please try again", true, true),
	CodeRateLimit:      meta(http.StatusTooManyRequests, "rate limit exceeded", false, false),
	CodeInternal:       meta(http.StatusInternalServerError, "internal server error", true, false),
	CodeDependency:     meta(http.StatusServiceUnavailable, "dependency unavailable", true, true),
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error with an optional cause and client-safe details.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
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
	return string(e.code) + ": " + e.message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in the chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether the outermost *Error in the chain carries code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}
