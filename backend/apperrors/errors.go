// Package apperrors defines the error taxonomy shared by services and
// controllers. Every error crossing a service boundary carries a Kind so
// handlers can map it to an HTTP status without inspecting messages.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindState
	KindNotFound
	KindExternal
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindState:
		return "state"
	case KindNotFound:
		return "not_found"
	case KindExternal:
		return "external"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Message string
	// Fields holds field-level validation messages, keyed by field name.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

func State(message string) *Error {
	return &Error{Kind: KindState, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func External(message string, err error) *Error {
	return &Error{Kind: KindExternal, Message: message, Err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the Kind of err, or KindUnknown for errors from
// outside the taxonomy.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// FieldsOf returns the field error map of err, or nil.
func FieldsOf(err error) map[string]string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

// HTTPStatus maps an error to the response status used by controllers.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindAuth:
		return http.StatusUnauthorized
	case KindState:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
