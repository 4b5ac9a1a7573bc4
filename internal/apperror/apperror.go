// Package apperror defines the domain error taxonomy shared by services and
// the HTTP boundary. Every error carries a stable code and a human message.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error identifier.
type Code string

// Not-found family.
const (
	CodeNotFound              Code = "NOT_FOUND"
	CodeCategoryNotFound      Code = "CATEGORIA_NOT_FOUND"
	CodePaymentMethodNotFound Code = "MEDIO_NOT_FOUND"
	CodeOptionNotFound        Code = "OPCION_NOT_FOUND"
)

// Validation and inactive-reference family.
const (
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeCategoryInactive      Code = "CATEGORIA_INACTIVE"
	CodePaymentMethodInactive Code = "MEDIO_INACTIVE"
	CodeOptionInactive        Code = "OPCION_INACTIVE"
)

// Conflict family.
const (
	CodeDuplicateName        Code = "DUPLICATE_NAME"
	CodeDuplicateCombination Code = "DUPLICATE_COMBINATION"
	CodeDuplicateUsername    Code = "DUPLICATE_USERNAME"
	CodeHasActiveOptions     Code = "HAS_ACTIVE_OPTIONS"
	CodeHasMovements         Code = "HAS_MOVEMENTS"
)

// Auth family.
const (
	CodeNoToken            Code = "NO_TOKEN"
	CodeInvalidToken       Code = "INVALID_TOKEN"
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeUserInactive       Code = "USER_INACTIVE"
	CodeNotAuthenticated   Code = "NOT_AUTHENTICATED"
	CodeAdminRequired      Code = "ADMIN_REQUIRED"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeEditNotAllowed     Code = "EDIT_NOT_ALLOWED"
)

// CodeInternal is used at the boundary for anything that is not an *Error.
const CodeInternal Code = "INTERNAL_ERROR"

var statusByCode = map[Code]int{
	CodeNotFound:              http.StatusNotFound,
	CodeCategoryNotFound:      http.StatusNotFound,
	CodePaymentMethodNotFound: http.StatusNotFound,
	CodeOptionNotFound:        http.StatusNotFound,

	CodeValidation:            http.StatusBadRequest,
	CodeCategoryInactive:      http.StatusBadRequest,
	CodePaymentMethodInactive: http.StatusBadRequest,
	CodeOptionInactive:        http.StatusBadRequest,

	CodeDuplicateName:        http.StatusConflict,
	CodeDuplicateCombination: http.StatusConflict,
	CodeDuplicateUsername:    http.StatusConflict,
	CodeHasActiveOptions:     http.StatusConflict,
	CodeHasMovements:         http.StatusConflict,

	CodeNoToken:            http.StatusUnauthorized,
	CodeInvalidToken:       http.StatusUnauthorized,
	CodeUserNotFound:       http.StatusUnauthorized,
	CodeUserInactive:       http.StatusForbidden,
	CodeNotAuthenticated:   http.StatusUnauthorized,
	CodeAdminRequired:      http.StatusForbidden,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeEditNotAllowed:     http.StatusForbidden,

	CodeInternal: http.StatusInternalServerError,
}

// Error is a domain error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// New creates a domain error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying cause to a domain error.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code, so errors.Is(err, apperror.New(code, ""))
// works regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Status returns the HTTP status for the error's code.
func (e *Error) Status() int {
	return StatusFor(e.Code)
}

// StatusFor maps a code to its HTTP status. Unknown codes map to 500.
func StatusFor(code Code) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// As extracts a domain error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// Validation is shorthand for a VALIDATION_ERROR.
func Validation(format string, args ...any) *Error {
	return Newf(CodeValidation, format, args...)
}

// NotFound is shorthand for a NOT_FOUND error.
func NotFound(what string) *Error {
	return Newf(CodeNotFound, "%s no encontrado", what)
}
