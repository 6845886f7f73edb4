// Package apperr holds the error taxonomy shared by the intake pipeline and
// the owner API. Every error that should reach a client with a specific
// status is an *Error; anything else is treated as an internal failure by
// the top-level fiber error handler.
package apperr

import (
	"fmt"
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// Kind classifies an Error
type Kind int

// Constants for Kind
const (
	KindInternal Kind = iota
	KindValidation
	KindRateLimit
	KindAuthentication
	KindAuthorization
	KindForbidden
	KindNotFound
	KindConflict
	KindDependency
)

// String returns a short name for the kind, used in logs
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRateLimit:
		return "rate_limit"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindDependency:
		return "dependency"
	default:
		return "internal"
	}
}

// Status returns the http status code for the kind
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindRateLimit:
		return fiber.StatusTooManyRequests
	case KindAuthentication:
		return fiber.StatusUnauthorized
	case KindAuthorization:
		return fiber.StatusPaymentRequired
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict:
		return fiber.StatusConflict
	case KindDependency:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// FieldErrors maps a field name to the ordered list of violation messages
// for that field.
type FieldErrors map[string][]string

// Add appends a message for a field
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Empty reports whether no field has a violation
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// Fields returns the names of all fields with violations in sorted order
func (fe FieldErrors) Fields() []string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Error is the error type carried from the core to the http layer
type Error struct {
	Kind    Kind
	Message string
	// FormErrors and FieldErrors are only set for KindValidation
	FormErrors  []string
	FieldErrors FieldErrors
	cause       error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.cause)
	}
	if e.Kind == KindValidation && e.Message == "" {
		return fmt.Sprintf("validation failed for fields %v", e.FieldErrors.Fields())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// Status returns the http status code for this error
func (e *Error) Status() int {
	return e.Kind.Status()
}

// Validation returns a validation error from form-level and field-level
// violations.
func Validation(formErrors []string, fieldErrors FieldErrors) *Error {
	if formErrors == nil {
		formErrors = []string{}
	}
	if fieldErrors == nil {
		fieldErrors = FieldErrors{}
	}
	return &Error{
		Kind:        KindValidation,
		FormErrors:  formErrors,
		FieldErrors: fieldErrors,
	}
}

// InvalidField returns a validation error for a single field
func InvalidField(field, msg string) *Error {
	fe := FieldErrors{}
	fe.Add(field, msg)
	return Validation(nil, fe)
}

// New returns an Error of the given kind
func New(kind Kind, msg string) *Error {
	return &Error{
		Kind:    kind,
		Message: msg,
	}
}

// Wrap returns an Error of the given kind that wraps cause
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{
		Kind:    kind,
		Message: msg,
		cause:   cause,
	}
}

// RateLimited returns the uniform rate limit rejection
func RateLimited() *Error {
	return New(KindRateLimit, "Rate limit exceeded. Please retry later.")
}

// Unauthenticated returns an authentication error
func Unauthenticated(msg string) *Error {
	return New(KindAuthentication, msg)
}

// Unauthorized returns an authorization error for valid credentials that
// are not allowed to use the service
func Unauthorized(msg string) *Error {
	return New(KindAuthorization, msg)
}

// NotFound returns a not found error
func NotFound(msg string) *Error {
	return New(KindNotFound, msg)
}

// Conflict returns a conflict error
func Conflict(msg string) *Error {
	return New(KindConflict, msg)
}

// Dependency returns an error for an unavailable dependency
func Dependency(cause error, msg string) *Error {
	return Wrap(KindDependency, cause, msg)
}

// As extracts an *Error from err
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
