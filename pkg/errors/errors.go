package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so clones match their template.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Registration workflow failures. All of them are expected outcomes the caller can act on.
var (
	ErrAlreadyRegistered      = New("ALREADY_REGISTERED", http.StatusConflict, "student already registered for the semester")
	ErrQuotaExceeded          = New("QUOTA_EXCEEDED", http.StatusConflict, "course selection quota exceeded")
	ErrDuplicateSelection     = New("DUPLICATE_SELECTION", http.StatusConflict, "course already selected")
	ErrNotSelected            = New("NOT_SELECTED", http.StatusNotFound, "course not selected")
	ErrSeatUnavailable        = New("SEAT_UNAVAILABLE", http.StatusConflict, "no seat available in course")
	ErrInsufficientSelections = New("INSUFFICIENT_SELECTIONS", http.StatusUnprocessableEntity, "not enough courses selected")
	ErrNoSelections           = New("NO_SELECTIONS", http.StatusNotFound, "no courses found")
	ErrNotRegistered          = New("NOT_REGISTERED", http.StatusPreconditionFailed, "student not registered for the semester")
	ErrPaymentIncomplete      = New("PAYMENT_INCOMPLETE", http.StatusPaymentRequired, "semester fee not paid")
	ErrStudentNotApproved     = New("STUDENT_NOT_APPROVED", http.StatusForbidden, "student admission not approved")
	ErrNoActiveSemester       = New("NO_ACTIVE_SEMESTER", http.StatusPreconditionFailed, "no active semester")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	clone.Details = nil
	return &clone
}

// WithDetails clones err with a message and the context needed to render it precisely.
func WithDetails(err *Error, message string, details map[string]interface{}) *Error {
	clone := Clone(err, message)
	if clone == nil {
		return nil
	}
	if len(details) > 0 {
		clone.Details = make(map[string]interface{}, len(details))
		for k, v := range details {
			clone.Details[k] = v
		}
	}
	return clone
}
