package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error classes. Every DomainError built by the constructors below wraps one
// of these, so callers can branch with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrIdentityProvider = errors.New("identity provider failure")
	ErrNotification     = errors.New("notification failure")
	ErrPersistence      = errors.New("persistence failure")
	ErrMessaging        = errors.New("messaging failure")
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
	kind       error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the error class of e.
func (e *DomainError) Is(target error) bool {
	return e.kind != nil && e.kind == target
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	e := NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
	e.kind = ErrValidation
	return e
}

func NewInvalidCredentials(message string) error {
	e := NewDomainError("INVALID_CREDENTIALS", message, http.StatusBadRequest, nil)
	e.kind = ErrValidation
	return e
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
		kind:       ErrNotFound,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewIdentityProviderError wraps a failed identity provider call.
func NewIdentityProviderError(op string, err error) error {
	return &DomainError{
		Code:       "IDENTITY_PROVIDER_FAILURE",
		Message:    "identity provider rejected " + op,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
		kind:       ErrIdentityProvider,
	}
}

// NewNotificationError wraps a failed notification delivery.
func NewNotificationError(err error) error {
	return &DomainError{
		Code:       "NOTIFICATION_FAILURE",
		Message:    "notification could not be delivered",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
		kind:       ErrNotification,
	}
}

// NewPersistenceError wraps a store failure with the entity and operation.
func NewPersistenceError(entity, op string, err error) error {
	return &DomainError{
		Code:       "PERSISTENCE_FAILURE",
		Message:    fmt.Sprintf("%s %s failed", op, entity),
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
		kind:       ErrPersistence,
	}
}

// NewMessagingError wraps a publish or consume failure.
func NewMessagingError(message string, err error) error {
	return &DomainError{
		Code:       "MESSAGING_FAILURE",
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
		kind:       ErrMessaging,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
