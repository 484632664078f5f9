package service

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("wrong password")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// ValidationError is a client error tied to one request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a missing resource. Field is set when the id came
// from a request body rather than the URL.
type NotFoundError struct {
	Resource string
	Field    string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func notFound(resource string) error {
	return &NotFoundError{Resource: resource}
}
