package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized means the authenticated caller may not act for the requested user.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned for documents that do not exist or lie outside the caller's scope.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidTransition is returned when a document's current status forbids the requested change.
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrNoActiveLease = &ValidationError{Message: "no lease found for tenant, please ensure you have an active lease"}
	ErrInvalidRole   = &ValidationError{Message: "invalid role"}
	ErrFileTooLarge  = &ValidationError{Message: fmt.Sprintf("file size must not exceed %d bytes (10MB)", MaxFileSize)}
)

// ValidationError carries a message that is safe to show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
