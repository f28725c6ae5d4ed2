package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors returned by services. Handlers map them to HTTP status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrUnbalancedEntry    = errors.New("journal entry is not balanced")
	ErrPeriodClosed       = errors.New("accounting period is closed")
	ErrInvalidState       = errors.New("invalid state")
	ErrDianNotReady       = errors.New("electronic invoicing is not configured")
)

// notFound converts gorm's record-not-found into ErrNotFound naming the entity
func notFound(entity string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", entity, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", entity, err)
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflictError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
