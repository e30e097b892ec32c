package service

import (
	"errors"
	"fmt"
	"log/slog"

	"review-central/internal/repository"
	"review-central/pkg/validator"
)

var (
	// ErrNotFound is returned when a requested entity does not exist
	ErrNotFound = repository.ErrNotFound
	// ErrDuplicateEmail is returned when another user already owns the email
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrSelfAssignment is returned when reviewer and reviewee are the same person
	ErrSelfAssignment = errors.New("reviewer and reviewee must be different users")
	// ErrForbidden is returned when the caller does not own the resource
	ErrForbidden = errors.New("not allowed to access this resource")
)

// ValidationError reports input that was rejected before any write
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// validate runs the struct tag rules and converts the result
func validate(v any) error {
	if err := validator.ValidateStruct(v); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

// IsValidation reports whether err is a *ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// degrade turns a missing-table error into an empty result. Any other error
// is returned unchanged.
func degrade[T any](op string, items []T, err error) ([]T, error) {
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotReady) {
			slog.Warn("Store not ready, returning empty result", "operation", op, "error", err)
			return []T{}, nil
		}
		return nil, err
	}
	if items == nil {
		return []T{}, nil
	}
	return items, nil
}
