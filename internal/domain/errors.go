package domain

import (
	"errors"
	"maps"
	"slices"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrRejectedAsFake       = errors.New("the article is detected as fake and cannot be published")
	ErrTopicNotFound        = errors.New("topic not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrArticleNotFound      = errors.New("article not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden: insufficient role")
)

// ValidationError lists field level problems. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	msg := ErrValidation.Error() + ":"
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		msg += " " + e.Fields[k] + ";"
	}
	return msg[:len(msg)-1]
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
