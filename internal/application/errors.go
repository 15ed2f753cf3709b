package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/oops"

	"github.com/oksasatya/tourguide-auth/pkg/validation"
)

var (
	ErrValidation                 = errors.New("validation failed")
	ErrInvalidCredentials         = errors.New("incorrect email or password")
	ErrUnauthenticated            = errors.New("you are not logged in, please log in to get access")
	ErrForbidden                  = errors.New("you do not have permission to perform this action")
	ErrInvalidOrExpiredResetToken = errors.New("token is invalid or has expired")
	ErrUserNotFound               = errors.New("user not found")
	ErrEmailTaken                 = errors.New("email already in use")
	ErrDeliveryFailure            = errors.New("there was an error sending the email, try again later")
	ErrPersistence                = errors.New("persistence failure")
	ErrStorageUnavailable         = errors.New("photo storage is not configured")
)

// ValidationError carries per-field messages. It matches ErrValidation under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalidField(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// fromValidator converts validator/v10 output into a ValidationError.
func fromValidator(err error) error {
	return &ValidationError{Fields: validation.ToDetails(err)}
}

// persistenceFailure tags a directory error so it classifies as ErrPersistence.
func persistenceFailure(op string, err error) error {
	return oops.
		Code("PERSISTENCE_FAILURE").
		With("operation", op).
		Wrap(fmt.Errorf("%w: %w", ErrPersistence, err))
}
