package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNoAvailablePack = errors.New("no available purchase with remaining sessions for this duration")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrEmailNotAllowed = fmt.Errorf("%w: email not allowed", ErrForbidden)
)
