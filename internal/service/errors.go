package service

import (
	"errors"
	"fmt"
)

// ErrValidation and ErrProvider are sentinel errors the service uses when
// classifying send failures. Validation errors are rejected before any
// external call; provider errors surface upstream delivery failures and
// never crash the service.
var (
	ErrValidation = errors.New("validation error")
	ErrProvider   = errors.New("provider error")
)

// WrapValidation annotates an error so callers can detect input failures.
func WrapValidation(err error) error {
	if err == nil {
		return ErrValidation
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// WrapProvider annotates an error as an upstream provider failure.
func WrapProvider(err error) error {
	if err == nil {
		return ErrProvider
	}
	return fmt.Errorf("%w: %v", ErrProvider, err)
}
