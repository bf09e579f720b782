package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped with the missing entity, e.g. "ebook not found".
	ErrNotFound             = errors.New("not found")
	ErrAlreadyInCart        = errors.New("Item already in cart")
	ErrInvalidQuantityState = errors.New("state must be \"min\" or \"plus\"")
	ErrDuplicate            = errors.New("already exists")
	ErrInvalidInput         = errors.New("invalid input")
)

func notFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
