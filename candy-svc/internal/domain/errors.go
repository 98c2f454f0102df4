package domain

import (
	"errors"
	"fmt"
)

var (
	ErrShopClosed       = errors.New("shop is closed")
	ErrInvalidSignature = errors.New("payment event signature verification failed")
	ErrOrderExists      = errors.New("order already recorded")
	ErrOrderNotFound    = errors.New("order not found")
)

type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string { return e.Message }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

type InsufficientStockError struct {
	Item      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Item, e.Requested, e.Available)
}

type ItemNotFoundError struct {
	Item string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %s not found", e.Item)
}

// PersistenceError wraps a store failure with the step that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
