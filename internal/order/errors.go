package order

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrUserNotFound = errors.New("user not found")
	// ErrPersistence wraps repository failures; the placement is compensated
	// before this surfaces, so the caller may retry the whole placement.
	ErrPersistence = errors.New("order persistence failed")
)

// ValidationError rejects a malformed placement before any reservation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProductError names the product that made a placement fail. Unwrap yields
// inventory.ErrNotFound or inventory.ErrInsufficientStock.
type ProductError struct {
	ProductID string
	Err       error
}

func (e *ProductError) Error() string {
	return fmt.Sprintf("product %s: %v", e.ProductID, e.Err)
}

func (e *ProductError) Unwrap() error { return e.Err }

// CompensationError reports stock releases that failed after an abort
// decision: stock is now under-counted for the listed products and needs
// manual reconciliation. Cause is the failure that triggered the abort.
type CompensationError struct {
	Cause  error
	Failed []FailedRelease
}

type FailedRelease struct {
	ProductID string
	Quantity  int
	Err       error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensation failed for %d reservation(s) after: %v", len(e.Failed), e.Cause)
}

func (e *CompensationError) Unwrap() error { return e.Cause }
