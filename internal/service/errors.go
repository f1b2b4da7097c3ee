package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation") // 400

	ErrCodeNotFound      = errors.New("discount code not found")
	ErrCodeInactive      = errors.New("discount code inactive")
	ErrCodeExpired       = errors.New("discount code expired")
	ErrUsageLimitReached = errors.New("discount usage limit reached")
	ErrBelowMinimum      = errors.New("cart total below minimum")

	ErrConflict      = errors.New("conflict")
	ErrNotFound      = errors.New("not found")
	ErrNotAuthorized = errors.New("not authorized")

	ErrEmptyCart     = errors.New("cart is empty")
	ErrPaymentFailed = errors.New("payment failed")
)

// BelowMinimumError carries the code's minimum so the caller can render it.
type BelowMinimumError struct {
	Minimum int64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("cart total below minimum of %d", e.Minimum)
}

func (e *BelowMinimumError) Is(target error) bool {
	return target == ErrBelowMinimum
}
