package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount rejects non-positive grants before any write.
	ErrInvalidAmount = errors.New("grant amount must be positive")

	// ErrJobIDRequired rejects consumption without a stable idempotency key.
	ErrJobIDRequired = errors.New("job id is required")

	ErrUserNotFound = errors.New("user not found")
)

// InsufficientFundsError is a business failure: the ledger stays untouched.
type InsufficientFundsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

// IsInsufficientFunds reports whether err is an InsufficientFundsError.
func IsInsufficientFunds(err error) bool {
	var target *InsufficientFundsError
	return errors.As(err, &target)
}
