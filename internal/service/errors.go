package service

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrTicketNotFound = errors.New("invalid ticket")
	ErrTicketUsed     = errors.New("ticket already scanned")

	ErrInvalidQuantity    = errors.New("quantity must be between 1 and 5")
	ErrCapacityExceeded   = errors.New("not enough tickets left")
	ErrInvalidCredentials = errors.New("wrong username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAlreadyWaitlisted  = errors.New("already on the waitlist")
	ErrEventNotSoldOut    = errors.New("event still has tickets available")
	ErrCapacityBelowSold  = errors.New("capacity cannot drop below tickets already sold")
	ErrForbidden          = errors.New("operation not allowed for this role")
)

// CapacityExceededError carries the remaining-seat count surfaced to the
// caller at admission time. errors.Is(err, ErrCapacityExceeded) matches it.
type CapacityExceededError struct {
	Remaining int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("sold out: only %d tickets left", e.Remaining)
}

func (e *CapacityExceededError) Is(target error) bool {
	return target == ErrCapacityExceeded
}
