package credits

import "errors"

var (
	// ErrInsufficientCredits is returned when a debit exceeds the balance
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrReferenceConflict is returned when a reference is reused with a different amount
	ErrReferenceConflict = errors.New("reference_id already used with a different amount")

	ErrInternal = errors.New("internal error")
)
