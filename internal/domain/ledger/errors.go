package ledger

import "errors"

var (
	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrUnknownPaymentType is returned for a type outside the closed enum
	ErrUnknownPaymentType = errors.New("unknown payment type")

	// ErrInvalidStrikeLevel is returned for a strike level outside 1..3
	ErrInvalidStrikeLevel = errors.New("strike level must be between 1 and 3")

	// ErrRecordNotFound is returned when a payment record doesn't exist
	ErrRecordNotFound = errors.New("payment record not found")

	// ErrTerminalStatus is returned when transitioning a completed or rejected record
	ErrTerminalStatus = errors.New("payment record is terminal and immutable")

	// ErrDuplicateSettlement is returned when the idempotency key already exists
	ErrDuplicateSettlement = errors.New("settlement already recorded for this match")

	ErrInternal = errors.New("internal error")
)
