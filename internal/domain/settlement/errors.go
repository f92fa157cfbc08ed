package settlement

import "errors"

var (
	// ErrConcurrencyConflict means the per-player write race was lost and
	// nothing committed; the caller retries the whole settlement call.
	ErrConcurrencyConflict = errors.New("settlement lost a concurrent write race, retry")

	// ErrGatewayDeclined means the external charge failed; a rejected
	// record was written and a fresh attempt is allowed.
	ErrGatewayDeclined = errors.New("payment gateway declined the charge")

	// ErrGatewayUnavailable means the gateway call itself failed before
	// any money moved; nothing was written.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrUnsupportedType is returned for a payment type this flow does not accept
	ErrUnsupportedType = errors.New("unsupported payment type for this operation")

	ErrInternal = errors.New("internal error")
)
