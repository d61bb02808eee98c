package service

import "errors"

var (
	// ErrInvalidIdempotencyKey is returned when the idempotency key is empty.
	ErrInvalidIdempotencyKey = errors.New("invalid idempotency key")

	// ErrInvalidAmount is returned when the amount is not positive or
	// exceeds the configured limit.
	ErrInvalidAmount = errors.New("invalid payment amount")

	// ErrUnsupportedCurrency is returned when the currency is not in the
	// supported set.
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrInvalidInstrument is returned when the payer instrument reference
	// is empty or malformed.
	ErrInvalidInstrument = errors.New("invalid instrument reference")

	// ErrUnknownMerchant is returned when the merchant reference is not
	// eligible for payments.
	ErrUnknownMerchant = errors.New("unknown merchant")
)

// validationErrors lists every policy rejection. Requests failing any of
// these are refused before a transaction is created or the bank is called.
var validationErrors = []error{
	ErrInvalidIdempotencyKey,
	ErrInvalidAmount,
	ErrUnsupportedCurrency,
	ErrInvalidInstrument,
	ErrUnknownMerchant,
}

// IsValidationError reports whether err is a policy rejection.
func IsValidationError(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
