package service

import (
	"paymentgateway/internal/config"
)

// Policy validates a payment request against business rules. It is
// stateless and deterministic and performs no I/O: a request rejected here
// never reaches the transaction store or the bank.
type Policy struct {
	maxAmountMinor      int64
	maxInstrumentLength int
	currencies          map[string]struct{}
	merchants           map[string]struct{}
}

// NewPolicy creates a Policy from configuration.
func NewPolicy(cfg config.PolicyConfig) *Policy {
	currencies := make(map[string]struct{}, len(cfg.SupportedCurrencies))
	for _, c := range cfg.SupportedCurrencies {
		currencies[c] = struct{}{}
	}

	merchants := make(map[string]struct{}, len(cfg.KnownMerchants))
	for _, m := range cfg.KnownMerchants {
		merchants[m] = struct{}{}
	}

	maxInstrument := cfg.MaxInstrumentLength
	if maxInstrument <= 0 {
		maxInstrument = 64
	}

	return &Policy{
		maxAmountMinor:      cfg.MaxAmountMinor,
		maxInstrumentLength: maxInstrument,
		currencies:          currencies,
		merchants:           merchants,
	}
}

// Evaluate checks the request in order, stopping at the first failure.
func (p *Policy) Evaluate(req AuthorizePaymentRequest) error {
	if req.IdempotencyKey == "" {
		return ErrInvalidIdempotencyKey
	}

	if req.AmountMinor <= 0 {
		return ErrInvalidAmount
	}
	if p.maxAmountMinor > 0 && req.AmountMinor > p.maxAmountMinor {
		return ErrInvalidAmount
	}

	if _, ok := p.currencies[req.Currency]; !ok {
		return ErrUnsupportedCurrency
	}

	if req.InstrumentRef == "" || len(req.InstrumentRef) > p.maxInstrumentLength {
		return ErrInvalidInstrument
	}

	if _, ok := p.merchants[req.MerchantRef]; !ok {
		return ErrUnknownMerchant
	}

	return nil
}
