package domain

import "time"

// TransactionStatus represents the current status of a payment transaction.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusApproved TransactionStatus = "APPROVED"
	TransactionStatusDeclined TransactionStatus = "DECLINED"
	TransactionStatusFailed   TransactionStatus = "FAILED"
)

// Terminal reports whether the status is final. A terminal transaction is
// never mutated again.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusApproved || s == TransactionStatusDeclined || s == TransactionStatusFailed
}

// Transaction is the durable record of one payment attempt, keyed by the
// client-chosen idempotency key. Exactly one Transaction exists per key.
type Transaction struct {
	IdempotencyKey string
	AmountMinor    int64
	Currency       string
	InstrumentRef  string
	MerchantRef    string
	Status         TransactionStatus
	AuthCode       string // set only when Status is APPROVED
	FailureReason  string // set only when Status is DECLINED or FAILED
	RetryCount     int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BankOutcome classifies the bank's answer to an authorization request.
type BankOutcome string

const (
	// BankOutcomeApproved means the bank authorized the payment.
	BankOutcomeApproved BankOutcome = "APPROVED"

	// BankOutcomeDeclined means the bank definitively refused the payment.
	// Declines are terminal and never retried.
	BankOutcomeDeclined BankOutcome = "DECLINED"

	// BankOutcomeIndeterminate means the outcome is unknown: timeout,
	// transport failure, or a 5xx-class bank response. Indeterminate is
	// the only retryable outcome.
	BankOutcomeIndeterminate BankOutcome = "INDETERMINATE"
)

// BankAuthorization is the normalized result of one authorization call.
type BankAuthorization struct {
	Outcome  BankOutcome
	AuthCode string // present iff Outcome is APPROVED
	Detail   string // present iff Outcome is DECLINED or INDETERMINATE
}
