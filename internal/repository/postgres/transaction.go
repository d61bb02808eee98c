package postgres

import (
	"context"
	"database/sql"
	"errors"

	"paymentgateway/internal/domain"
	"paymentgateway/internal/repository"
)

// TransactionStore is a PostgreSQL implementation of
// repository.TransactionStore. Atomicity of GetOrCreate rests on the
// unique index over idempotency_key; Commit is guarded by a status
// predicate so a terminal row is never overwritten.
type TransactionStore struct {
	q Querier
}

// NewTransactionStore creates a new PostgreSQL transaction store.
func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{q: db}
}

// NewTransactionStoreWithTx creates a transaction store using a database transaction.
func NewTransactionStoreWithTx(tx *sql.Tx) *TransactionStore {
	return &TransactionStore{q: tx}
}

const transactionColumns = `
	idempotency_key, amount_minor, currency, instrument_ref, merchant_ref,
	status, auth_code, failure_reason, retry_count, created_at, updated_at
`

// GetOrCreate atomically returns the transaction for the snapshot's key,
// inserting a PENDING row if none exists yet.
func (s *TransactionStore) GetOrCreate(ctx context.Context, snapshot *domain.Transaction) (*domain.Transaction, bool, error) {
	query := `
		INSERT INTO payment_transactions (
			idempotency_key, amount_minor, currency, instrument_ref, merchant_ref,
			status, retry_count, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, 0, NOW(), NOW())
		ON CONFLICT (idempotency_key) DO NOTHING
	`

	result, err := s.q.ExecContext(ctx, query,
		snapshot.IdempotencyKey,
		snapshot.AmountMinor,
		snapshot.Currency,
		snapshot.InstrumentRef,
		snapshot.MerchantRef,
		domain.TransactionStatusPending,
	)
	if err != nil {
		return nil, false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	isNew := rowsAffected == 1

	txn, err := s.Get(ctx, snapshot.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}

	return txn, isNew, nil
}

// Commit transitions a PENDING transaction to a terminal status. The WHERE
// clause only matches PENDING rows, so a lost commit race surfaces as
// ErrInvalidTransition rather than a silent overwrite.
func (s *TransactionStore) Commit(ctx context.Context, idempotencyKey string, outcome repository.Outcome) (*domain.Transaction, error) {
	if !outcome.Status.Terminal() {
		return nil, repository.ErrInvalidTransition
	}

	query := `
		UPDATE payment_transactions
		SET status = $2, auth_code = $3, failure_reason = $4, retry_count = $5, updated_at = NOW()
		WHERE idempotency_key = $1 AND status = $6
	`

	result, err := s.q.ExecContext(ctx, query,
		idempotencyKey,
		outcome.Status,
		nullableString(outcome.AuthCode),
		nullableString(outcome.FailureReason),
		outcome.Attempts,
		domain.TransactionStatusPending,
	)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		// Either the key does not exist or the row is already terminal.
		if _, err := s.Get(ctx, idempotencyKey); err != nil {
			return nil, err
		}
		return nil, repository.ErrInvalidTransition
	}

	return s.Get(ctx, idempotencyKey)
}

// Get retrieves a transaction by idempotency key.
func (s *TransactionStore) Get(ctx context.Context, idempotencyKey string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE idempotency_key = $1`

	var (
		txn           domain.Transaction
		authCode      sql.NullString
		failureReason sql.NullString
	)
	err := s.q.QueryRowContext(ctx, query, idempotencyKey).Scan(
		&txn.IdempotencyKey,
		&txn.AmountMinor,
		&txn.Currency,
		&txn.InstrumentRef,
		&txn.MerchantRef,
		&txn.Status,
		&authCode,
		&failureReason,
		&txn.RetryCount,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	txn.AuthCode = authCode.String
	txn.FailureReason = failureReason.String

	return &txn, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
