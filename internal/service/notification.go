package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"paymentgateway/internal/domain"
)

// NotificationType represents the type of domain event emitted.
type NotificationType string

const (
	NotificationPaymentApproved NotificationType = "PAYMENT_APPROVED"
	NotificationPaymentDeclined NotificationType = "PAYMENT_DECLINED"
	NotificationPaymentFailed   NotificationType = "PAYMENT_FAILED"
	NotificationPaymentRejected NotificationType = "PAYMENT_REJECTED"
)

// Notification represents a domain event to be shipped.
type Notification struct {
	Type           NotificationType
	IdempotencyKey string
	MerchantRef    string
	Message        string
	Data           map[string]interface{}
	CreatedAt      time.Time
}

// NotificationService emits payment domain events. The core is agnostic to
// how events are shipped; this implementation writes them to the log.
type NotificationService struct {
	// In a real system, this would publish to a message broker or
	// webhook dispatcher.
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyOutcome emits an event for a transaction that reached a terminal
// status.
func (s *NotificationService) NotifyOutcome(ctx context.Context, txn *domain.Transaction) error {
	var (
		typ NotificationType
		msg string
	)

	switch txn.Status {
	case domain.TransactionStatusApproved:
		typ = NotificationPaymentApproved
		msg = fmt.Sprintf("payment of %d %s approved, auth code %s", txn.AmountMinor, txn.Currency, txn.AuthCode)
	case domain.TransactionStatusDeclined:
		typ = NotificationPaymentDeclined
		msg = fmt.Sprintf("payment of %d %s declined: %s", txn.AmountMinor, txn.Currency, txn.FailureReason)
	case domain.TransactionStatusFailed:
		typ = NotificationPaymentFailed
		msg = fmt.Sprintf("payment of %d %s failed: %s", txn.AmountMinor, txn.Currency, txn.FailureReason)
	default:
		return nil
	}

	return s.send(ctx, Notification{
		Type:           typ,
		IdempotencyKey: txn.IdempotencyKey,
		MerchantRef:    txn.MerchantRef,
		Message:        msg,
		Data: map[string]interface{}{
			"status":      string(txn.Status),
			"retry_count": txn.RetryCount,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyRejected emits an event for a request refused by policy. Rejected
// requests are never persisted, so the log record is the only trace.
func (s *NotificationService) NotifyRejected(ctx context.Context, req AuthorizePaymentRequest, reason error) error {
	return s.send(ctx, Notification{
		Type:           NotificationPaymentRejected,
		IdempotencyKey: req.IdempotencyKey,
		MerchantRef:    req.MerchantRef,
		Message:        fmt.Sprintf("payment request rejected: %v", reason),
		Data: map[string]interface{}{
			"currency": req.Currency,
			"amount":   req.AmountMinor,
		},
		CreatedAt: time.Now(),
	})
}

// send delivers a notification (log implementation).
func (s *NotificationService) send(ctx context.Context, n Notification) error {
	log.Printf("[EVENT] Type=%s, Key=%s, Merchant=%s, Message=%s",
		n.Type, n.IdempotencyKey, n.MerchantRef, n.Message)
	return nil
}
