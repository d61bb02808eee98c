package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"paymentgateway/internal/domain"
	"paymentgateway/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// AuthorizePaymentRequest is the HTTP request body for authorizing a payment.
type AuthorizePaymentRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	Amount         int64  `json:"amount"` // positive integer minor units
	Currency       string `json:"currency"`
	InstrumentRef  string `json:"instrument_ref"` // opaque token, never raw card data
	MerchantRef    string `json:"merchant_ref"`
}

// TransactionResponse is the HTTP response for payment operations.
type TransactionResponse struct {
	IdempotencyKey string    `json:"idempotency_key"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	AuthCode       string    `json:"auth_code,omitempty"`
	FailureReason  string    `json:"failure_reason,omitempty"`
	RetryCount     int       `json:"retry_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AuthorizePayment handles POST /v1/payments
func (h *PaymentHandler) AuthorizePayment(c *gin.Context) {
	var req AuthorizePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	// The Idempotency-Key header is accepted as an alternative to the
	// body field.
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}
	if req.IdempotencyKey == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "idempotency_key is required"})
		return
	}

	txn, err := h.paymentService.AuthorizePayment(c.Request.Context(), service.AuthorizePaymentRequest{
		IdempotencyKey: req.IdempotencyKey,
		AmountMinor:    req.Amount,
		Currency:       req.Currency,
		InstrumentRef:  req.InstrumentRef,
		MerchantRef:    req.MerchantRef,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTransactionResponse(txn))
}

// GetTransaction handles GET /v1/payments/:key
func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	idempotencyKey := c.Param("key")

	txn, err := h.paymentService.GetTransaction(c.Request.Context(), idempotencyKey)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTransactionResponse(txn))
}

func toTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		IdempotencyKey: txn.IdempotencyKey,
		Amount:         txn.AmountMinor,
		Currency:       txn.Currency,
		Status:         string(txn.Status),
		AuthCode:       txn.AuthCode,
		FailureReason:  txn.FailureReason,
		RetryCount:     txn.RetryCount,
		CreatedAt:      txn.CreatedAt,
		UpdatedAt:      txn.UpdatedAt,
	}
}
