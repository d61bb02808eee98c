package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"paymentgateway/internal/config"
	"paymentgateway/internal/domain"
)

// Client is the interface to the external banking authority.
type Client interface {
	// Authorize submits one authorization request for the transaction and
	// normalizes the bank's answer into a BankAuthorization. Network
	// failures, timeouts and 5xx responses come back as an INDETERMINATE
	// outcome, never as an error: an error return means the request could
	// not even be constructed.
	Authorize(ctx context.Context, txn *domain.Transaction) (*domain.BankAuthorization, error)
}

// HTTPClient submits authorization requests to a bank endpoint over HTTP.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a bank client with a bounded per-call timeout.
func NewHTTPClient(cfg config.BankConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.CallTimeout},
	}
}

// authorizationRequest is the wire format sent to the bank.
type authorizationRequest struct {
	TraceID       string `json:"trace_id"`
	Reference     string `json:"reference"`
	AmountMinor   int64  `json:"amount_minor"`
	Currency      string `json:"currency"`
	InstrumentRef string `json:"instrument_ref"`
	MerchantRef   string `json:"merchant_ref"`
}

// authorizationResponse is the wire format returned by the bank.
type authorizationResponse struct {
	Approved bool   `json:"approved"`
	AuthCode string `json:"auth_code"`
	Reason   string `json:"reason"`
}

// Authorize submits the transaction to the bank's authorization endpoint.
func (c *HTTPClient) Authorize(ctx context.Context, txn *domain.Transaction) (*domain.BankAuthorization, error) {
	reqBody := authorizationRequest{
		TraceID:       uuid.New().String(),
		Reference:     txn.IdempotencyKey,
		AmountMinor:   txn.AmountMinor,
		Currency:      txn.Currency,
		InstrumentRef: txn.InstrumentRef,
		MerchantRef:   txn.MerchantRef,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/authorize", bytes.NewBuffer(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// Timeout or transport failure: the charge outcome is unknown.
		return indeterminate(fmt.Sprintf("bank request failed: %v", err)), nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var body authorizationResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			// A partial or malformed bank response is not evidence the
			// payer was or was not charged.
			return indeterminate(fmt.Sprintf("malformed bank response: %v", err)), nil
		}
		if body.Approved {
			return &domain.BankAuthorization{
				Outcome:  domain.BankOutcomeApproved,
				AuthCode: body.AuthCode,
			}, nil
		}
		reason := body.Reason
		if reason == "" {
			reason = "declined by bank"
		}
		return &domain.BankAuthorization{
			Outcome: domain.BankOutcomeDeclined,
			Detail:  reason,
		}, nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// A 4xx is a definitive bank-side rejection.
		var body authorizationResponse
		reason := fmt.Sprintf("bank rejected request (status %d)", resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Reason != "" {
			reason = body.Reason
		}
		return &domain.BankAuthorization{
			Outcome: domain.BankOutcomeDeclined,
			Detail:  reason,
		}, nil

	default:
		return indeterminate(fmt.Sprintf("bank unavailable (status %d)", resp.StatusCode)), nil
	}
}

func indeterminate(detail string) *domain.BankAuthorization {
	return &domain.BankAuthorization{
		Outcome: domain.BankOutcomeIndeterminate,
		Detail:  detail,
	}
}

// Ensure the interface is satisfied.
var _ Client = (*HTTPClient)(nil)
