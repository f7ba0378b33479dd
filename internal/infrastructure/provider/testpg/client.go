// Package testpg is the adapter for the TestPG card API, which takes the card
// fields as one AES-GCM encrypted token.
package testpg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
	"github.com/bibbank/pggateway/internal/domain/valueobject"
	"github.com/bibbank/pggateway/internal/infrastructure/provider"
)

const (
	Name = "testpg"

	approvePath = "/api/v1/pay/credit-card"
	// approvedAt arrives as an ISO local date-time and is taken as UTC.
	approvedAtLayout = "2006-01-02T15:04:05"
)

var _ port.ProviderClient = (*Client)(nil)

// Config holds the TestPG connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	IV      string
}

// Client approves payments against TestPG.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	encryptor  *Encryptor
	matcher    provider.ModuloMatcher
}

// NewClient fails when the API key or IV cannot build an encryptor.
func NewClient(cfg Config, httpClient *http.Client, matcher provider.ModuloMatcher) (*Client, error) {
	enc, err := NewEncryptor(cfg.APIKey, cfg.IV)
	if err != nil {
		return nil, err
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		encryptor:  enc,
		matcher:    matcher,
	}, nil
}

func (c *Client) Name() string { return Name }

func (c *Client) Supports(partnerID int64) bool { return c.matcher.Matches(partnerID) }

type cardPayload struct {
	CardNumber string `json:"cardNumber"`
	BirthDate  string `json:"birthDate"`
	Expiry     string `json:"expiry"`
	Password   string `json:"password"`
	Amount     int64  `json:"amount"`
}

type approveRequest struct {
	Enc string `json:"enc"`
}

type approveResponse struct {
	ApprovalCode    string `json:"approvalCode"`
	ApprovedAt      string `json:"approvedAt"`
	MaskedCardLast4 string `json:"maskedCardLast4"`
	Amount          int64  `json:"amount"`
	Status          string `json:"status"`
}

func (c *Client) Approve(ctx context.Context, req port.ApprovalRequest) (port.ApprovalResult, error) {
	if err := provider.RequireCardFields(Name, req); err != nil {
		return port.ApprovalResult{}, err
	}
	amount, err := provider.AmountUnits(req)
	if err != nil {
		return port.ApprovalResult{}, err
	}

	plaintext, err := json.Marshal(cardPayload{
		CardNumber: req.CardNumber,
		BirthDate:  req.BirthDate,
		Expiry:     req.Expiry,
		Password:   req.Password,
		Amount:     amount,
	})
	if err != nil {
		return port.ApprovalResult{}, fmt.Errorf("failed to encode card payload: %w", err)
	}

	headers := http.Header{}
	headers.Set("API-KEY", c.apiKey)

	status, body, err := provider.PostJSON(ctx, c.httpClient, Name, c.baseURL+approvePath, headers,
		approveRequest{Enc: c.encryptor.Seal(plaintext)})
	if err != nil {
		return port.ApprovalResult{}, err
	}
	if status < 200 || status >= 300 {
		return port.ApprovalResult{}, statusError(status, body)
	}

	var resp approveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return port.ApprovalResult{}, provider.Malformed(Name, status, body, fmt.Errorf("failed to decode response: %w", err))
	}
	if resp.ApprovalCode == "" {
		return port.ApprovalResult{}, provider.Malformed(Name, status, body, fmt.Errorf("response has no approval code"))
	}
	approvedAt, err := time.ParseInLocation(approvedAtLayout, resp.ApprovedAt, time.UTC)
	if err != nil {
		return port.ApprovalResult{}, provider.Malformed(Name, status, body, fmt.Errorf("invalid approvedAt: %w", err))
	}

	return port.ApprovalResult{
		ApprovalCode:    resp.ApprovalCode,
		ApprovedAt:      approvedAt,
		MaskedCardLast4: provider.ResolveLast4(resp.MaskedCardLast4, req.CardNumber, req.CardLast4),
		Status:          valueobject.PaymentStatusApproved,
	}, nil
}

// statusError maps a non-2xx TestPG answer. Only 422 and 401 carry meaning;
// every other status is treated as the provider being unavailable.
func statusError(status int, body []byte) *model.ProviderError {
	kind := model.ErrProviderUnavailable
	switch status {
	case http.StatusUnprocessableEntity:
		kind = model.ErrProviderRejected
	case http.StatusUnauthorized:
		kind = model.ErrProviderAuth
	}
	return &model.ProviderError{Provider: Name, Kind: kind, StatusCode: status, Body: string(body)}
}
