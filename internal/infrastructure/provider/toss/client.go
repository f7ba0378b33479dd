// Package toss is the adapter for the Toss Payments key-in card API.
package toss

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
	"github.com/bibbank/pggateway/internal/domain/valueobject"
	"github.com/bibbank/pggateway/internal/infrastructure/provider"
)

const (
	Name = "toss"

	keyInPath        = "/v1/payments/key-in"
	defaultOrderName = "결제"
	maxOrderIDLength = 64
)

var _ port.ProviderClient = (*Client)(nil)

// Config holds the Toss Payments connection settings.
type Config struct {
	BaseURL   string
	SecretKey string
}

// Client approves key-in card payments with Toss Payments.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authHeader string
	matcher    provider.ModuloMatcher
	now        func() time.Time
}

func NewClient(cfg Config, httpClient *http.Client, matcher provider.ModuloMatcher) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.SecretKey+":")),
		matcher:    matcher,
		now:        time.Now,
	}
}

// WithClock overrides the time used for order ids and missing approval times.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

func (c *Client) Name() string { return Name }

func (c *Client) Supports(partnerID int64) bool { return c.matcher.Matches(partnerID) }

type keyInRequest struct {
	Method                 string `json:"method"`
	Amount                 int64  `json:"amount"`
	OrderID                string `json:"orderId"`
	OrderName              string `json:"orderName"`
	CardNumber             string `json:"cardNumber"`
	CardExpirationYear     string `json:"cardExpirationYear"`
	CardExpirationMonth    string `json:"cardExpirationMonth"`
	CardPassword           string `json:"cardPassword"`
	CustomerIdentityNumber string `json:"customerIdentityNumber"`
}

type paymentResponse struct {
	PaymentKey  string    `json:"paymentKey"`
	OrderID     string    `json:"orderId"`
	OrderName   string    `json:"orderName"`
	Status      string    `json:"status"`
	ApprovedAt  *string   `json:"approvedAt"`
	Card        *cardInfo `json:"card"`
	TotalAmount int64     `json:"totalAmount"`
	Method      string    `json:"method"`
}

type cardInfo struct {
	IssuerCode string `json:"issuerCode"`
	Number     string `json:"number"`
	CardType   string `json:"cardType"`
	OwnerType  string `json:"ownerType"`
}

func (c *Client) Approve(ctx context.Context, req port.ApprovalRequest) (port.ApprovalResult, error) {
	if err := provider.RequireCardFields(Name, req); err != nil {
		return port.ApprovalResult{}, err
	}
	if len(req.Expiry) != 4 {
		return port.ApprovalResult{}, model.Validationf("%s requires expiry as MMYY", Name)
	}
	amount, err := provider.AmountUnits(req)
	if err != nil {
		return port.ApprovalResult{}, err
	}

	cardNumber := valueobject.NormalizeCardNumber(req.CardNumber)
	body := keyInRequest{
		Method:                 "카드",
		Amount:                 amount,
		OrderID:                c.newOrderID(),
		OrderName:              valueobject.FirstNonEmpty(req.ProductName, defaultOrderName),
		CardNumber:             cardNumber,
		CardExpirationYear:     req.Expiry[2:4],
		CardExpirationMonth:    req.Expiry[0:2],
		CardPassword:           req.Password,
		CustomerIdentityNumber: customerIdentityNumber(req.BirthDate),
	}

	headers := http.Header{}
	headers.Set("Authorization", c.authHeader)

	status, respBody, err := provider.PostJSON(ctx, c.httpClient, Name, c.baseURL+keyInPath, headers, body)
	if err != nil {
		return port.ApprovalResult{}, err
	}
	if status < 200 || status >= 300 {
		return port.ApprovalResult{}, model.ProviderErrorFromStatus(Name, status, string(respBody))
	}

	var resp paymentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return port.ApprovalResult{}, provider.Malformed(Name, status, respBody, fmt.Errorf("failed to decode response: %w", err))
	}
	if resp.PaymentKey == "" {
		return port.ApprovalResult{}, provider.Malformed(Name, status, respBody, fmt.Errorf("response has no paymentKey"))
	}
	paymentStatus, err := mapStatus(resp.Status)
	if err != nil {
		return port.ApprovalResult{}, provider.Malformed(Name, status, respBody, err)
	}
	approvedAt, err := c.approvedAt(resp.ApprovedAt)
	if err != nil {
		return port.ApprovalResult{}, provider.Malformed(Name, status, respBody, err)
	}

	var reportedLast4 string
	if resp.Card != nil {
		reportedLast4 = lastN(resp.Card.Number, 4)
	}

	return port.ApprovalResult{
		ApprovalCode:    resp.PaymentKey,
		ApprovedAt:      approvedAt,
		MaskedCardLast4: provider.ResolveLast4(reportedLast4, cardNumber, req.CardLast4),
		Status:          paymentStatus,
	}, nil
}

// newOrderID builds an id within Toss's 6 to 64 character alphabet of letters, digits, '-' and '_'.
func (c *Client) newOrderID() string {
	id := fmt.Sprintf("ORDER_%d_%s", c.now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", ""))
	if len(id) > maxOrderIDLength {
		id = id[:maxOrderIDLength]
	}
	return id
}

func (c *Client) approvedAt(raw *string) (time.Time, error) {
	if raw == nil || *raw == "" {
		return c.now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid approvedAt: %w", err)
	}
	return t.UTC(), nil
}

// customerIdentityNumber shortens a YYYYMMDD birth date to YYMMDD. Six digit
// birth dates and ten digit business numbers pass through.
func customerIdentityNumber(birthDate string) string {
	if len(birthDate) == 8 {
		return birthDate[2:]
	}
	return birthDate
}

func mapStatus(status string) (valueobject.PaymentStatus, error) {
	switch status {
	case "DONE":
		return valueobject.PaymentStatusApproved, nil
	case "CANCELED", "PARTIAL_CANCELED", "ABORTED", "EXPIRED":
		return valueobject.PaymentStatusCanceled, nil
	default:
		return valueobject.PaymentStatus{}, fmt.Errorf("unrecognized payment status %q", status)
	}
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
