// Package provider holds the pieces shared by the outbound payment provider adapters.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
	"github.com/bibbank/pggateway/internal/domain/valueobject"
)

// maxResponseBytes bounds how much of a provider response is read into memory.
const maxResponseBytes = 1 << 20

// NewHTTPClient returns the client shared by provider adapters. connectTimeout bounds
// dialing and the TLS handshake; readTimeout bounds the wait for response headers.
func NewHTTPClient(connectTimeout, readTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: readTimeout,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
		Timeout:   connectTimeout + readTimeout,
	}
}

// ModuloMatcher selects partners whose id leaves Remainder when divided by Divisor.
type ModuloMatcher struct {
	Divisor   int64
	Remainder int64
}

// Matches reports whether partnerID belongs to this matcher's residue class.
func (m ModuloMatcher) Matches(partnerID int64) bool {
	if m.Divisor <= 0 {
		return false
	}
	return partnerID%m.Divisor == m.Remainder
}

// RequireCardFields checks the card fields every network provider needs.
func RequireCardFields(providerName string, req port.ApprovalRequest) error {
	var missing []string
	if strings.TrimSpace(req.CardNumber) == "" {
		missing = append(missing, "cardNumber")
	}
	if strings.TrimSpace(req.BirthDate) == "" {
		missing = append(missing, "birthDate")
	}
	if strings.TrimSpace(req.Expiry) == "" {
		missing = append(missing, "expiry")
	}
	if strings.TrimSpace(req.Password) == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return model.Validationf("%s requires %s", providerName, strings.Join(missing, ", "))
	}
	return nil
}

// ResolveLast4 picks the masked last four digits for a ledger row: the provider's
// value when it reported one, else the supplied card number, else the caller's last4.
func ResolveLast4(providerValue, cardNumber, cardLast4 string) string {
	local := cardLast4
	if strings.TrimSpace(cardNumber) != "" {
		local = valueobject.CardLast4(cardNumber)
	}
	return valueobject.FirstNonEmpty(providerValue, local)
}

// AmountUnits converts a whole-unit decimal amount to the integer the provider APIs expect.
func AmountUnits(req port.ApprovalRequest) (int64, error) {
	if !req.Amount.IsInteger() {
		return 0, model.Validationf("amount %s must be a whole number", req.Amount)
	}
	return req.Amount.IntPart(), nil
}

// PostJSON sends body to url and returns the status code and raw response body.
// Transport failures are reported as ErrProviderUnavailable.
func PostJSON(ctx context.Context, client *http.Client, providerName, url string, headers http.Header, body any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode %s request: %w", providerName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payload)))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, &model.ProviderError{Provider: providerName, Kind: model.ErrProviderUnavailable, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, &model.ProviderError{
			Provider: providerName, Kind: model.ErrProviderUnavailable, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("failed to read response body: %w", err),
		}
	}
	return resp.StatusCode, respBody, nil
}

// Malformed reports a 2xx response the adapter could not interpret.
func Malformed(providerName string, statusCode int, body []byte, cause error) error {
	return &model.ProviderError{
		Provider:   providerName,
		Kind:       model.ErrProviderUnavailable,
		StatusCode: statusCode,
		Body:       string(body),
		Err:        cause,
	}
}
