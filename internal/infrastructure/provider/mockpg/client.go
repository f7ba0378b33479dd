// Package mockpg is an in-process provider that approves every request.
package mockpg

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/bibbank/pggateway/internal/domain/port"
	"github.com/bibbank/pggateway/internal/domain/valueobject"
	"github.com/bibbank/pggateway/internal/infrastructure/provider"
)

const Name = "mock"

var _ port.ProviderClient = (*Client)(nil)

// Client approves without any network call. It serves local development and the
// partners routed to it.
type Client struct {
	matcher provider.ModuloMatcher
	now     func() time.Time
}

func NewClient(matcher provider.ModuloMatcher) *Client {
	return &Client{matcher: matcher, now: time.Now}
}

// WithClock overrides the approval timestamp source.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

func (c *Client) Name() string { return Name }

func (c *Client) Supports(partnerID int64) bool { return c.matcher.Matches(partnerID) }

// Approve returns an APPROVED result with an approval code of the form MMdd plus four random digits.
func (c *Client) Approve(_ context.Context, req port.ApprovalRequest) (port.ApprovalResult, error) {
	now := c.now().UTC()
	return port.ApprovalResult{
		ApprovalCode:    fmt.Sprintf("%s%04d", now.Format("0102"), rand.IntN(10000)),
		ApprovedAt:      now,
		MaskedCardLast4: provider.ResolveLast4("", req.CardNumber, req.CardLast4),
		Status:          valueobject.PaymentStatusApproved,
	}, nil
}
