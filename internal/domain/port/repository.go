package port

import (
	"context"
	"time"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/valueobject"
)

// PartnerRepository reads partner reference data.
type PartnerRepository interface {
	// FindByID returns the partner, or found=false when it does not exist.
	FindByID(ctx context.Context, id int64) (partner model.Partner, found bool, err error)
}

// FeePolicyRepository reads versioned partner fee policies.
type FeePolicyRepository interface {
	// FindEffective returns the policy with the latest effective-from not after asOf.
	FindEffective(ctx context.Context, partnerID int64, asOf time.Time) (policy model.FeePolicy, found bool, err error)
}

// PaymentFilter narrows payment queries. Nil fields do not filter; From and To are inclusive.
type PaymentFilter struct {
	PartnerID *int64
	Status    *valueobject.PaymentStatus
	From      *time.Time
	To        *time.Time
}

// PageRequest selects one page in (createdAt DESC, id DESC) order.
type PageRequest struct {
	// After resumes strictly after this position. Nil starts at the newest payment.
	After *valueobject.Cursor
	Limit int
}

// PaymentRepository stores the payment ledger.
type PaymentRepository interface {
	// Save inserts a new payment and returns it with identity and timestamps assigned.
	// Identity assignment and visibility are atomic.
	Save(ctx context.Context, payment model.Payment) (model.Payment, error)
	// FindByID retrieves a payment by id, or found=false.
	FindByID(ctx context.Context, id int64) (payment model.Payment, found bool, err error)
	// FindPage returns up to page.Limit+1 payments so callers can detect a next page.
	FindPage(ctx context.Context, filter PaymentFilter, page PageRequest) ([]model.Payment, error)
	// Summary aggregates every payment matching filter, ignoring pagination.
	Summary(ctx context.Context, filter PaymentFilter) (model.PaymentSummary, error)
}
