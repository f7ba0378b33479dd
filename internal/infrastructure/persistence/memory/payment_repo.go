package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
)

var _ port.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo keeps the ledger in a slice. Domain events are dropped on save.
type PaymentRepo struct {
	mu       sync.RWMutex
	nextID   int64
	payments []model.Payment
	now      func() time.Time
}

func NewPaymentRepo() *PaymentRepo {
	return &PaymentRepo{now: time.Now}
}

// WithClock overrides the source of created_at.
func (r *PaymentRepo) WithClock(now func() time.Time) *PaymentRepo {
	r.now = now
	return r
}

func (r *PaymentRepo) Save(_ context.Context, payment model.Payment) (model.Payment, error) {
	if payment.IsPersisted() {
		return model.Payment{}, model.InvalidStatef("payment %d is already stored", payment.ID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := payment.Persisted(r.nextID, r.now().UTC().Truncate(time.Millisecond))
	r.payments = append(r.payments, stored.ClearDomainEvents())
	return stored, nil
}

func (r *PaymentRepo) FindByID(_ context.Context, id int64) (model.Payment, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.payments {
		if p.ID() == id {
			return p, true, nil
		}
	}
	return model.Payment{}, false, nil
}

func (r *PaymentRepo) FindPage(_ context.Context, filter port.PaymentFilter, page port.PageRequest) ([]model.Payment, error) {
	r.mu.RLock()
	matched := r.matching(filter)
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return newerFirst(matched[i], matched[j]) })

	out := make([]model.Payment, 0, page.Limit+1)
	for _, p := range matched {
		if page.After != nil && !isAfter(p, page.After.CreatedAt, page.After.ID) {
			continue
		}
		out = append(out, p)
		if len(out) == page.Limit+1 {
			break
		}
	}
	return out, nil
}

func (r *PaymentRepo) Summary(_ context.Context, filter port.PaymentFilter) (model.PaymentSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := model.EmptySummary()
	for _, p := range r.matching(filter) {
		s.Count++
		s.TotalAmount = s.TotalAmount.Add(p.Amount())
		s.TotalNetAmount = s.TotalNetAmount.Add(p.NetAmount())
	}
	return s, nil
}

// matching must be called with r.mu held.
func (r *PaymentRepo) matching(f port.PaymentFilter) []model.Payment {
	var out []model.Payment
	for _, p := range r.payments {
		if f.PartnerID != nil && p.PartnerID() != *f.PartnerID {
			continue
		}
		if f.Status != nil && p.Status() != *f.Status {
			continue
		}
		if f.From != nil && p.CreatedAt().Before(*f.From) {
			continue
		}
		if f.To != nil && p.CreatedAt().After(*f.To) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func newerFirst(a, b model.Payment) bool {
	if !a.CreatedAt().Equal(b.CreatedAt()) {
		return a.CreatedAt().After(b.CreatedAt())
	}
	return a.ID() > b.ID()
}

// isAfter reports whether p sorts strictly after the (createdAt, id) position.
func isAfter(p model.Payment, createdAt time.Time, id int64) bool {
	return p.CreatedAt().Before(createdAt) || (p.CreatedAt().Equal(createdAt) && p.ID() < id)
}
