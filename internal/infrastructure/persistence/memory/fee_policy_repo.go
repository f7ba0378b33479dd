package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
)

var _ port.FeePolicyRepository = (*FeePolicyRepo)(nil)

type FeePolicyRepo struct {
	mu       sync.RWMutex
	nextID   int64
	policies map[int64][]model.FeePolicy
}

func NewFeePolicyRepo(policies ...model.FeePolicy) *FeePolicyRepo {
	r := &FeePolicyRepo{policies: make(map[int64][]model.FeePolicy)}
	for _, p := range policies {
		r.Add(p)
	}
	return r
}

// Add stores a policy version, assigning an id when it has none.
func (r *FeePolicyRepo) Add(p model.FeePolicy) model.FeePolicy {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		r.nextID++
		p.ID = r.nextID
	} else if p.ID > r.nextID {
		r.nextID = p.ID
	}
	p.EffectiveFrom = p.EffectiveFrom.UTC()
	r.policies[p.PartnerID] = append(r.policies[p.PartnerID], p)
	return p
}

func (r *FeePolicyRepo) FindEffective(_ context.Context, partnerID int64, asOf time.Time) (model.FeePolicy, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best  model.FeePolicy
		found bool
	)
	for _, p := range r.policies[partnerID] {
		if !p.EffectiveAt(asOf) {
			continue
		}
		if !found || p.EffectiveFrom.After(best.EffectiveFrom) ||
			(p.EffectiveFrom.Equal(best.EffectiveFrom) && p.ID > best.ID) {
			best, found = p, true
		}
	}
	return best, found, nil
}
