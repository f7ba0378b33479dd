// Package memory holds in-process repositories used by the memory backend and by tests.
package memory

import (
	"context"
	"sync"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
)

var _ port.PartnerRepository = (*PartnerRepo)(nil)

type PartnerRepo struct {
	mu       sync.RWMutex
	partners map[int64]model.Partner
}

func NewPartnerRepo(partners ...model.Partner) *PartnerRepo {
	r := &PartnerRepo{partners: make(map[int64]model.Partner, len(partners))}
	for _, p := range partners {
		r.partners[p.ID] = p
	}
	return r
}

// Put inserts or replaces a partner.
func (r *PartnerRepo) Put(p model.Partner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partners[p.ID] = p
}

func (r *PartnerRepo) FindByID(_ context.Context, id int64) (model.Partner, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.partners[id]
	return p, ok, nil
}
