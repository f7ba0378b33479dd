package service

import (
	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
)

// ProviderRouter picks the provider that handles a partner's payments.
type ProviderRouter struct {
	clients []port.ProviderClient
}

// NewProviderRouter creates a router over clients. Registration order decides
// ties: the first client that supports a partner wins.
func NewProviderRouter(clients ...port.ProviderClient) *ProviderRouter {
	return &ProviderRouter{clients: clients}
}

// Select returns the first registered client supporting partnerID.
func (r *ProviderRouter) Select(partnerID int64) (port.ProviderClient, error) {
	for _, c := range r.clients {
		if c.Supports(partnerID) {
			return c, nil
		}
	}
	return nil, model.InvalidStatef("no provider for partner %d", partnerID)
}

// Names lists the registered providers in routing order.
func (r *ProviderRouter) Names() []string {
	names := make([]string, 0, len(r.clients))
	for _, c := range r.clients {
		names = append(names, c.Name())
	}
	return names
}
