// Package cache holds Redis read-through decorators for reference data.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
)

const partnerNamespace = "pg:partner:"

// Store is the subset of redis.UniversalClient the cache needs.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

var _ port.PartnerRepository = (*PartnerRepository)(nil)

// PartnerRepository caches found partners in Redis. Missing partners are not
// cached, and any Redis failure falls through to the inner repository.
type PartnerRepository struct {
	inner  port.PartnerRepository
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

func NewPartnerRepository(inner port.PartnerRepository, store Store, ttl time.Duration, logger *slog.Logger) *PartnerRepository {
	return &PartnerRepository{inner: inner, store: store, ttl: ttl, logger: logger}
}

// NewClient builds a Redis client from an address such as "localhost:6379".
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

type cachedPartner struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

func (r *PartnerRepository) FindByID(ctx context.Context, id int64) (model.Partner, bool, error) {
	key := partnerNamespace + strconv.FormatInt(id, 10)

	raw, err := r.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var c cachedPartner
		if jerr := json.Unmarshal(raw, &c); jerr == nil {
			return model.Partner{ID: c.ID, Code: c.Code, Name: c.Name, Active: c.Active}, true, nil
		}
		r.logger.WarnContext(ctx, "discarding undecodable cached partner", "partner_id", id)
	case !errors.Is(err, redis.Nil):
		r.logger.WarnContext(ctx, "partner cache read failed", "partner_id", id, "error", err)
	}

	partner, found, err := r.inner.FindByID(ctx, id)
	if err != nil || !found {
		return partner, found, err
	}

	payload, err := json.Marshal(cachedPartner{ID: partner.ID, Code: partner.Code, Name: partner.Name, Active: partner.Active})
	if err == nil {
		err = r.store.Set(ctx, key, payload, r.ttl).Err()
	}
	if err != nil {
		r.logger.WarnContext(ctx, "partner cache write failed", "partner_id", id, "error", err)
	}
	return partner, true, nil
}
