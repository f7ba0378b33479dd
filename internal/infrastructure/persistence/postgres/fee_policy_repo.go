package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
	pgpkg "github.com/bibbank/pggateway/pkg/postgres"
)

var _ port.FeePolicyRepository = (*FeePolicyRepo)(nil)

// FeePolicyRepo reads versioned fee policies from partner_fee_policy.
type FeePolicyRepo struct {
	db pgpkg.Querier
}

func NewFeePolicyRepo(db pgpkg.Querier) *FeePolicyRepo {
	return &FeePolicyRepo{db: db}
}

func (r *FeePolicyRepo) FindEffective(ctx context.Context, partnerID int64, asOf time.Time) (model.FeePolicy, bool, error) {
	var (
		p        model.FeePolicy
		fixedFee decimal.NullDecimal
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, partner_id, effective_from, percentage, fixed_fee
		FROM partner_fee_policy
		WHERE partner_id = $1 AND effective_from <= $2
		ORDER BY effective_from DESC, id DESC
		LIMIT 1
	`, partnerID, asOf.UTC()).Scan(&p.ID, &p.PartnerID, &p.EffectiveFrom, &p.Percentage, &fixedFee)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.FeePolicy{}, false, nil
		}
		return model.FeePolicy{}, false, fmt.Errorf("query fee policy for partner %d: %w", partnerID, err)
	}

	p.EffectiveFrom = p.EffectiveFrom.UTC()
	if fixedFee.Valid {
		fee := fixedFee.Decimal
		p.FixedFee = &fee
	}
	return p, true, nil
}
