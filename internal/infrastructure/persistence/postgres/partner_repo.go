// Package postgres implements the gateway's repositories on PostgreSQL with pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bibbank/pggateway/internal/domain/model"
	"github.com/bibbank/pggateway/internal/domain/port"
	pgpkg "github.com/bibbank/pggateway/pkg/postgres"
)

// Compile-time interface check.
var _ port.PartnerRepository = (*PartnerRepo)(nil)

// PartnerRepo reads partners from the partner table.
type PartnerRepo struct {
	db pgpkg.Querier
}

func NewPartnerRepo(db pgpkg.Querier) *PartnerRepo {
	return &PartnerRepo{db: db}
}

func (r *PartnerRepo) FindByID(ctx context.Context, id int64) (model.Partner, bool, error) {
	var p model.Partner
	err := r.db.QueryRow(ctx, `
		SELECT id, code, name, active FROM partner WHERE id = $1
	`, id).Scan(&p.ID, &p.Code, &p.Name, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Partner{}, false, nil
		}
		return model.Partner{}, false, fmt.Errorf("query partner %d: %w", id, err)
	}
	return p, true, nil
}
