// Package access applies partner scoping from authenticated claims. When a
// request carries no claims (authentication disabled) every partner is visible.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/bibbank/pggateway/pkg/auth"
)

// ErrForbidden reports a caller acting on a partner outside its token's scope.
var ErrForbidden = errors.New("forbidden")

// CheckPartner fails with ErrForbidden when the caller may not act for partnerID.
func CheckPartner(ctx context.Context, partnerID int64) error {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return nil
	}
	if !claims.CanAccessPartner(partnerID) {
		return fmt.Errorf("%w: partner %d is outside the caller's scope", ErrForbidden, partnerID)
	}
	return nil
}

// ScopeQuery returns the partner filter a caller is allowed to run. Tokens bound
// to a partner are pinned to it; asking for another partner is forbidden.
func ScopeQuery(ctx context.Context, requested *int64) (*int64, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok || claims.HasRole(auth.RoleAdmin) || claims.HasRole(auth.RoleOperator) {
		return requested, nil
	}
	if !claims.HasRole(auth.RoleAPIClient) || claims.PartnerID == 0 {
		return nil, fmt.Errorf("%w: token is not bound to a partner", ErrForbidden)
	}
	if requested != nil && *requested != claims.PartnerID {
		return nil, fmt.Errorf("%w: partner %d is outside the caller's scope", ErrForbidden, *requested)
	}
	bound := claims.PartnerID
	return &bound, nil
}

// CanRead reports whether the caller may see a payment of partnerID. Reads of
// foreign payments are reported as not found by callers rather than forbidden.
func CanRead(ctx context.Context, partnerID int64) bool {
	return CheckPartner(ctx, partnerID) == nil
}
