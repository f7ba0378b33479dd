package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims presented by gateway callers.
type Claims struct {
	jwt.RegisteredClaims
	// PartnerID binds an api_client token to a single partner. Zero means unbound.
	PartnerID int64    `json:"partner_id,omitempty"`
	Roles     []string `json:"roles"`
}

// HasRole checks if the claims include the specified role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// CanAccessPartner reports whether the caller may create or read payments of partnerID.
// Admins and operators see every partner; api clients only the partner they are bound to.
func (c Claims) CanAccessPartner(partnerID int64) bool {
	if c.HasRole(RoleAdmin) || c.HasRole(RoleOperator) {
		return true
	}
	return c.HasRole(RoleAPIClient) && c.PartnerID != 0 && c.PartnerID == partnerID
}

// Role constants
const (
	RoleAdmin     = "admin"
	RoleOperator  = "operator"
	RoleAPIClient = "api_client"
)
