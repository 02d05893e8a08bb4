package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents the claims in a JWT token.
// RegisteredClaims.ID carries the jti used for revocation.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID uint `json:"user_id"`
}

// Principal is the caller of a request, resolved once by the auth middleware
// and passed explicitly to every service call. nil means anonymous.
type Principal struct {
	UserID  uint
	IsStaff bool
	// TokenID is the jti of the presented token.
	TokenID string
}

func (p *Principal) IsAuthenticated() bool {
	return p != nil && p.UserID != 0
}

// ID returns the user id, or 0 for anonymous callers.
func (p *Principal) ID() uint {
	if p == nil {
		return 0
	}
	return p.UserID
}

// CanModify reports whether the principal may change something owned by ownerID.
func (p *Principal) CanModify(ownerID uint) bool {
	return p.IsAuthenticated() && (p.IsStaff || p.UserID == ownerID)
}
