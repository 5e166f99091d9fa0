package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the claims carried by a session token
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	TokenID() string
	HasRole(role string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	UserRole string `json:"role,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Role returns the role the token was issued for
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// TokenID returns the jti claim
func (c *JWTClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// HasRole is an exact, case-sensitive match.
func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// ClaimsIdentity is the identity rebuilt from a validated token. It is not
// checked against the IdentityStore, so it may be stale for up to TokenTTL.
type ClaimsIdentity struct {
	UserID   string `json:"id"`
	UserRole string `json:"role"`
}

var _ Identity = (*ClaimsIdentity)(nil)

// NewClaimsIdentity builds an identity from token claims.
func NewClaimsIdentity(claims AuthClaims) *ClaimsIdentity {
	return &ClaimsIdentity{
		UserID:   claims.UserID(),
		UserRole: claims.Role(),
	}
}

func (c *ClaimsIdentity) ID() string       { return c.UserID }
func (c *ClaimsIdentity) Username() string { return "" }
func (c *ClaimsIdentity) Role() string     { return c.UserRole }
