package auth

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenTTL is the lifetime of every issued token.
const TokenTTL = time.Hour

// Token is a signed session token and its validity window.
type Token struct {
	Value     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenService issues and validates HS256 session tokens. The signing key
// is read-only after construction.
type TokenService struct {
	signingKey []byte
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

var _ TokenValidator = (*TokenService)(nil)

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg Config, logger Logger) (*TokenService, error) {
	if cfg == nil || cfg.GetSigningKey() == "" {
		return nil, derive(ErrInvalidConfig, nil, map[string]any{"field": "signing_key"})
	}

	var aud jwt.ClaimStrings
	if a := cfg.GetAudience(); len(a) > 0 {
		aud = make(jwt.ClaimStrings, len(a))
		copy(aud, a)
	}

	return &TokenService{
		signingKey: []byte(cfg.GetSigningKey()),
		issuer:     cfg.GetIssuer(),
		audience:   aud,
		logger:     normalizeLogger(logger),
		now:        time.Now,
	}, nil
}

// WithClock replaces the time source used for iat, exp and expiry checks.
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		ts.now = now
	}
	return ts
}

// Issue signs a token for identity, valid for TokenTTL.
func (ts *TokenService) Issue(identity Identity) (Token, error) {
	if identity == nil || identity.ID() == "" {
		return Token{}, goerrors.New("identity must not be empty", goerrors.CategoryInternal)
	}

	now := ts.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		UID:      identity.ID(),
		UserRole: identity.Role(),
	}

	value, err := ts.SignClaims(claims)
	if err != nil {
		return Token{}, err
	}

	return Token{
		Value:     value,
		IssuedAt:  claims.IssuedAt(),
		ExpiresAt: claims.Expires(),
	}, nil
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenService) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate verifies the signature first and only then the expiry, so a
// forged token is never reported as expired.
func (ts *TokenService) Validate(tokenString string) (AuthClaims, error) {
	return ts.validateWithKey(tokenString, ts.signingKey)
}

func (ts *TokenService) validateWithKey(tokenString string, key []byte) (AuthClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Warn("token service: unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !token.Valid {
		return nil, derive(ErrBadSignature, err, nil)
	}

	exp := claims.Expires()
	if exp.IsZero() {
		return nil, derive(ErrBadSignature, nil, map[string]any{"reason": "missing exp"})
	}
	if !ts.now().Before(exp) {
		return nil, derive(ErrTokenExpired, nil, map[string]any{"expired_at": exp})
	}

	if ts.issuer != "" && claims.Issuer != ts.issuer {
		return nil, derive(ErrBadSignature, nil, map[string]any{"reason": "issuer mismatch"})
	}
	if len(ts.audience) > 0 && !audienceMatches(claims.Audience, ts.audience) {
		return nil, derive(ErrBadSignature, nil, map[string]any{"reason": "audience mismatch"})
	}

	return claims, nil
}

// ValidateRole validates token and requires an exact role match when
// requiredRole is not empty.
func (ts *TokenService) ValidateRole(tokenString, requiredRole string) (*ClaimsIdentity, error) {
	claims, err := ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	if !HasRole(claims, requiredRole) {
		return nil, derive(ErrForbidden, nil, map[string]any{
			"required_role": requiredRole,
			"role":          claims.Role(),
		})
	}
	return NewClaimsIdentity(claims), nil
}

func audienceMatches(got, want jwt.ClaimStrings) bool {
	for _, a := range want {
		if slices.Contains(got, a) {
			return true
		}
	}
	return false
}
