package auth

// TokenValidator turns a bearer token into claims. RoleGate depends on it
// rather than on a concrete signer.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc lets a plain function act as a TokenValidator. A nil
// func rejects every token.
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrBadSignature
	}
	return f(tokenString)
}

// KeyRing validates tokens during a signing key rotation. New tokens are
// issued with the current key only. Tokens signed with a retired key are
// still accepted until they expire.
type KeyRing struct {
	current *TokenService
	retired [][]byte
}

var _ TokenValidator = (*KeyRing)(nil)

// NewKeyRing wraps current with the retired keys, oldest last. Keys shorter
// than MinSigningKeyLength are rejected.
func NewKeyRing(current *TokenService, retiredKeys ...string) (*KeyRing, error) {
	if current == nil {
		return nil, derive(ErrInvalidConfig, nil, map[string]any{"field": "signing_key"})
	}
	ring := &KeyRing{current: current}
	for i, key := range retiredKeys {
		if len(key) < MinSigningKeyLength {
			return nil, retiredKeyError(i)
		}
		ring.retired = append(ring.retired, []byte(key))
	}
	return ring, nil
}

// Issue signs with the current key.
func (r *KeyRing) Issue(identity Identity) (Token, error) {
	return r.current.Issue(identity)
}

// Validate tries the current key, then each retired key. Only a bad
// signature moves on to the next key; an expired token signed with the
// current key is rejected as expired.
func (r *KeyRing) Validate(tokenString string) (AuthClaims, error) {
	claims, err := r.current.Validate(tokenString)
	if err == nil || !IsMalformedError(err) {
		return claims, err
	}

	for i, key := range r.retired {
		retiredClaims, retiredErr := r.current.validateWithKey(tokenString, key)
		if retiredErr == nil {
			r.current.logger.Debug("token signed with retired key", "key_index", i, "user_id", retiredClaims.UserID())
			return retiredClaims, nil
		}
		if !IsMalformedError(retiredErr) {
			return nil, retiredErr
		}
	}
	return nil, err
}
