package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// CredentialVerifier checks credentials against an IdentityStore.
//
// Unknown usernames and wrong secrets produce the same error. The secret
// comparison is not constant time.
type CredentialVerifier struct {
	store  IdentityStore
	logger Logger
}

// NewCredentialVerifier returns a verifier backed by store.
func NewCredentialVerifier(store IdentityStore) *CredentialVerifier {
	return &CredentialVerifier{
		store:  store,
		logger: defLogger{},
	}
}

func (v *CredentialVerifier) WithLogger(logger Logger) *CredentialVerifier {
	v.logger = normalizeLogger(logger)
	return v
}

// Verify returns the stored identity for valid credentials.
func (v *CredentialVerifier) Verify(ctx context.Context, creds Credentials) (*StoredIdentity, error) {
	if err := creds.Validate(); err != nil {
		return nil, validationError(ErrMissingCredentials, err)
	}

	identity, err := v.store.FindByUsername(ctx, creds.Username)
	if err != nil {
		if IsError(err, ErrIdentityNotFound) {
			v.logger.Debug("verify credentials: unknown username", "username", creds.Username)
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "identity lookup failed")
	}

	if identity.Secret != creds.Password {
		v.logger.Debug("verify credentials: secret mismatch", "username", creds.Username)
		return nil, ErrInvalidCredentials
	}

	return identity, nil
}
