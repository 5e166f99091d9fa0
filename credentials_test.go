package auth_test

import (
	"context"
	"errors"
	"testing"

	auth "github.com/goliatone/go-auth-audit"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCredentialVerifier_Verify(t *testing.T) {
	ctx := context.Background()
	verifier := auth.NewCredentialVerifier(auth.NewMemoryIdentityStore(auth.SeedIdentities()...)).
		WithLogger(&captureLogger{})

	tests := []struct {
		name    string
		creds   auth.Credentials
		wantID  int
		wantErr *goerrors.Error
	}{
		{name: "valid admin", creds: auth.Credentials{Username: "admin", Password: "admin"}, wantID: 1},
		{name: "valid user", creds: auth.Credentials{Username: "user", Password: "user"}, wantID: 2},
		{name: "wrong password", creds: auth.Credentials{Username: "user", Password: "nope"}, wantErr: auth.ErrInvalidCredentials},
		{name: "unknown username", creds: auth.Credentials{Username: "ghost", Password: "user"}, wantErr: auth.ErrInvalidCredentials},
		{name: "username is case sensitive", creds: auth.Credentials{Username: "USER", Password: "user"}, wantErr: auth.ErrInvalidCredentials},
		{name: "missing password", creds: auth.Credentials{Username: "user"}, wantErr: auth.ErrMissingCredentials},
		{name: "missing username", creds: auth.Credentials{Password: "user"}, wantErr: auth.ErrMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := verifier.Verify(ctx, tt.creds)
			if tt.wantErr != nil {
				assert.Nil(t, identity)
				assert.True(t, auth.IsError(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, identity.IdentityID)
		})
	}
}

func TestCredentialVerifier_SameMessageForUnknownAndWrong(t *testing.T) {
	ctx := context.Background()
	verifier := auth.NewCredentialVerifier(auth.NewMemoryIdentityStore(auth.SeedIdentities()...))

	_, unknown := verifier.Verify(ctx, auth.Credentials{Username: "ghost", Password: "x"})
	_, wrong := verifier.Verify(ctx, auth.Credentials{Username: "admin", Password: "x"})

	require.Error(t, unknown)
	require.Error(t, wrong)
	assert.Equal(t, unknown.Error(), wrong.Error())
	var richErr *goerrors.Error
	require.True(t, goerrors.As(wrong, &richErr))
	assert.Equal(t, "Invalid username or password", richErr.Message)
}

func TestCredentialVerifier_MissingFieldsSkipStore(t *testing.T) {
	store := &MockIdentityStore{}
	verifier := auth.NewCredentialVerifier(store)

	_, err := verifier.Verify(context.Background(), auth.Credentials{Username: "admin"})
	assert.True(t, auth.IsError(err, auth.ErrMissingCredentials))

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Contains(t, richErr.Metadata["fields"], "password")

	store.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything)
}

func TestCredentialVerifier_StoreFailure(t *testing.T) {
	store := &MockIdentityStore{}
	store.On("FindByUsername", mock.Anything, "admin").Return(nil, errors.New("connection reset"))

	verifier := auth.NewCredentialVerifier(store)
	_, err := verifier.Verify(context.Background(), auth.Credentials{Username: "admin", Password: "admin"})

	require.Error(t, err)
	assert.False(t, auth.IsError(err, auth.ErrInvalidCredentials))
	assert.Equal(t, goerrors.CategoryInternal, auth.CategoryOf(err))
	store.AssertExpectations(t)
}
