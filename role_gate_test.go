package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-audit"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleGate_Authorize(t *testing.T) {
	issuedAt := time.Now()
	ts := newTestTokenService(t, fixedClock(issuedAt))

	userToken, err := ts.Issue(&auth.StoredIdentity{IdentityID: 2, Name: "user", RoleName: auth.RoleUser})
	require.NoError(t, err)
	adminToken, err := ts.Issue(&auth.StoredIdentity{IdentityID: 1, Name: "admin", RoleName: auth.RoleAdmin})
	require.NoError(t, err)

	expired := newTestTokenService(t, fixedClock(issuedAt.Add(-2*time.Hour)))
	expiredToken, err := expired.Issue(&auth.StoredIdentity{IdentityID: 1, RoleName: auth.RoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		role     string
		decision auth.Decision
		cause    *goerrors.Error
	}{
		{name: "admin token for admin resource", token: adminToken.Value, role: auth.RoleAdmin, decision: auth.DecisionAuthorized},
		{name: "user token for admin resource", token: userToken.Value, role: auth.RoleAdmin, decision: auth.DecisionForbidden},
		{name: "user token for user resource", token: userToken.Value, role: auth.RoleUser, decision: auth.DecisionAuthorized},
		{name: "missing token", token: "", role: auth.RoleAdmin, decision: auth.DecisionUnauthenticated},
		{name: "expired token", token: expiredToken.Value, role: auth.RoleAdmin, decision: auth.DecisionUnauthenticated, cause: auth.ErrTokenExpired},
		{name: "tampered token", token: tamperRole(t, userToken.Value, auth.RoleAdmin), role: auth.RoleAdmin, decision: auth.DecisionUnauthenticated, cause: auth.ErrBadSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			gate := auth.NewRoleGate(newTestTokenService(t, fixedClock(issuedAt))).
				WithLogger(&captureLogger{}).
				WithActivitySink(sink)

			identity, err := gate.Authorize(context.Background(), tt.token, tt.role)
			assert.Equal(t, tt.decision, auth.DecisionOf(err))

			switch tt.decision {
			case auth.DecisionAuthorized:
				require.NoError(t, err)
				assert.Equal(t, tt.role, identity.Role())
				assert.Empty(t, sink.types())
			case auth.DecisionUnauthenticated:
				assert.Nil(t, identity)
				assert.True(t, auth.IsError(err, auth.ErrUnauthenticated))
				if tt.cause != nil {
					assert.True(t, auth.IsError(err, tt.cause))
				}
				assert.Equal(t, []auth.ActivityEventType{auth.ActivityEventAccessDenied}, sink.types())
			case auth.DecisionForbidden:
				assert.Nil(t, identity)
				assert.True(t, auth.IsError(err, auth.ErrForbidden))
				assert.Empty(t, auth.ErrForbidden.Metadata)
				assert.Equal(t, []auth.ActivityEventType{auth.ActivityEventAccessDenied}, sink.types())
			}
		})
	}
}

func TestRoleGate_CustomValidator(t *testing.T) {
	validator := auth.TokenValidatorFunc(func(token string) (auth.AuthClaims, error) {
		if token != "opaque" {
			return nil, errors.New("unknown token")
		}
		return &auth.JWTClaims{UID: "9", UserRole: "Auditor"}, nil
	})

	gate := auth.NewRoleGate(validator)

	identity, err := gate.Authorize(context.Background(), "opaque", "Auditor")
	require.NoError(t, err)
	assert.Equal(t, "9", identity.ID())

	_, err = gate.Authorize(context.Background(), "other", "Auditor")
	assert.Equal(t, auth.DecisionUnauthenticated, auth.DecisionOf(err))
}

func TestRoleGate_LogsInternalReason(t *testing.T) {
	logger := &captureLogger{}
	gate := auth.NewRoleGate(newTestTokenService(t, nil)).WithLogger(logger)

	_, err := gate.Authorize(context.Background(), "garbage", auth.RoleAdmin)
	require.Error(t, err)
	assert.True(t, logger.contains("decision=unauthenticated"))
	assert.True(t, logger.contains("token signature is invalid"))
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "authorized", auth.DecisionAuthorized.String())
	assert.Equal(t, "unauthenticated", auth.DecisionUnauthenticated.String())
	assert.Equal(t, "forbidden", auth.DecisionForbidden.String())
	assert.Equal(t, "unknown", auth.Decision(42).String())
}
