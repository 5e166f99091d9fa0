package auth

import "context"

// Decision is the outcome of a RoleGate check.
type Decision int

const (
	DecisionAuthorized Decision = iota
	DecisionUnauthenticated
	DecisionForbidden
)

func (d Decision) String() string {
	switch d {
	case DecisionAuthorized:
		return "authorized"
	case DecisionUnauthenticated:
		return "unauthenticated"
	case DecisionForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// DecisionOf maps an Authorize error to its Decision.
func DecisionOf(err error) Decision {
	switch {
	case err == nil:
		return DecisionAuthorized
	case IsError(err, ErrForbidden):
		return DecisionForbidden
	default:
		return DecisionUnauthenticated
	}
}

// RoleGate guards resources that require a role. The token is always
// passed explicitly by the caller.
type RoleGate struct {
	validator    TokenValidator
	logger       Logger
	activitySink ActivitySink
}

// NewRoleGate returns a gate that validates tokens with validator.
func NewRoleGate(validator TokenValidator) *RoleGate {
	return &RoleGate{
		validator:    validator,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (g *RoleGate) WithLogger(logger Logger) *RoleGate {
	g.logger = normalizeLogger(logger)
	return g
}

// WithActivitySink configures an ActivitySink for access denied events.
func (g *RoleGate) WithActivitySink(sink ActivitySink) *RoleGate {
	g.activitySink = normalizeActivitySink(sink)
	return g
}

// Authorize validates token and checks it carries requiredRole.
//
// Missing, malformed, tampered or expired tokens return an error matching
// ErrUnauthenticated; the underlying reason stays in the error chain. A
// valid token with a different role returns ErrForbidden.
func (g *RoleGate) Authorize(ctx context.Context, token, requiredRole string) (*ClaimsIdentity, error) {
	if token == "" {
		g.deny(ctx, DecisionUnauthenticated, requiredRole, "", "missing token")
		return nil, ErrUnauthenticated
	}

	claims, err := g.validator.Validate(token)
	if err != nil {
		g.deny(ctx, DecisionUnauthenticated, requiredRole, "", err.Error())
		return nil, derive(ErrUnauthenticated, err, nil)
	}

	if !HasRole(claims, requiredRole) {
		g.deny(ctx, DecisionForbidden, requiredRole, claims.UserID(), "role mismatch")
		return nil, derive(ErrForbidden, nil, map[string]any{
			"required_role": requiredRole,
			"role":          claims.Role(),
		})
	}

	return NewClaimsIdentity(claims), nil
}

func (g *RoleGate) deny(ctx context.Context, decision Decision, requiredRole, userID, reason string) {
	g.logger.Info("access denied",
		"decision", decision.String(),
		"required_role", requiredRole,
		"user_id", userID,
		"reason", reason,
	)
	emitActivity(ctx, g.activitySink, g.logger, ActivityEvent{
		EventType: ActivityEventAccessDenied,
		UserID:    userID,
		Metadata: map[string]any{
			"decision":      decision.String(),
			"required_role": requiredRole,
			"reason":        reason,
		},
	})
}
