package auth

import (
	"context"
	"strings"
)

// Auther ties the identity registry, credential verification and token
// issuance together for the login and registration flows.
type Auther struct {
	store        IdentityStore
	verifier     *CredentialVerifier
	tokenService *TokenService
	logger       Logger
	activitySink ActivitySink
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User  string `json:"user"`
	Token string `json:"token"`
	Info  Token  `json:"-"`
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(store IdentityStore, tokenService *TokenService) *Auther {
	return &Auther{
		store:        store,
		verifier:     NewCredentialVerifier(store),
		tokenService: tokenService,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = normalizeLogger(logger)
	s.verifier.WithLogger(s.logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this Auther
func (s *Auther) TokenService() *TokenService {
	return s.tokenService
}

// Login verifies creds and issues a session token.
func (s *Auther) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	identity, err := s.verifier.Verify(ctx, creds)
	if err != nil {
		s.logger.Warn("Failed login attempt for username: " + creds.Username)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", creds.Username, map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	token, err := s.tokenService.Issue(identity)
	if err != nil {
		s.logger.Error("Login token issue error", "username", creds.Username, "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, identity.ID(), identity.Username(), map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	s.logger.Info("User '" + identity.Username() + "' logged in successfully.")
	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, identity.ID(), identity.Username(), map[string]any{
		"role": identity.Role(),
	})

	return &LoginResult{
		User:  identity.Username(),
		Token: token.Value,
		Info:  token,
	}, nil
}

// Register validates payload and stores a new identity. The returned
// identity carries the assigned id.
func (s *Auther) Register(ctx context.Context, payload RegisterIdentity) (*StoredIdentity, error) {
	if err := payload.Validate(); err != nil {
		return nil, validationError(ErrInvalidRegistration, err)
	}

	identity, err := s.store.Insert(ctx, StoredIdentity{
		Name:     payload.Username,
		Secret:   payload.Password,
		RoleName: payload.Role,
	})
	if err != nil {
		s.logger.Warn("Registration failed", "username", payload.Username, "error", err)
		return nil, err
	}

	s.logger.Info("User '" + identity.Username() + "' registered successfully with ID: " + identity.ID())
	s.emitAuthEvent(ctx, ActivityEventIdentityRegistered, identity.ID(), identity.Username(), map[string]any{
		"role": identity.Role(),
	})

	return identity, nil
}

// Identities lists every registered identity without secrets.
func (s *Auther) Identities(ctx context.Context) ([]*StoredIdentity, error) {
	return s.IdentitiesByRole(ctx, "")
}

// IdentitiesByRole lists identities whose role matches exactly. An empty
// role matches everything.
func (s *Auther) IdentitiesByRole(ctx context.Context, role string) ([]*StoredIdentity, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*StoredIdentity, 0, len(all))
	for _, identity := range all {
		if role != "" && identity.Role() != role {
			continue
		}
		out = append(out, identity.Public())
	}
	return out, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, userID, username string, metadata map[string]any) {
	emitActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: eventType,
		UserID:    userID,
		Username:  strings.TrimSpace(username),
		Metadata:  metadata,
	})
}
