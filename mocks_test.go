package auth_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	auth "github.com/goliatone/go-auth-audit"
	"github.com/stretchr/testify/mock"
)

const testSigningKey = "test-signing-key-0123456789abcdef"

// MockIdentity implements auth.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

// MockIdentityStore implements auth.IdentityStore
type MockIdentityStore struct {
	mock.Mock
}

func (m *MockIdentityStore) FindByUsername(ctx context.Context, username string) (*auth.StoredIdentity, error) {
	args := m.Called(ctx, username)
	if v := args.Get(0); v != nil {
		return v.(*auth.StoredIdentity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityStore) Insert(ctx context.Context, identity auth.StoredIdentity) (*auth.StoredIdentity, error) {
	args := m.Called(ctx, identity)
	if v := args.Get(0); v != nil {
		return v.(*auth.StoredIdentity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityStore) List(ctx context.Context) ([]*auth.StoredIdentity, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*auth.StoredIdentity), args.Error(1)
	}
	return nil, args.Error(1)
}

// captureLogger records formatted lines for assertions.
type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *captureLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var b strings.Builder
	b.WriteString(level + " " + msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	l.lines = append(l.lines, b.String())
}

func (l *captureLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args) }

func (l *captureLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// recordingSink collects activity events.
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []auth.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

func testOptions() auth.Options {
	opts := auth.DefaultOptions()
	opts.SigningKey = testSigningKey
	return opts
}
