package auth

import (
	"context"
	"fmt"
	"strings"
)

// Logger is the logging surface used across the package. Messages are
// followed by key/value pairs. hclog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Username() string
	Role() string
}

// IdentityStore is the registry of known identities.
//
// FindByUsername returns ErrIdentityNotFound when no identity matches.
// Insert assigns the next sequential id and returns ErrUsernameTaken when
// the username is already registered.
type IdentityStore interface {
	FindByUsername(ctx context.Context, username string) (*StoredIdentity, error)
	Insert(ctx context.Context, identity StoredIdentity) (*StoredIdentity, error)
	List(ctx context.Context) ([]*StoredIdentity, error)
}

// Config holds token options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAudience() []string
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] AUTH " + line(msg, args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] AUTH " + line(msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] AUTH " + line(msg, args))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] AUTH " + line(msg, args))
}

func line(msg string, args []any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		b.WriteByte(' ')
		if i+1 < len(args) {
			fmt.Fprintf(&b, "%v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, "EXTRA=%v", args[i])
		}
	}
	b.WriteByte('\n')
	return b.String()
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
