package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess       ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure       ActivityEventType = "auth.login.failure"
	ActivityEventIdentityRegistered ActivityEventType = "auth.identity.registered"
	ActivityEventAccessDenied       ActivityEventType = "auth.access.denied"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Username   string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks are best effort: errors are logged by the emitter and never fail
// the operation that produced the event.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// LoggerActivitySink writes every event to a Logger. Denials and login
// failures are logged at warn level, everything else at info.
type LoggerActivitySink struct {
	logger Logger
}

// NewLoggerActivitySink returns a sink that logs to logger.
func NewLoggerActivitySink(logger Logger) *LoggerActivitySink {
	return &LoggerActivitySink{logger: normalizeLogger(logger)}
}

func (s *LoggerActivitySink) Record(_ context.Context, event ActivityEvent) error {
	args := []any{"event", string(event.EventType)}
	if event.UserID != "" {
		args = append(args, "user_id", event.UserID)
	}
	if event.Username != "" {
		args = append(args, "username", event.Username)
	}
	for k, v := range event.Metadata {
		args = append(args, k, v)
	}

	switch event.EventType {
	case ActivityEventLoginFailure, ActivityEventAccessDenied:
		s.logger.Warn("activity", args...)
	default:
		s.logger.Info("activity", args...)
	}
	return nil
}

// MultiActivitySink fans events out to every sink, returning the first error.
type MultiActivitySink []ActivitySink

func (m MultiActivitySink) Record(ctx context.Context, event ActivityEvent) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func emitActivity(ctx context.Context, sink ActivitySink, logger Logger, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := sink.Record(ctx, event); err != nil {
		logger.Warn("activity sink failed", "event", string(event.EventType), "error", err)
	}
}
