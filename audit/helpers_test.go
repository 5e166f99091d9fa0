package audit_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-auth-audit/audit"
)

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

func (l *captureLogger) count(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

// memoryStore is an in-memory audit.Store that can be told to fail.
type memoryStore struct {
	mu      sync.Mutex
	records []audit.Record
	fail    bool
}

func (s *memoryStore) Append(_ context.Context, rec audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("%w: disk full", audit.ErrWriteFailed)
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *memoryStore) ReadAll(context.Context) ([]audit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Record(nil), s.records...), nil
}

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) byDirection(d audit.Direction) audit.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.Direction == d {
			return rec
		}
	}
	return audit.Record{}
}

// seekBody is a seekable request body.
type seekBody struct {
	*strings.Reader
	closed bool
}

func (b *seekBody) Close() error {
	b.closed = true
	return nil
}

// brokenBody fails after yielding its prefix.
type brokenBody struct {
	r *strings.Reader
}

var errBroken = errors.New("connection reset")

func (b *brokenBody) Read(p []byte) (int, error) {
	if b.r.Len() == 0 {
		return 0, errBroken
	}
	return b.r.Read(p)
}

func (b *brokenBody) Close() error { return nil }
