package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store is append-only audit storage. Append must be safe for concurrent
// use and must never interleave two records. ReadAll returns records in
// append order.
type Store interface {
	Append(ctx context.Context, rec Record) error
	ReadAll(ctx context.Context) ([]Record, error)
	Close() error
}

// ErrWriteFailed wraps every store failure raised while persisting a record.
var ErrWriteFailed = errors.New("audit: write failed")

// ErrUnknownBackend is returned by OpenStore.
var ErrUnknownBackend = errors.New("audit: unknown store backend")

func writeFailed(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrWriteFailed, err)
}

// Logger mirrors the auth package logger so this package has no dependency
// on it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// StoreOptions selects and configures a store backend.
type StoreOptions struct {
	// Backend is one of "file", "sqlite" or "badger".
	Backend string
	// Path is the log file, the sqlite DSN or the badger directory. An empty
	// path selects in-memory storage for sqlite and badger.
	Path   string
	Logger Logger
}

// OpenStore opens the configured backend.
func OpenStore(ctx context.Context, opts StoreOptions) (Store, error) {
	var (
		store Store
		err   error
	)
	switch strings.ToLower(opts.Backend) {
	case "", "file":
		store, err = openFile(opts.Path)
	case "sqlite":
		store, err = openSQLite(ctx, opts.Path)
	case "badger":
		store, err = openBadger(opts.Path, opts.Logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

func openFile(path string) (Store, error) {
	s, err := OpenFileStore(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openSQLite(ctx context.Context, dsn string) (Store, error) {
	s, err := OpenSQLiteStore(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openBadger(dir string, logger Logger) (Store, error) {
	s, err := OpenBadgerStore(dir, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}
