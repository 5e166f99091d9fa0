package audit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore appends one line per record to a log file. Each record is
// written with a single Write call under a mutex, so concurrent appends
// never interleave.
type FileStore struct {
	mu   sync.Mutex
	path string
	file *os.File
	sync bool
}

var _ Store = (*FileStore)(nil)

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithSync fsyncs the file after every append.
func WithSync(enabled bool) FileStoreOption {
	return func(s *FileStore) {
		s.sync = enabled
	}
}

// OpenFileStore opens path for appending, creating it and its directory
// when missing.
func OpenFileStore(path string, opts ...FileStoreOption) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("audit: file store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("audit: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("audit: open log file: %w", err)
	}

	s := &FileStore{path: path, file: f}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the log file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return writeFailed(err)
	}
	line, err := FormatLine(rec)
	if err != nil {
		return writeFailed(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return writeFailed(os.ErrClosed)
	}
	if _, err := s.file.Write(line); err != nil {
		return writeFailed(err)
	}
	if s.sync {
		if err := s.file.Sync(); err != nil {
			return writeFailed(err)
		}
	}
	return nil
}

// ReadAll decodes the file from the start. It holds the append lock so it
// never observes a partial line.
func (s *FileStore) ReadAll(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	br := bufio.NewReader(f)
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, readErr := br.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			rec, err := DecodeLine(line)
			if err != nil {
				return nil, fmt.Errorf("audit: line %d: %w", n, err)
			}
			records = append(records, rec)
		}
		if errors.Is(readErr, io.EOF) {
			return records, nil
		}
		if readErr != nil {
			return nil, readErr
		}
	}
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
