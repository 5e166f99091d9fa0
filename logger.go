package auth

import (
	"io"
	"os"
	"path/filepath"

	goerrors "github.com/goliatone/go-errors"
	"github.com/hashicorp/go-hclog"
)

// LogOptions configures the application logger.
type LogOptions struct {
	Name  string `koanf:"name"`
	Level string `koanf:"level"`
	// Path, when set, receives a copy of every line in append mode.
	Path string `koanf:"path"`
}

// NewLogger builds the hclog application logger. Lines have the form
// "<timestamp> [LEVEL]  name: message: k=v". The returned closer releases
// the log file and is a no-op when Path is empty.
func NewLogger(opts LogOptions, stderr io.Writer) (hclog.Logger, io.Closer, error) {
	if stderr == nil {
		stderr = os.Stderr
	}

	out := stderr
	var closer io.Closer = nopCloser{}
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "create log directory")
		}
		f, err := os.OpenFile(opts.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
		if err != nil {
			return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "open log file")
		}
		out = io.MultiWriter(stderr, f)
		closer = f
	}

	name := opts.Name
	if name == "" {
		name = "authaudit"
	}

	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  level,
		Output: out,
	})
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
