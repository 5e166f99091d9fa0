package auth

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for configuration environment variables.
// Nesting uses a double underscore: AUTHAUDIT_AUDIT__MAX_BODY_SIZE maps to
// audit.max_body_size.
const EnvPrefix = "AUTHAUDIT_"

// MinSigningKeyLength is the shortest accepted HS256 key, in bytes.
const MinSigningKeyLength = 32

// Audit storage backends.
const (
	AuditBackendFile   = "file"
	AuditBackendSQLite = "sqlite"
	AuditBackendBadger = "badger"
)

// Options holds the service configuration.
type Options struct {
	SigningKey string   `koanf:"signing_key"`
	Issuer     string   `koanf:"issuer"`
	Audience   []string `koanf:"audience"`
	// RetiredSigningKeys still verify tokens issued before the last key
	// rotation. They never sign.
	RetiredSigningKeys []string      `koanf:"retired_signing_keys"`
	Server             ServerOptions `koanf:"server"`
	Audit              AuditOptions  `koanf:"audit"`
	Log                LogOptions    `koanf:"log"`
}

// ServerOptions configures the HTTP listener.
type ServerOptions struct {
	Address string `koanf:"address"`
}

// AuditOptions configures the audit interceptor and its store.
type AuditOptions struct {
	Backend        string   `koanf:"backend"`
	Path           string   `koanf:"path"`
	MaxBodySize    int      `koanf:"max_body_size"`
	BufferRequests bool     `koanf:"buffer_requests"`
	LocalAddress   string   `koanf:"local_address"`
	RedactHeaders  []string `koanf:"redact_headers"`
}

var _ Config = Options{}

func (o Options) GetSigningKey() string { return o.SigningKey }
func (o Options) GetIssuer() string     { return o.Issuer }
func (o Options) GetAudience() []string { return o.Audience }

// DefaultOptions returns the configuration used when no source overrides a
// value. SigningKey has no default and must be provided.
func DefaultOptions() Options {
	return Options{
		Server: ServerOptions{
			Address: ":8080",
		},
		Audit: AuditOptions{
			Backend:     AuditBackendFile,
			Path:        "logs/requests.log",
			MaxBodySize: 64 << 10,
		},
		Log: LogOptions{
			Name:  "authaudit",
			Level: "info",
			Path:  "logs/app.log",
		},
	}
}

// Validate checks the options once at startup.
func (o Options) Validate() error {
	err := validation.ValidateStruct(&o,
		validation.Field(&o.SigningKey, validation.Required, validation.Length(MinSigningKeyLength, 0)),
	)
	if err != nil {
		return validationError(ErrInvalidConfig, err)
	}

	for i, key := range o.RetiredSigningKeys {
		if len(key) < MinSigningKeyLength {
			return retiredKeyError(i)
		}
	}

	a := o.Audit
	err = validation.ValidateStruct(&a,
		validation.Field(&a.Backend, validation.Required, validation.In(AuditBackendFile, AuditBackendSQLite, AuditBackendBadger)),
		validation.Field(&a.MaxBodySize, validation.Min(0)),
	)
	if err != nil {
		return validationError(ErrInvalidConfig, err)
	}
	if a.Backend == AuditBackendFile && a.Path == "" {
		return derive(ErrInvalidConfig, nil, map[string]any{"field": "audit.path"})
	}
	return nil
}

func retiredKeyError(i int) error {
	return derive(ErrInvalidConfig, nil, map[string]any{
		"field": fmt.Sprintf("retired_signing_keys.%d", i),
	})
}

// LoadOptions reads defaults, then the YAML file at path (when not empty),
// then AUTHAUDIT_ environment variables, and validates the result.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return opts, goerrors.Wrap(err, goerrors.CategoryValidation, fmt.Sprintf("load config file %s", path)).
				WithTextCode(TextCodeInvalidConfig)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return opts, goerrors.Wrap(err, goerrors.CategoryValidation, "load env").
			WithTextCode(TextCodeInvalidConfig)
	}

	if err := k.Unmarshal("", &opts); err != nil {
		return opts, goerrors.Wrap(err, goerrors.CategoryValidation, "unmarshal config").
			WithTextCode(TextCodeInvalidConfig)
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}
