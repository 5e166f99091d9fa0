package auth

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// Text codes are stable identifiers clients and logs can match on.
const (
	TextCodeMissingCredentials  = "MISSING_CREDENTIALS"
	TextCodeInvalidCreds        = "INVALID_CREDENTIALS"
	TextCodeInvalidRegistration = "INVALID_REGISTRATION"
	TextCodeUsernameTaken       = "USERNAME_TAKEN"
	TextCodeIdentityNotFound    = "IDENTITY_NOT_FOUND"
	TextCodeUnauthenticated     = "UNAUTHENTICATED"
	TextCodeTokenBadSignature   = "TOKEN_BAD_SIGNATURE"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeForbidden           = "FORBIDDEN"
	TextCodeInvalidConfig       = "INVALID_CONFIG"
	TextCodeDataParseError      = "DATA_PARSE_ERROR"
)

var (
	// ErrMissingCredentials is returned when username or password is empty.
	ErrMissingCredentials = goerrors.New("username and password are required", goerrors.CategoryValidation).
				WithTextCode(TextCodeMissingCredentials).
				WithCode(goerrors.CodeBadRequest)

	// ErrInvalidCredentials never reveals whether the username exists.
	ErrInvalidCredentials = goerrors.New("Invalid username or password", goerrors.CategoryAuth).
				WithTextCode(TextCodeInvalidCreds).
				WithCode(goerrors.CodeUnauthorized)

	// ErrInvalidRegistration wraps field validation errors for new identities.
	ErrInvalidRegistration = goerrors.New("invalid registration payload", goerrors.CategoryValidation).
				WithTextCode(TextCodeInvalidRegistration).
				WithCode(goerrors.CodeBadRequest)

	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = goerrors.New("username already exists", goerrors.CategoryConflict).
				WithTextCode(TextCodeUsernameTaken).
				WithCode(goerrors.CodeConflict)

	// ErrIdentityNotFound is the error we return for non found identities
	ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
				WithTextCode(TextCodeIdentityNotFound).
				WithCode(goerrors.CodeNotFound)

	// ErrUnauthenticated is returned when no usable token was supplied.
	ErrUnauthenticated = goerrors.New("authentication required", goerrors.CategoryAuth).
				WithTextCode(TextCodeUnauthenticated).
				WithCode(goerrors.CodeUnauthorized)

	// ErrBadSignature covers tampered, malformed or foreign tokens.
	ErrBadSignature = goerrors.New("token signature is invalid", goerrors.CategoryAuth).
			WithTextCode(TextCodeTokenBadSignature).
			WithCode(goerrors.CodeUnauthorized)

	// ErrTokenExpired is returned for correctly signed tokens past their expiry.
	ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
			WithTextCode(TextCodeTokenExpired).
			WithCode(goerrors.CodeUnauthorized)

	// ErrForbidden is returned when the token role does not match.
	ErrForbidden = goerrors.New("insufficient role", goerrors.CategoryAuthz).
			WithTextCode(TextCodeForbidden).
			WithCode(goerrors.CodeForbidden)

	// ErrInvalidConfig is returned by Options validation.
	ErrInvalidConfig = goerrors.New("invalid configuration", goerrors.CategoryValidation).
				WithTextCode(TextCodeInvalidConfig).
				WithCode(goerrors.CodeBadRequest)
)

// IsError reports whether err, or any rich error it wraps, carries the
// text code of target.
func IsError(err error, target *goerrors.Error) bool {
	if target == nil || target.TextCode == "" {
		return false
	}
	for err != nil {
		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) {
			return false
		}
		if richErr.TextCode == target.TextCode {
			return true
		}
		err = richErr.Source
	}
	return false
}

// CategoryOf returns the category of err, or CategoryInternal for
// uncategorized errors.
func CategoryOf(err error) goerrors.Category {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category
	}
	return goerrors.CategoryInternal
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if IsError(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if IsError(err, ErrBadSignature) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// derive copies a sentinel and attaches source and metadata. Sentinels
// are shared package values and are never modified.
func derive(sentinel *goerrors.Error, source error, meta map[string]any) *goerrors.Error {
	out := sentinel.Clone()
	if source != nil {
		out.Source = source
	}
	if len(meta) > 0 {
		out = out.WithMetadata(meta)
	}
	return out
}

func validationError(sentinel *goerrors.Error, err error) *goerrors.Error {
	var fields validation.Errors
	if !goerrors.As(err, &fields) {
		return derive(sentinel, err, nil)
	}
	details := make(map[string]any, len(fields))
	for k, v := range fields {
		details[k] = v.Error()
	}
	return derive(sentinel, err, map[string]any{"fields": details})
}
