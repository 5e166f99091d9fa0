package auth

import (
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
)

// StoredIdentity is a registered identity. Secret is compared verbatim;
// hashing is left to the IdentityStore implementation.
type StoredIdentity struct {
	IdentityID int    `json:"id"`
	Name       string `json:"username"`
	Secret     string `json:"password,omitempty"`
	RoleName   string `json:"role"`
}

var _ Identity = (*StoredIdentity)(nil)

func (s *StoredIdentity) ID() string       { return strconv.Itoa(s.IdentityID) }
func (s *StoredIdentity) Username() string { return s.Name }
func (s *StoredIdentity) Role() string     { return s.RoleName }

// Public returns a copy without the secret, safe to serialize.
func (s *StoredIdentity) Public() *StoredIdentity {
	c := *s
	c.Secret = ""
	return &c
}

// Credentials are supplied by a login request. They are never persisted.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks both fields are present.
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
	)
}

// RegisterIdentity is the payload for a new identity.
type RegisterIdentity struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate the registration payload
func (r RegisterIdentity) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Role, validation.Required, validation.Length(1, 50)),
	)
}

// SeedIdentities returns the identities every fresh store starts with.
func SeedIdentities() []StoredIdentity {
	return []StoredIdentity{
		{IdentityID: 1, Name: "admin", Secret: "admin", RoleName: RoleAdmin},
		{IdentityID: 2, Name: "user", Secret: "user", RoleName: RoleUser},
	}
}
