package domain

import (
	"errors"
	"time"
)

// GrantClientCredentials is the only grant type this server issues
// tokens for.
const GrantClientCredentials = "client_credentials"

var (
	ErrEmptyClientID    = errors.New("domain: client_id must not be empty")
	ErrEmptySecretHash  = errors.New("domain: secret hash must not be empty")
	ErrNonPositiveTTL   = errors.New("domain: token ttl must be positive")
	ErrNoGrantTypes     = errors.New("domain: at least one grant type is required")
	ErrUnsupportedGrant = errors.New("domain: unsupported grant type")
)

// Client is a registered OAuth2 client. Records are immutable after
// registration: there is no runtime mutation API, so concurrent reads
// need no per-record locking.
type Client struct {
	// ID is the opaque record identifier (ULID), assigned at
	// registration and never derived from caller input.
	ID string

	// ClientID is the identifier the client authenticates with.
	// Unique across the registry.
	ClientID string

	// SecretHash is the Argon2id PHC-format verifier for the client
	// secret. Plaintext secrets never reach storage.
	SecretHash string

	// GrantTypes the client may use. Only client_credentials is
	// honoured by this server.
	GrantTypes []string

	// Scopes the client may be granted.
	Scopes []string

	// TokenTTL bounds the lifetime of every token issued to this
	// client. Strictly positive, enforced at registration.
	TokenTTL time.Duration

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate enforces the registration-time invariants. Issuance-time
// code may assume a stored client passed this.
func (c Client) Validate() error {
	if c.ClientID == "" {
		return ErrEmptyClientID
	}
	if c.SecretHash == "" {
		return ErrEmptySecretHash
	}
	if c.TokenTTL <= 0 {
		return ErrNonPositiveTTL
	}
	if len(c.GrantTypes) == 0 {
		return ErrNoGrantTypes
	}
	for _, g := range c.GrantTypes {
		if g != GrantClientCredentials {
			return ErrUnsupportedGrant
		}
	}
	return nil
}

// AllowsGrant reports whether the client registered for the grant type.
func (c Client) AllowsGrant(grantType string) bool {
	for _, g := range c.GrantTypes {
		if g == grantType {
			return true
		}
	}
	return false
}
