// Package jwtx wraps JWT signing and verification for access tokens.
// Tokens are self-contained: subject, granted scopes, issuer and expiry
// all travel inside the signed payload, keyed by a kid header so
// verifiers can find the right public key in the JWKS.
package jwtx

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/machauth/machauth/pkg/idx"
)

var (
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// Claims are the access-token claims minted for the client_credentials
// grant. The subject is the client itself; there is no end user.
type Claims struct {
	jwt.RegisteredClaims

	// Scopes granted to this token, e.g. ["openid"].
	Scopes []string `json:"scopes,omitempty"`

	// ClientName is the registered client_id, duplicated outside sub
	// for log and introspection friendliness.
	ClientName string `json:"client_name,omitempty"`
}

// NewAccessClaims builds the claim set for a freshly authorized client.
// exp is always iat + ttl; callers validate ttl positivity before here.
func NewAccessClaims(
	subject string,
	scopes []string,
	ttl time.Duration,
	issuer string,
	audience []string,
	clientName string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        idx.New().String(),
		},
		Scopes:     scopes,
		ClientName: clientName,
	}
}

// ValidateIssuer checks the iss claim against an expected value.
// An empty expectation enforces nothing.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience requires at least one expected audience to appear.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry enforces exp and nbf against the current time.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
