package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingKID = errors.New("jwtx: missing kid header")
	ErrUnknownKID = errors.New("jwtx: unknown kid")
)

// Verifier validates a signed token and returns its claims.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// keySetVerifier verifies tokens against a KeySet, pinned to a single
// algorithm so attacker-chosen alg headers are rejected outright.
type keySetVerifier struct {
	keys   *KeySet
	alg    string
	issuer string
	aud    []string
}

// NewVerifier returns a Verifier for the given algorithm backed by the
// KeySet. Issuer and audience expectations are enforced on every token;
// empty values enforce nothing.
func NewVerifier(keys *KeySet, alg, issuer string, aud []string) Verifier {
	return &keySetVerifier{keys: keys, alg: alg, issuer: issuer, aud: aud}
}

func (v *keySetVerifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{v.alg}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrMissingKID
		}
		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKID, kid)
		}
		return pub, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, errors.New("jwtx: invalid token claims")
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.aud); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}
