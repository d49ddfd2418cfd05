package domain

import "time"

// IssuedToken is the output of a successful grant exchange. It is
// never stored server-side: the bearer model is stateless, the token
// itself carries everything a verifier needs.
type IssuedToken struct {
	// Value is the signed compact JWT.
	Value string

	// TokenType is always "Bearer".
	TokenType string

	IssuedAt  time.Time
	ExpiresAt time.Time

	// GrantedScopes is the scope set actually authorized: the
	// intersection of requested and allowed, or the client's full
	// allowed set when nothing was requested.
	GrantedScopes []string
}

// ExpiresIn returns the token lifetime in whole seconds, the unit the
// wire format uses.
func (t IssuedToken) ExpiresIn() int {
	return int(t.ExpiresAt.Sub(t.IssuedAt).Seconds())
}
