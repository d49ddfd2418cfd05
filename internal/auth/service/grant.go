package service

import (
	"errors"

	"github.com/machauth/machauth/internal/auth/domain"
)

var (
	ErrUnsupportedGrantType = errors.New("unsupported_grant_type")
	ErrInvalidScope         = errors.New("invalid_scope")
)

// GrantState tracks how far a grant request made it through validation.
// The progression is strictly ordered: the grant type is checked before any
// scope is looked at, so a request with both a bad grant type and a bad scope
// is always rejected for the grant type.
type GrantState int

const (
	GrantReceived GrantState = iota
	GrantTypeChecked
	GrantScopeChecked
	GrantValidated
	GrantRejected
)

func (s GrantState) String() string {
	switch s {
	case GrantReceived:
		return "received"
	case GrantTypeChecked:
		return "grant_type_checked"
	case GrantScopeChecked:
		return "scope_checked"
	case GrantValidated:
		return "validated"
	case GrantRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// GrantResult is the outcome of validating a grant request against an
// authenticated client.
type GrantResult struct {
	State GrantState

	// GrantedScopes is populated only when State is GrantValidated. It is the
	// requested scopes intersected with the client's allowed scopes, or the
	// client's full allowed set when nothing was requested.
	GrantedScopes []string

	// Err is populated only when State is GrantRejected.
	Err error
}

// GrantValidator checks a token request's grant type and scopes against an
// already-authenticated client.
type GrantValidator struct{}

// Validate walks the request through its checks in order. Checks after a
// failure never run, so the result's Err always reflects the first failure.
func (GrantValidator) Validate(client domain.Client, grantType string, requestedScopes []string) GrantResult {
	res := GrantResult{State: GrantReceived}

	// 1. Grant type: the server only speaks client_credentials, and the
	// client must also be registered for it.
	if grantType != domain.GrantClientCredentials || !client.AllowsGrant(grantType) {
		res.State = GrantRejected
		res.Err = ErrUnsupportedGrantType
		return res
	}
	res.State = GrantTypeChecked

	// 2. Scopes: empty request means "everything the client is allowed".
	// A non-empty request must overlap the allowed set.
	effective := requestedScopes
	if len(effective) == 0 {
		effective = client.Scopes
	} else {
		effective = intersectScopes(requestedScopes, client.Scopes)
		if len(effective) == 0 {
			res.State = GrantRejected
			res.Err = ErrInvalidScope
			return res
		}
	}
	res.State = GrantScopeChecked

	res.State = GrantValidated
	res.GrantedScopes = effective
	return res
}

// intersectScopes returns the members of requested that also appear in
// allowed, preserving request order and dropping duplicates.
func intersectScopes(requested, allowed []string) []string {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		allowedSet[s] = struct{}{}
	}

	var out []string
	seen := make(map[string]struct{}, len(requested))
	for _, s := range requested {
		if _, ok := allowedSet[s]; !ok {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
