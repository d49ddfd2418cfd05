package oauthsdk

import "github.com/machauth/machauth/pkg/jwtx"

// TokenResponse is the OAuth2 token endpoint response per RFC 6749
// section 5.1.
type TokenResponse struct {
	// AccessToken is the signed JWT access token.
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the token lifetime in whole seconds.
	ExpiresIn int `json:"expires_in"`

	// Scope is the space-delimited granted scope set.
	Scope string `json:"scope,omitempty"`
}

// ErrorResponse is the error body shape, used for JSON unmarshaling on
// the client side. Server code uses OAuth2Error directly.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ClientInfoResponse describes the authenticated client's own
// registration, served by GET /v1/clientinfo.
type ClientInfoResponse struct {
	ClientID  string   `json:"client_id"`
	Scopes    []string `json:"scopes"`
	TokenTTL  int      `json:"token_ttl"` // seconds
	CreatedAt string   `json:"created_at"`
}

// MetadataResponse is the RFC 8414 authorization server metadata
// document served at /.well-known/oauth-authorization-server.
type MetadataResponse struct {
	Issuer                            string   `json:"issuer"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	JWKSURI                           string   `json:"jwks_uri"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	ScopesSupported                   []string `json:"scopes_supported,omitempty"`
}

// HealthResponse is shared by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency readiness (only on /readyz).
type HealthChecks struct {
	Store  string `json:"store"`
	Signer string `json:"signer"`
}

// JWKSResponse is the JSON Web Key Set served at
// /.well-known/jwks.json.
type JWKSResponse = jwtx.JWKS
