package http

import (
	"net/http"

	"github.com/machauth/machauth/internal/auth/domain"
	"github.com/machauth/machauth/pkg/httpx"
	"github.com/machauth/machauth/pkg/oauthsdk"
)

// MetadataHandler serves the RFC 8414 authorization server metadata
// document.
//
//	@Summary		Authorization Server Metadata
//	@Description	Returns the RFC 8414 discovery document describing the server's endpoints and capabilities.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	oauthsdk.MetadataResponse	"issuer, token_endpoint, jwks_uri, ..."
//	@Router			/.well-known/oauth-authorization-server [get].
func MetadataHandler(issuer string) http.HandlerFunc {
	metadata := oauthsdk.MetadataResponse{
		Issuer:              issuer,
		TokenEndpoint:       issuer + "/oauth2/token",
		JWKSURI:             issuer + "/.well-known/jwks.json",
		GrantTypesSupported: []string{domain.GrantClientCredentials},
		TokenEndpointAuthMethodsSupported: []string{
			"client_secret_basic",
			"client_secret_post",
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, metadata)
	}
}
