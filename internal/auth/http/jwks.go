package http

import (
	"net/http"

	"github.com/machauth/machauth/pkg/httpx"
	"github.com/machauth/machauth/pkg/jwtx"
	"github.com/machauth/machauth/pkg/oauthsdk"
)

// JWKSHandler exposes the JSON Web Key Set for public key discovery.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify access tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	oauthsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, oauthsdk.JWKSResponse(keys.PublicJWKS()))
	}
}
